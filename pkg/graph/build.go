package graph

import (
	"strconv"
	"strings"
	"time"

	"github.com/dd0wney/agrorisk/pkg/entities"
	"github.com/dd0wney/agrorisk/pkg/validation"
)

// Build converts a snapshot into its relationship graph.
//
// Every company, property and person becomes a node, including orphans.
// Edges come from property owners (owns), lease contracts (leases), company
// QSA lists (partner_in) and the snapshot's explicit relations. QSA partners
// that are not part of the snapshot become partner nodes keyed by their
// document digits, or by their folded name when the document is missing.
// Relations naming unknown entities are skipped and kept as graph warnings.
func Build(snap *entities.Snapshot) (*Graph, error) {
	if snap == nil {
		return nil, &validation.ValidationError{Reason: validation.ErrNilSnapshot.Error()}
	}

	b := NewBuilder()
	if err := addEntityNodes(b, snap); err != nil {
		return nil, err
	}

	cnpjIndex := make(map[string]string)
	for _, c := range snap.Companies {
		if d := entities.Digits(c.CNPJ); d != "" {
			if _, taken := cnpjIndex[d]; !taken {
				cnpjIndex[d] = NodeID(NodeCompany, c.ID)
			}
		}
	}
	cpfIndex := make(map[string]string)
	for _, p := range snap.Persons {
		if d := entities.Digits(p.CPF); d != "" {
			if _, taken := cpfIndex[d]; !taken {
				cpfIndex[d] = NodeID(NodePerson, p.ID)
			}
		}
	}

	for _, p := range snap.Properties {
		target := NodeID(NodeProperty, p.ID)
		if p.OwnerCompanyID != "" {
			addOrWarn(b, NodeID(NodeCompany, p.OwnerCompanyID), target, EdgeOwns, DefaultWeight)
		}
		if p.OwnerPersonID != "" {
			addOrWarn(b, NodeID(NodePerson, p.OwnerPersonID), target, EdgeOwns, DefaultWeight)
		}
	}

	for _, lc := range snap.LeaseContracts {
		if lc.CompanyID == "" || lc.PropertyID == "" {
			b.Warn("lease contract %s has no company or property, skipped", lc.ID)
			continue
		}
		addOrWarn(b, NodeID(NodeCompany, lc.CompanyID), NodeID(NodeProperty, lc.PropertyID), EdgeLeases, DefaultWeight)
	}

	for _, c := range snap.Companies {
		target := NodeID(NodeCompany, c.ID)
		for _, partner := range c.Partners {
			source := resolvePartner(b, partner, cnpjIndex, cpfIndex)
			if source == "" {
				b.Warn("company %s has a partner with no name, document or id, skipped", c.ID)
				continue
			}
			addOrWarn(b, source, target, EdgePartnerIn, DefaultWeight)
		}
	}

	for _, r := range snap.Relations {
		source := NodeID(NodeType(r.SourceType), r.SourceID)
		target := NodeID(NodeType(r.TargetType), r.TargetID)
		addOrWarn(b, source, target, EdgeType(r.Type), r.Weight)
	}

	return b.Graph(), nil
}

func addEntityNodes(b *Builder, snap *entities.Snapshot) error {
	for i, c := range snap.Companies {
		if strings.TrimSpace(c.ID) == "" {
			return &validation.ValidationError{Field: fieldIndex("companies", i), Reason: "field is required"}
		}
		attrs := c.Attributes.Flatten()
		attrs["cnpj"] = c.CNPJ
		attrs["status"] = c.Status
		attrs["capital"] = c.Capital
		attrs["city"] = c.City
		attrs["state"] = c.State
		attrs["address"] = c.Address
		if c.PrimaryActivity != "" {
			attrs["primary_activity"] = c.PrimaryActivity
		}
		if c.OpenDate != nil {
			attrs["open_date"] = c.OpenDate.Format(time.DateOnly)
		}
		b.AddNode(Node{
			ID:         NodeID(NodeCompany, c.ID),
			Type:       NodeCompany,
			Label:      firstNonEmpty(c.Name, c.CNPJ, c.ID),
			Attributes: attrs,
		})
	}

	for i, p := range snap.Properties {
		if strings.TrimSpace(p.ID) == "" {
			return &validation.ValidationError{Field: fieldIndex("properties", i), Reason: "field is required"}
		}
		attrs := p.Attributes.Flatten()
		attrs["area_hectares"] = p.AreaHectares
		attrs["city"] = p.City
		attrs["state"] = p.State
		if p.RegistryCode != "" {
			attrs["registry_code"] = p.RegistryCode
		}
		if p.RegisteredAt != nil {
			attrs["registered_at"] = p.RegisteredAt.Format(time.DateOnly)
		}
		b.AddNode(Node{
			ID:         NodeID(NodeProperty, p.ID),
			Type:       NodeProperty,
			Label:      firstNonEmpty(p.Name, p.RegistryCode, p.ID),
			Attributes: attrs,
		})
	}

	for i, p := range snap.Persons {
		if strings.TrimSpace(p.ID) == "" {
			return &validation.ValidationError{Field: fieldIndex("persons", i), Reason: "field is required"}
		}
		attrs := p.Attributes.Flatten()
		attrs["cpf"] = p.CPF
		if p.City != "" {
			attrs["city"] = p.City
			attrs["state"] = p.State
		}
		b.AddNode(Node{
			ID:         NodeID(NodePerson, p.ID),
			Type:       NodePerson,
			Label:      firstNonEmpty(p.Name, p.CPF, p.ID),
			Attributes: attrs,
		})
	}

	return nil
}

// resolvePartner returns the node id a QSA entry points to, creating a
// partner node when the entry is not part of the snapshot.
func resolvePartner(b *Builder, p entities.Partner, cnpjIndex, cpfIndex map[string]string) string {
	if p.CompanyID != "" {
		return NodeID(NodeCompany, p.CompanyID)
	}
	if p.PersonID != "" {
		return NodeID(NodePerson, p.PersonID)
	}

	doc := entities.Digits(p.Document)
	if id, ok := cnpjIndex[doc]; ok && doc != "" {
		return id
	}
	if id, ok := cpfIndex[doc]; ok && doc != "" {
		return id
	}

	var key string
	switch {
	case doc != "":
		key = doc
	case entities.FoldText(p.Name) != "":
		key = strings.ReplaceAll(entities.FoldText(p.Name), " ", "-")
	default:
		return ""
	}

	nodeType := NodePerson
	if len(doc) == 14 {
		nodeType = NodeCompany
	}
	id := NodeID(nodeType, "qsa_"+key)

	attrs := map[string]any{"source": "qsa"}
	if doc != "" {
		if nodeType == NodeCompany {
			attrs["cnpj"] = p.Document
		} else {
			attrs["cpf"] = p.Document
		}
	}
	if p.Role != "" {
		attrs["role"] = p.Role
	}
	b.AddNode(Node{
		ID:         id,
		Type:       nodeType,
		Label:      firstNonEmpty(p.Name, p.Document),
		Attributes: attrs,
	})
	return id
}

func addOrWarn(b *Builder, source, target string, t EdgeType, weight float64) {
	if err := b.AddEdge(source, target, t, weight); err != nil {
		b.Warn("%v, skipped", err)
	}
}

func fieldIndex(field string, i int) string {
	return field + "[" + strconv.Itoa(i) + "].id"
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
