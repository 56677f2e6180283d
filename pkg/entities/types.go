// Package entities defines the investigation snapshot handed to the analytics
// core by the persistence layer: rural properties, companies with their QSA
// partner lists, persons, legal query summaries, lease contracts and any
// relations the data layer already resolved.
package entities

import "time"

// Snapshot is the immutable set of records used as input to one analysis run.
// Analyses must treat it as read-only; CapturedAt is the reference time for
// every "recent" check so results never depend on the wall clock.
type Snapshot struct {
	InvestigationID string          `json:"investigation_id" validate:"required"`
	CapturedAt      time.Time       `json:"captured_at"`
	Properties      []Property      `json:"properties" validate:"dive"`
	Companies       []Company       `json:"companies" validate:"dive"`
	Persons         []Person        `json:"persons" validate:"dive"`
	LegalQueries    []LegalQuery    `json:"legal_queries" validate:"dive"`
	LeaseContracts  []LeaseContract `json:"lease_contracts" validate:"dive"`
	Relations       []Relation      `json:"relations" validate:"dive"`
}

// Property is a rural property record (CAR/CCIR/SIGEF).
type Property struct {
	ID             string     `json:"id" validate:"required"`
	Name           string     `json:"name"`
	RegistryCode   string     `json:"registry_code,omitempty"`
	AreaHectares   float64    `json:"area_hectares" validate:"finite,gte=0"`
	City           string     `json:"city"`
	State          string     `json:"state"`
	OwnerCompanyID string     `json:"owner_company_id,omitempty"`
	OwnerPersonID  string     `json:"owner_person_id,omitempty"`
	RegisteredAt   *time.Time `json:"registered_at,omitempty"`
	Attributes     Attributes `json:"attributes,omitempty"`
}

// Company is a CNPJ registration as returned by Receita Federal.
type Company struct {
	ID              string     `json:"id" validate:"required"`
	CNPJ            string     `json:"cnpj"`
	Name            string     `json:"name"`
	Status          string     `json:"status"`
	Capital         float64    `json:"capital" validate:"finite,gte=0"`
	OpenDate        *time.Time `json:"open_date,omitempty"`
	Address         string     `json:"address"`
	City            string     `json:"city"`
	State           string     `json:"state"`
	PrimaryActivity string     `json:"primary_activity,omitempty"`
	Partners        []Partner  `json:"partners,omitempty" validate:"dive"`
	Attributes      Attributes `json:"attributes,omitempty"`
}

// Partner is one entry of a company's QSA (quadro de sócios e administradores).
// CompanyID or PersonID is set when the partner is itself part of the snapshot.
type Partner struct {
	Name      string `json:"name"`
	Document  string `json:"document,omitempty"`
	Role      string `json:"role,omitempty"`
	CompanyID string `json:"company_id,omitempty"`
	PersonID  string `json:"person_id,omitempty"`
}

// Person is an individual (CPF) under investigation.
type Person struct {
	ID         string     `json:"id" validate:"required"`
	Name       string     `json:"name"`
	CPF        string     `json:"cpf"`
	City       string     `json:"city,omitempty"`
	State      string     `json:"state,omitempty"`
	Attributes Attributes `json:"attributes,omitempty"`
}

// LegalQuery summarises the outcome of one court or registry query.
type LegalQuery struct {
	ID             string `json:"id" validate:"required"`
	Provider       string `json:"provider"`
	QueryType      string `json:"query_type"`
	Status         string `json:"status"`
	ActiveLawsuits int    `json:"active_lawsuits" validate:"gte=0"`
	Text           string `json:"text"`
}

// LeaseContract is an arrendamento of a property by a company.
type LeaseContract struct {
	ID         string     `json:"id" validate:"required"`
	PropertyID string     `json:"property_id"`
	CompanyID  string     `json:"company_id"`
	Value      float64    `json:"value" validate:"finite,gte=0"`
	StartDate  *time.Time `json:"start_date,omitempty"`
}

// EntityType names the kind of record a relation endpoint refers to.
type EntityType string

const (
	EntityCompany  EntityType = "company"
	EntityProperty EntityType = "property"
	EntityPerson   EntityType = "person"
)

// RelationType is the kind of a directed relationship between two entities.
type RelationType string

const (
	RelationOwns      RelationType = "owns"
	RelationLeases    RelationType = "leases"
	RelationPartnerIn RelationType = "partner_in"
)

// Relation is a relationship the data layer already resolved. Weight defaults
// to 1.0 when zero.
type Relation struct {
	SourceType EntityType   `json:"source_type" validate:"required,oneof=company property person"`
	SourceID   string       `json:"source_id" validate:"required"`
	TargetType EntityType   `json:"target_type" validate:"required,oneof=company property person"`
	TargetID   string       `json:"target_id" validate:"required"`
	Type       RelationType `json:"type" validate:"required,oneof=owns leases partner_in"`
	Weight     float64      `json:"weight,omitempty" validate:"finite,gte=0"`
}

// EntityCount returns the number of properties, companies and persons.
func (s *Snapshot) EntityCount() int {
	if s == nil {
		return 0
	}
	return len(s.Properties) + len(s.Companies) + len(s.Persons)
}

// IsEmpty reports whether the snapshot carries no entities and no legal queries.
func (s *Snapshot) IsEmpty() bool {
	return s.EntityCount() == 0 && (s == nil || len(s.LegalQueries) == 0)
}
