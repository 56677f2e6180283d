package entities

import "encoding/json"

// Attributes carries the loosely structured fields registries attach to a
// record. Known keys are typed; anything else lands in Extra.
type Attributes struct {
	Nature       string            `json:"legal_nature,omitempty"`
	Size         string            `json:"company_size,omitempty"`
	Biome        string            `json:"biome,omitempty"`
	Embargoed    bool              `json:"embargoed,omitempty"`
	ModuleFiscal float64           `json:"fiscal_modules,omitempty"`
	Extra        map[string]string `json:"-"`
}

var knownAttributeKeys = map[string]bool{
	"legal_nature":   true,
	"company_size":   true,
	"biome":          true,
	"embargoed":      true,
	"fiscal_modules": true,
}

type attributesAlias Attributes

// UnmarshalJSON decodes the typed fields and keeps every unknown scalar as a
// string in Extra.
func (a *Attributes) UnmarshalJSON(data []byte) error {
	var alias attributesAlias
	if err := json.Unmarshal(data, &alias); err != nil {
		return err
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*a = Attributes(alias)
	for key, value := range raw {
		if knownAttributeKeys[key] {
			continue
		}
		if a.Extra == nil {
			a.Extra = make(map[string]string)
		}
		var s string
		if err := json.Unmarshal(value, &s); err == nil {
			a.Extra[key] = s
			continue
		}
		a.Extra[key] = string(value)
	}
	return nil
}

// MarshalJSON flattens Extra next to the typed fields.
func (a Attributes) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.Flatten())
}

// Flatten returns every attribute in one map, used when attributes are
// copied onto graph nodes.
func (a Attributes) Flatten() map[string]any {
	out := make(map[string]any, len(a.Extra)+5)
	for k, v := range a.Extra {
		out[k] = v
	}
	if a.Nature != "" {
		out["legal_nature"] = a.Nature
	}
	if a.Size != "" {
		out["company_size"] = a.Size
	}
	if a.Biome != "" {
		out["biome"] = a.Biome
	}
	if a.Embargoed {
		out["embargoed"] = true
	}
	if a.ModuleFiscal != 0 {
		out["fiscal_modules"] = a.ModuleFiscal
	}
	return out
}
