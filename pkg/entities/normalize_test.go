package entities

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeAddress(t *testing.T) {
	tests := []struct {
		a, b string
	}{
		{"R. das Flores, 100", "rua das flores 100"},
		{"Av. Brasil, nº 10 - Sala 2", "AVENIDA BRASIL 10 SALA 2"},
		{"Rod. BR-163, Km 700", "rodovia br 163 km 700"},
		{"Fazenda São João", "FAZ. SAO JOAO"},
	}

	for _, tt := range tests {
		assert.Equal(t, NormalizeAddress(tt.a), NormalizeAddress(tt.b), "%q vs %q", tt.a, tt.b)
	}

	assert.Empty(t, NormalizeAddress("   "))
}

func TestFoldText(t *testing.T) {
	assert.Equal(t, "corrupcao ativa", FoldText("  Corrupção   ATIVA "))
	assert.Equal(t, "grilagem", FoldText("GRILAGEM"))
}

func TestDigits(t *testing.T) {
	assert.Equal(t, "12345678000190", Digits("12.345.678/0001-90"))
	assert.Equal(t, "", Digits("n/a"))
}

func TestCompanyIsInactive(t *testing.T) {
	tests := []struct {
		status   string
		inactive bool
	}{
		{"ATIVA", false},
		{"BAIXADA", true},
		{"Inapta", true},
		{"suspensa", true},
		{"", false},
	}

	for _, tt := range tests {
		c := Company{Status: tt.status}
		if got := c.IsInactive(); got != tt.inactive {
			t.Errorf("IsInactive(%q) = %v, want %v", tt.status, got, tt.inactive)
		}
	}
}

func TestAttributesKeepsUnknownKeys(t *testing.T) {
	var attrs Attributes
	err := json.Unmarshal([]byte(`{"biome":"Cerrado","embargoed":true,"ibama_auto":"A-123","score":7}`), &attrs)
	require.NoError(t, err)

	assert.Equal(t, "Cerrado", attrs.Biome)
	assert.True(t, attrs.Embargoed)
	assert.Equal(t, "A-123", attrs.Extra["ibama_auto"])
	assert.Equal(t, "7", attrs.Extra["score"])

	flat := attrs.Flatten()
	assert.Equal(t, "Cerrado", flat["biome"])
	assert.Equal(t, "A-123", flat["ibama_auto"])
}

func TestSnapshotIsEmpty(t *testing.T) {
	var nilSnap *Snapshot
	assert.True(t, nilSnap.IsEmpty())
	assert.True(t, (&Snapshot{InvestigationID: "inv-1"}).IsEmpty())
	assert.False(t, (&Snapshot{LegalQueries: []LegalQuery{{ID: "q1"}}}).IsEmpty())
}
