package entities

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// FoldText lowercases s, strips diacritics and collapses whitespace.
func FoldText(s string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return strings.Join(strings.Fields(strings.ToLower(folded)), " ")
}

// addressAbbreviations expands the street-type abbreviations used
// interchangeably in Receita Federal address fields.
var addressAbbreviations = map[string]string{
	"r":     "rua",
	"av":    "avenida",
	"avda":  "avenida",
	"rod":   "rodovia",
	"est":   "estrada",
	"faz":   "fazenda",
	"al":    "alameda",
	"pc":    "praca",
	"pca":   "praca",
	"tv":    "travessa",
	"km":    "km",
	"n":     "",
	"no":    "",
	"num":   "",
	"s/n":   "sn",
	"sala":  "sala",
	"cj":    "conjunto",
	"conj":  "conjunto",
	"qd":    "quadra",
	"lt":    "lote",
	"bl":    "bloco",
	"andar": "andar",
}

// NormalizeAddress reduces an address to a canonical token string so that
// "R. das Flores, 100" and "rua das flores 100" compare equal.
func NormalizeAddress(address string) string {
	folded := FoldText(address)
	if folded == "" {
		return ""
	}

	folded = strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '/':
			return r
		default:
			return ' '
		}
	}, folded)

	tokens := strings.Fields(folded)
	out := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if expanded, ok := addressAbbreviations[tok]; ok {
			if expanded == "" {
				continue
			}
			tok = expanded
		}
		out = append(out, tok)
	}
	return strings.Join(out, " ")
}

// Digits strips everything but digits, used for CPF/CNPJ comparisons.
func Digits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

var inactiveStatuses = map[string]bool{
	"baixada":  true,
	"inapta":   true,
	"suspensa": true,
	"nula":     true,
	"inativa":  true,
	"inactive": true,
	"closed":   true,
}

// IsInactive reports whether the company's registration status is anything
// other than active. An empty status is treated as unknown, not inactive.
func (c *Company) IsInactive() bool {
	return inactiveStatuses[FoldText(c.Status)]
}

// HasStatus reports whether the registration status is known.
func (c *Company) HasStatus() bool {
	return strings.TrimSpace(c.Status) != ""
}

// LocationKey joins a normalized city and state, e.g. "sorriso/mt".
func LocationKey(city, state string) string {
	city = FoldText(city)
	state = FoldText(state)
	if city == "" {
		return ""
	}
	return city + "/" + state
}
