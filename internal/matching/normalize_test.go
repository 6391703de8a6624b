package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizer(t *testing.T) {
	n := NewNormalizer(DefaultStopWords)

	assert.Equal(t, "florilor 3 a2 8 4", n.Normalize("Str. Florilor nr. 3, bl. A2, ap. 8, Sector 4"))
	assert.Equal(t, "stefan", fold("Ștefan"))
	assert.Equal(t, "stefan cel mare", n.Normalize("Șoseaua Ștefan cel Mare"))
	assert.Equal(t, []string{"stefan", "cel", "mare"}, n.Tokens("Șos. Ștefan cel Mare cel"))
	assert.Equal(t, []string{"unirii"}, n.Tokens("Bd. Unirii 20"))
}

func TestUnitNumber(t *testing.T) {
	tests := map[string]string{
		"ap. 8":           "8",
		"Apartament 12":   "12",
		"Apt 3B":          "3b",
		"#05":             "5",
		"unit 7":          "7",
		"ap. nr. 14":      "14",
		"Bloc 8":          "",
		"Str. Apusului 8": "",
		"ap 0":            "0",
	}
	for input, want := range tests {
		assert.Equal(t, want, UnitNumber(input), input)
	}
}
