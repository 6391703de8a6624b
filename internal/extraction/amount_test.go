package extraction

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		input string
		want  string
		ok    bool
	}{
		{"442,38", "442.38", true},
		{"44238", "442.38", true},
		{"442.38", "442.38", true},
		{"1.234,56", "1234.56", true},
		{"1,234.56", "1234.56", true},
		{"1 234,56 lei", "1234.56", true},
		{"Total de plata: 442,38 RON", "442.38", true},
		{"-12,50", "-12.5", true},
		{"442,38 15.05.2024", "442.38", true},
		{"n/a", "0", false},
		{"", "0", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseAmount(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got.String())
		})
	}
}
