package extraction

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wekeepgrowing/billsync/internal/domain/supplier"
	"github.com/wekeepgrowing/billsync/internal/matching"
	"go.uber.org/zap"
)

func TestExtractAssociationsHTML(t *testing.T) {
	page := `<select id="asoc">
  <option value="">-- alege --</option>
  <option value="A12">Asociatia Bloc 12, Str. Florilor 3</option>
  <option value="B7">Asociatia Bloc B7, Bd. Unirii 20</option>
</select>`

	list := &supplier.ListConfig{
		ItemSelector: "#asoc option",
		Address:      &supplier.FieldRule{Pattern: `,\s*(.+)$`},
	}

	candidates, err := NewExtractor(nil, zap.NewNop()).ExtractAssociations([]byte(page), list)
	require.NoError(t, err)
	require.Len(t, candidates, 2)
	assert.Equal(t, "A12", candidates[0].ID)
	assert.Equal(t, "Asociatia Bloc 12, Str. Florilor 3", candidates[0].Name)
	assert.Equal(t, "Str. Florilor 3", candidates[0].Address)
	assert.Equal(t, "B7", candidates[1].ID)
}

func TestExtractUnitsJSON(t *testing.T) {
	body := `{"units":[{"id":"u1","label":"Ap. 8"},{"id":"u2","label":"Ap. 9","no":"9"}]}`
	list := &supplier.ListConfig{
		Format:    supplier.FormatJSON,
		ItemsPath: "units",
		Name:      &supplier.FieldRule{Path: "label"},
		Number:    &supplier.FieldRule{Path: "no"},
	}

	units, err := NewExtractor(nil, zap.NewNop()).ExtractUnits([]byte(body), list, "A12")
	require.NoError(t, err)
	require.Len(t, units, 2)
	assert.Equal(t, "8", units[0].Number)
	assert.Equal(t, "A12", units[0].AssociationID)
	assert.Equal(t, "9", units[1].Number)
}

func TestExtractedUnitsRefineByOccupantName(t *testing.T) {
	page := `<ul id="ap">
  <li data-id="u1">Ap. 1 Popescu Ion</li>
  <li data-id="u2">Ap. 2 Ionescu Maria</li>
</ul>`
	list := &supplier.ListConfig{ItemSelector: "#ap li"}

	units, err := NewExtractor(nil, zap.NewNop()).ExtractUnits([]byte(page), list, "A12")
	require.NoError(t, err)
	require.Len(t, units, 2)
	for _, u := range units {
		assert.Zero(t, u.Score)
	}

	unit, ok := matching.NewMatcher().RefineUnit("Str. Florilor 3 Ionescu Maria", units)
	require.True(t, ok)
	assert.Equal(t, "u2", unit.ID)
	assert.False(t, unit.Fallback)
}
