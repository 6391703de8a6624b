package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/wekeepgrowing/billsync/internal/domain/entity"
)

func TestRefineUnitByNumber(t *testing.T) {
	m := NewMatcher()
	units := []entity.SubUnit{
		{ID: "u1", Number: "7"},
		{ID: "u2", Name: "Ap. 8"},
		{ID: "u3", Number: "09"},
	}

	unit, ok := m.RefineUnit(propertyAddress, units)
	assert.True(t, ok)
	assert.Equal(t, "u2", unit.ID)
	assert.False(t, unit.Fallback)

	unit, ok = m.RefineUnit("Str. Florilor 3, ap 9", units)
	assert.True(t, ok)
	assert.Equal(t, "u3", unit.ID)

	_, ok = m.RefineUnit(propertyAddress, nil)
	assert.False(t, ok)
}

func TestRefineUnitScoresNamesWithoutNumber(t *testing.T) {
	m := NewMatcher()
	units := []entity.SubUnit{
		{ID: "u1", Name: "Ap. 1 Popescu Ion"},
		{ID: "u2", Name: "Ap. 2 Ionescu Maria"},
	}

	unit, ok := m.RefineUnit("Str. Florilor 3 Ionescu Maria", units)
	assert.True(t, ok)
	assert.Equal(t, "u2", unit.ID)
	assert.Greater(t, unit.Score, MatchThreshold)
	assert.False(t, unit.Fallback)
}

func TestRefineUnitFallsBackToFirstWhenNothingScores(t *testing.T) {
	m := NewMatcher()
	units := []entity.SubUnit{
		{ID: "u1", Name: "Ap. 1 Popescu Ion"},
		{ID: "u2", Name: "Ap. 2 Ionescu Maria"},
	}

	unit, ok := m.RefineUnit("Bd. Unirii 20", units)
	assert.True(t, ok)
	assert.Equal(t, "u1", unit.ID)
	assert.Equal(t, 0, unit.Score)
	assert.True(t, unit.Fallback)
}
