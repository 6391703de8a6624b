package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wekeepgrowing/billsync/internal/domain/entity"
)

const propertyAddress = "Str. Florilor nr. 3, bl. A2, ap. 8, Sector 4"

func candidates() []entity.AssociationCandidate {
	return []entity.AssociationCandidate{
		{ID: "B1", Name: "Asociatia Bloc C4", Address: "Bd. Unirii 20"},
		{ID: "C1", Name: "Florilor Residence"},
		{ID: "A1", Name: "Asociația de proprietari Bloc A2", Address: "Str. Florilor 3"},
	}
}

func TestMatchScoresAndOrders(t *testing.T) {
	m := NewMatcher()

	result := m.Match(propertyAddress, candidates())
	require.Len(t, result, 2)

	assert.Equal(t, "A1", result[0].ID)
	assert.Equal(t, TokenWeight+StreetWeight+HouseNumberWeight+BlockQueryWeight, result[0].Score)
	assert.False(t, result[0].Fallback)

	assert.Equal(t, "C1", result[1].ID)
	assert.Equal(t, TokenWeight+StreetWeight, result[1].Score)
}

func TestMatchIsDeterministic(t *testing.T) {
	m := NewMatcher()
	first := m.Match(propertyAddress, candidates())
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, m.Match(propertyAddress, candidates()))
	}
}

func TestMatchStableTies(t *testing.T) {
	m := NewMatcher()
	tied := []entity.AssociationCandidate{
		{ID: "first", Name: "Florilor Nord"},
		{ID: "second", Name: "Florilor Sud"},
	}
	result := m.Match("Florilor", tied)
	require.Len(t, result, 2)
	assert.Equal(t, result[0].Score, result[1].Score)
	assert.Equal(t, "first", result[0].ID)
	assert.Equal(t, "second", result[1].ID)
}

func TestMatchFallsBackToAllCandidates(t *testing.T) {
	m := NewMatcher()
	input := candidates()

	result := m.Match("Something else entirely", input)
	require.Len(t, result, len(input))
	for i, c := range result {
		assert.Equal(t, input[i].ID, c.ID)
		assert.Equal(t, 0, c.Score)
		assert.True(t, c.Fallback)
	}

	assert.Nil(t, m.Match(propertyAddress, nil))
}

func TestMatchThresholdIsExclusive(t *testing.T) {
	m := NewMatcher()
	only := []entity.AssociationCandidate{{ID: "B1", Name: "Asociatia Bloc C4", Address: "Bd. Unirii 20"}}

	assert.Equal(t, HouseNumberWeight, m.Score("nr 20", only[0]))
	result := m.Match("nr 20", only)
	require.Len(t, result, 1)
	assert.True(t, result[0].Fallback)
}

func TestScoreComponents(t *testing.T) {
	m := NewMatcher()

	// block code of the query found in the candidate name
	assert.Equal(t, BlockNameWeight, m.Score("bloc C4", entity.AssociationCandidate{Name: "Asociatia C4 Unirii"}))

	// abbreviated token still matches
	assert.Equal(t, TokenWeight+StreetWeight+RawSubstrWeight, m.Score("Trandafir", entity.AssociationCandidate{Name: "Trandafirilor"}))

	// only stop words: nothing but the raw substring counts
	assert.Equal(t, RawSubstrWeight, m.Score("Str.", entity.AssociationCandidate{Name: "str"}))
}

func TestExtraStopWords(t *testing.T) {
	m := NewMatcher("residence")
	assert.Equal(t, []string{"florilor"}, m.normalizer.Tokens("Florilor Residence"))
}
