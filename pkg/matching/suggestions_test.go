package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/fern/pkg/models"
)

func TestBuildSuggestion(t *testing.T) {
	candidates := []models.MatchCandidate{
		{TaxonomyID: "tax-1", Score: 70, MatchType: models.MatchTypeHigh},
		{TaxonomyID: "tax-2", Score: 55, MatchType: models.MatchTypeMedium},
		{TaxonomyID: "tax-3", Score: 42, MatchType: models.MatchTypeMedium},
	}

	suggestion := BuildSuggestion("limpeza de piscina", candidates)

	assert.Equal(t, "limpeza de piscina", suggestion.ProviderServiceLabel)
	assert.Equal(t, models.SuggestionStatusPending, suggestion.Status)

	require.NotNil(t, suggestion.SuggestedTaxonomyID1)
	assert.Equal(t, "tax-1", *suggestion.SuggestedTaxonomyID1)
	require.NotNil(t, suggestion.SuggestedScore1)
	assert.Equal(t, 70, *suggestion.SuggestedScore1)

	require.NotNil(t, suggestion.SuggestedTaxonomyID2)
	assert.Equal(t, "tax-2", *suggestion.SuggestedTaxonomyID2)

	require.NotNil(t, suggestion.SuggestedTaxonomyID3)
	assert.Equal(t, "tax-3", *suggestion.SuggestedTaxonomyID3)
}

func TestBuildSuggestion_PadsMissingSlots(t *testing.T) {
	candidates := []models.MatchCandidate{
		{TaxonomyID: "tax-1", Score: 48, MatchType: models.MatchTypeMedium},
	}

	suggestion := BuildSuggestion("montagem de moveis", candidates)

	require.NotNil(t, suggestion.SuggestedTaxonomyID1)
	assert.Nil(t, suggestion.SuggestedTaxonomyID2)
	assert.Nil(t, suggestion.SuggestedScore2)
	assert.Nil(t, suggestion.SuggestedTaxonomyID3)
	assert.Nil(t, suggestion.SuggestedScore3)
}

func TestBuildSuggestion_SkipsZeroScoreCandidates(t *testing.T) {
	candidates := []models.MatchCandidate{
		{TaxonomyID: "tax-1", Score: 0, MatchType: models.MatchTypeNone},
		{TaxonomyID: "tax-2", Score: 0, MatchType: models.MatchTypeNone},
	}

	suggestion := BuildSuggestion("jardim", candidates)

	assert.Equal(t, models.SuggestionStatusPending, suggestion.Status)
	assert.Nil(t, suggestion.SuggestedTaxonomyID1)
	assert.Nil(t, suggestion.SuggestedScore1)
}

func TestBuildSuggestion_CapsAtThreeSlots(t *testing.T) {
	candidates := []models.MatchCandidate{
		{TaxonomyID: "tax-1", Score: 80},
		{TaxonomyID: "tax-2", Score: 75},
		{TaxonomyID: "tax-3", Score: 60},
		{TaxonomyID: "tax-4", Score: 50},
	}

	suggestion := BuildSuggestion("limpeza", candidates)

	require.NotNil(t, suggestion.SuggestedTaxonomyID3)
	assert.Equal(t, "tax-3", *suggestion.SuggestedTaxonomyID3)
}
