package matching

import (
	"github.com/Ramsey-B/fern/pkg/models"
)

// BuildSuggestion folds the ranked candidates for a review-routed label into
// a pending suggestion row. Up to three candidates with a positive score
// fill the slots in rank order; unused slots stay NULL.
func BuildSuggestion(label string, candidates []models.MatchCandidate) *models.ServiceMappingSuggestion {
	suggestion := &models.ServiceMappingSuggestion{
		ProviderServiceLabel: label,
		Status:               models.SuggestionStatusPending,
	}

	slot := 0
	for _, candidate := range candidates {
		if candidate.Score <= 0 {
			continue
		}
		if slot >= MaxSuggestions {
			break
		}

		taxonomyID := candidate.TaxonomyID
		score := candidate.Score

		switch slot {
		case 0:
			suggestion.SuggestedTaxonomyID1 = &taxonomyID
			suggestion.SuggestedScore1 = &score
		case 1:
			suggestion.SuggestedTaxonomyID2 = &taxonomyID
			suggestion.SuggestedScore2 = &score
		case 2:
			suggestion.SuggestedTaxonomyID3 = &taxonomyID
			suggestion.SuggestedScore3 = &score
		}

		slot++
	}

	return suggestion
}
