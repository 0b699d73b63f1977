package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/fern/pkg/models"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name             string
		candidates       []models.MatchCandidate
		threshold        int
		expectedDecision models.Decision
	}{
		{
			name: "score at threshold is auto accepted",
			candidates: []models.MatchCandidate{
				{TaxonomyID: "tax-1", Score: 85, MatchType: models.MatchTypeHigh},
			},
			threshold:        85,
			expectedDecision: models.DecisionAuto,
		},
		{
			name: "score one below threshold goes to review",
			candidates: []models.MatchCandidate{
				{TaxonomyID: "tax-1", Score: 84, MatchType: models.MatchTypeHigh},
			},
			threshold:        85,
			expectedDecision: models.DecisionReview,
		},
		{
			name: "exact match is auto accepted",
			candidates: []models.MatchCandidate{
				{TaxonomyID: "tax-1", Score: 100, MatchType: models.MatchTypeExact},
			},
			threshold:        85,
			expectedDecision: models.DecisionAuto,
		},
		{
			name: "zero score best goes to review",
			candidates: []models.MatchCandidate{
				{TaxonomyID: "tax-1", Score: 0, MatchType: models.MatchTypeNone},
			},
			threshold:        85,
			expectedDecision: models.DecisionReview,
		},
		{
			name: "unset threshold falls back to the default",
			candidates: []models.MatchCandidate{
				{TaxonomyID: "tax-1", Score: 90, MatchType: models.MatchTypeHigh},
			},
			threshold:        0,
			expectedDecision: models.DecisionAuto,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			classification, err := Classify(tt.candidates, tt.threshold)

			require.NoError(t, err)
			assert.Equal(t, tt.expectedDecision, classification.Decision)
			assert.Equal(t, tt.candidates[0], classification.Best)
		})
	}
}

func TestClassify_EmptyCandidates(t *testing.T) {
	_, err := Classify(nil, DefaultAutoAcceptThreshold)

	assert.ErrorIs(t, err, ErrEmptyCandidateSet)
}
