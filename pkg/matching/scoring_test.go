package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Ramsey-B/fern/pkg/models"
)

func TestScorer_Score(t *testing.T) {
	scorer := NewScorer(DefaultHighThreshold, DefaultMediumThreshold)

	tests := []struct {
		name          string
		label         string
		service       models.CanonicalService
		expectedScore int
		expectedType  models.MatchType
	}{
		{
			name:          "exact match after normalization",
			label:         "canalizacao",
			service:       models.CanonicalService{ID: "tax-1", Service: "Canalização"},
			expectedScore: 100,
			expectedType:  models.MatchTypeExact,
		},
		{
			name:          "containment scales with length ratio",
			label:         "ar condicionado split",
			service:       models.CanonicalService{ID: "tax-2", Service: "Ar Condicionado"},
			expectedScore: 92,
			expectedType:  models.MatchTypeHigh,
		},
		{
			name:          "containment with label shorter than service",
			label:         "pintura",
			service:       models.CanonicalService{ID: "tax-3", Service: "Pintura Residencial"},
			expectedScore: 89,
			expectedType:  models.MatchTypeHigh,
		},
		{
			name:          "token overlap in high band",
			label:         "limpeza de piscina",
			service:       models.CanonicalService{ID: "tax-4", Service: "Limpeza Piscina"},
			expectedScore: 67,
			expectedType:  models.MatchTypeHigh,
		},
		{
			name:          "token overlap in medium band",
			label:         "montagem de moveis planejados",
			service:       models.CanonicalService{ID: "tax-5", Service: "Montagem Moveis"},
			expectedScore: 50,
			expectedType:  models.MatchTypeMedium,
		},
		{
			name:          "token overlap in low band",
			label:         "instalacao de chuveiro eletrico residencial",
			service:       models.CanonicalService{ID: "tax-6", Service: "Instalacao Ar Condicionado"},
			expectedScore: 14,
			expectedType:  models.MatchTypeLow,
		},
		{
			name:          "no shared tokens scores zero",
			label:         "jardim",
			service:       models.CanonicalService{ID: "tax-7", Service: "Jardinagem"},
			expectedScore: 0,
			expectedType:  models.MatchTypeNone,
		},
		{
			name:          "empty label scores zero",
			label:         "",
			service:       models.CanonicalService{ID: "tax-8", Service: "Eletricista"},
			expectedScore: 0,
			expectedType:  models.MatchTypeNone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			candidate := scorer.Score(tt.label, tt.service)

			assert.Equal(t, tt.service.ID, candidate.TaxonomyID)
			assert.Equal(t, tt.expectedScore, candidate.Score)
			assert.Equal(t, tt.expectedType, candidate.MatchType)
		})
	}
}

func TestScorer_Score_ContainmentStaysInBand(t *testing.T) {
	scorer := NewScorer(DefaultHighThreshold, DefaultMediumThreshold)

	// A barely-overlapping containment should still land at the bottom of
	// the containment band, never below it.
	candidate := scorer.Score("gas", models.CanonicalService{
		ID:      "tax-1",
		Service: "Instalacao e Manutencao de Aquecedores a Gas",
	})

	assert.GreaterOrEqual(t, candidate.Score, 85)
	assert.LessOrEqual(t, candidate.Score, 95)
	assert.Equal(t, models.MatchTypeHigh, candidate.MatchType)
}

func TestScorer_RankCandidates(t *testing.T) {
	scorer := NewScorer(DefaultHighThreshold, DefaultMediumThreshold)

	taxonomy := []models.CanonicalService{
		{ID: "tax-electrician", Service: "Eletricista", HistoricalRequestCount: 500},
		{ID: "tax-plumbing", Service: "Canalização", HistoricalRequestCount: 900},
		{ID: "tax-ac", Service: "Ar Condicionado", HistoricalRequestCount: 300},
	}

	candidates := scorer.RankCandidates("canalizacao", taxonomy, MaxSuggestions)

	assert.Len(t, candidates, 3)
	assert.Equal(t, "tax-plumbing", candidates[0].TaxonomyID)
	assert.Equal(t, 100, candidates[0].Score)
}

func TestScorer_RankCandidates_TieBreaks(t *testing.T) {
	scorer := NewScorer(DefaultHighThreshold, DefaultMediumThreshold)

	// Both services score identically against the label, so ranking falls
	// back to historical request count, then the service label.
	taxonomy := []models.CanonicalService{
		{ID: "tax-low-demand", Service: "Limpeza Comercial", HistoricalRequestCount: 10},
		{ID: "tax-high-demand", Service: "Limpeza Residencial", HistoricalRequestCount: 800},
	}

	candidates := scorer.RankCandidates("limpeza", taxonomy, MaxSuggestions)

	assert.Len(t, candidates, 2)
	assert.Equal(t, candidates[0].Score, candidates[1].Score)
	assert.Equal(t, "tax-high-demand", candidates[0].TaxonomyID)

	taxonomy = []models.CanonicalService{
		{ID: "tax-b", Service: "Limpeza Residencial", HistoricalRequestCount: 100},
		{ID: "tax-a", Service: "Limpeza Comercial", HistoricalRequestCount: 100},
	}

	candidates = scorer.RankCandidates("limpeza", taxonomy, MaxSuggestions)

	assert.Equal(t, "tax-a", candidates[0].TaxonomyID)
	assert.Equal(t, "tax-b", candidates[1].TaxonomyID)
}

func TestScorer_RankCandidates_CapsAtLimit(t *testing.T) {
	scorer := NewScorer(DefaultHighThreshold, DefaultMediumThreshold)

	taxonomy := []models.CanonicalService{
		{ID: "tax-1", Service: "Limpeza Residencial"},
		{ID: "tax-2", Service: "Limpeza Comercial"},
		{ID: "tax-3", Service: "Limpeza Pos Obra"},
		{ID: "tax-4", Service: "Limpeza de Piscina"},
		{ID: "tax-5", Service: "Limpeza de Estofados"},
	}

	candidates := scorer.RankCandidates("limpeza", taxonomy, MaxSuggestions)

	assert.Len(t, candidates, MaxSuggestions)
}

func TestScorer_RankCandidates_RetainsZeroScores(t *testing.T) {
	scorer := NewScorer(DefaultHighThreshold, DefaultMediumThreshold)

	taxonomy := []models.CanonicalService{
		{ID: "tax-1", Service: "Jardinagem"},
	}

	candidates := scorer.RankCandidates("jardim", taxonomy, MaxSuggestions)

	assert.Len(t, candidates, 1)
	assert.Equal(t, 0, candidates[0].Score)
	assert.Equal(t, models.MatchTypeNone, candidates[0].MatchType)
}
