package matching

import (
	"math"
	"sort"
	"strings"

	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/normalizers"
)

const (
	// DefaultAutoAcceptThreshold is the minimum composite score at which a
	// label is mapped without human review.
	DefaultAutoAcceptThreshold = 85

	// DefaultHighThreshold and DefaultMediumThreshold bound the token
	// overlap bands. Scores at or above high are "high" matches, scores in
	// [medium, high) are "medium", anything below that but above zero is
	// "low".
	DefaultHighThreshold   = 60
	DefaultMediumThreshold = 40

	containmentBase = 85
	containmentSpan = 10

	// MaxSuggestions caps how many ranked candidates are carried into a
	// review suggestion.
	MaxSuggestions = 3
)

// Scorer computes composite similarity scores between normalized provider
// labels and canonical taxonomy services.
type Scorer struct {
	highThreshold   int
	mediumThreshold int
}

func NewScorer(highThreshold, mediumThreshold int) *Scorer {
	if highThreshold <= 0 {
		highThreshold = DefaultHighThreshold
	}
	if mediumThreshold <= 0 {
		mediumThreshold = DefaultMediumThreshold
	}

	return &Scorer{
		highThreshold:   highThreshold,
		mediumThreshold: mediumThreshold,
	}
}

// Score compares a normalized provider label against a single canonical
// service and returns the candidate with its composite score and band.
// The canonical service label goes through the same normalization as the
// provider label so that the comparison is symmetric.
func (s *Scorer) Score(normalizedLabel string, service models.CanonicalService) models.MatchCandidate {
	normService := normalizers.NormalizeServiceLabel(service.Service)

	candidate := models.MatchCandidate{
		TaxonomyID: service.ID,
	}

	if normalizedLabel == "" || normService == "" {
		candidate.MatchType = models.MatchTypeNone
		return candidate
	}

	if normalizedLabel == normService {
		candidate.Score = 100
		candidate.MatchType = models.MatchTypeExact
		return candidate
	}

	if score, ok := containmentScore(normalizedLabel, normService); ok {
		candidate.Score = score
		candidate.MatchType = models.MatchTypeHigh
		return candidate
	}

	candidate.Score = tokenOverlapScore(normalizedLabel, normService)
	candidate.MatchType = s.bandFor(candidate.Score)

	return candidate
}

func (s *Scorer) bandFor(score int) models.MatchType {
	switch {
	case score >= s.highThreshold:
		return models.MatchTypeHigh
	case score >= s.mediumThreshold:
		return models.MatchTypeMedium
	case score > 0:
		return models.MatchTypeLow
	default:
		return models.MatchTypeNone
	}
}

// containmentScore handles the case where the shorter of the two strings is
// wholly contained in the longer one. The score scales with how much of the
// longer string the shorter one covers, landing in [85, 95].
func containmentScore(a, b string) (int, bool) {
	shorter, longer := a, b
	if len([]rune(shorter)) > len([]rune(longer)) {
		shorter, longer = longer, shorter
	}

	if !strings.Contains(longer, shorter) {
		return 0, false
	}

	ratio := float64(len([]rune(shorter))) / float64(len([]rune(longer)))

	return containmentBase + int(math.Round(ratio*containmentSpan)), true
}

// tokenOverlapScore is the Jaccard similarity of the two token sets scaled
// to 0-100. Tokens are the space separated words of the normalized strings.
func tokenOverlapScore(a, b string) int {
	setA := tokenSet(a)
	setB := tokenSet(b)

	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}

	intersection := 0
	for token := range setA {
		if _, ok := setB[token]; ok {
			intersection++
		}
	}

	union := len(setA) + len(setB) - intersection
	if union == 0 {
		return 0
	}

	return int(math.Round(float64(intersection) / float64(union) * 100))
}

func tokenSet(s string) map[string]struct{} {
	set := map[string]struct{}{}
	for _, token := range strings.Fields(s) {
		set[token] = struct{}{}
	}

	return set
}

type rankedCandidate struct {
	candidate    models.MatchCandidate
	requestCount int
	service      string
}

// RankCandidates scores a normalized label against every canonical service
// and returns the top candidates in deterministic order: score descending,
// then historical request count descending, then service label ascending.
// Zero score candidates are retained so that a label with no overlap at all
// still carries a best candidate into classification.
func (s *Scorer) RankCandidates(normalizedLabel string, taxonomy []models.CanonicalService, limit int) []models.MatchCandidate {
	if limit <= 0 {
		limit = MaxSuggestions
	}

	ranked := make([]rankedCandidate, 0, len(taxonomy))
	for _, service := range taxonomy {
		ranked = append(ranked, rankedCandidate{
			candidate:    s.Score(normalizedLabel, service),
			requestCount: service.HistoricalRequestCount,
			service:      service.Service,
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].candidate.Score != ranked[j].candidate.Score {
			return ranked[i].candidate.Score > ranked[j].candidate.Score
		}
		if ranked[i].requestCount != ranked[j].requestCount {
			return ranked[i].requestCount > ranked[j].requestCount
		}

		return ranked[i].service < ranked[j].service
	})

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	candidates := make([]models.MatchCandidate, 0, len(ranked))
	for _, r := range ranked {
		candidates = append(candidates, r.candidate)
	}

	return candidates
}
