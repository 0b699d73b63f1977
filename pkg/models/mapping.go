package models

import "time"

// MatchType classifies how a label matched a canonical service
type MatchType string

const (
	MatchTypeExact  MatchType = "exact"  // identical after normalization
	MatchTypeHigh   MatchType = "high"   // substring containment or strong token overlap
	MatchTypeMedium MatchType = "medium" // moderate token overlap
	MatchTypeLow    MatchType = "low"    // weak token overlap
	MatchTypeNone   MatchType = "none"   // no shared tokens
)

// MatchCandidate is one scored taxonomy entry for a label. Transient —
// candidates are ranked, capped and either persisted as a mapping or folded
// into suggestion slots, never stored directly.
type MatchCandidate struct {
	TaxonomyID string    `json:"taxonomy_id"`
	Score      int       `json:"score"` // 0..100
	MatchType  MatchType `json:"match_type"`
}

// ServiceMapping is an accepted label → taxonomy mapping.
// Unique on (provider_service_label, taxonomy_service_id).
type ServiceMapping struct {
	ID                   string    `json:"id" db:"id"`
	ProviderServiceLabel string    `json:"provider_service_label" db:"provider_service_label"`
	TaxonomyServiceID    string    `json:"taxonomy_service_id" db:"taxonomy_service_id"`
	ConfidenceScore      int       `json:"confidence_score" db:"confidence_score"`
	MatchType            MatchType `json:"match_type" db:"match_type"`
	Verified             bool      `json:"verified" db:"verified"`
	CreatedAt            time.Time `json:"created_at" db:"created_at"`
	UpdatedAt            time.Time `json:"updated_at" db:"updated_at"`
}

// SuggestionStatus constants
const (
	SuggestionStatusPending   = "pending"
	SuggestionStatusResolved  = "resolved"
	SuggestionStatusDismissed = "dismissed"
)

// ServiceMappingSuggestion holds the review queue entry for a label that did
// not clear the auto-accept threshold. Unique on provider_service_label; up
// to three ranked candidates, slot 1 is the best.
type ServiceMappingSuggestion struct {
	ID                   string     `json:"id" db:"id"`
	ProviderServiceLabel string     `json:"provider_service_label" db:"provider_service_label"`
	SuggestedTaxonomyID1 *string    `json:"suggested_taxonomy_id_1,omitempty" db:"suggested_taxonomy_id_1"`
	SuggestedScore1      *int       `json:"suggested_score_1,omitempty" db:"suggested_score_1"`
	SuggestedTaxonomyID2 *string    `json:"suggested_taxonomy_id_2,omitempty" db:"suggested_taxonomy_id_2"`
	SuggestedScore2      *int       `json:"suggested_score_2,omitempty" db:"suggested_score_2"`
	SuggestedTaxonomyID3 *string    `json:"suggested_taxonomy_id_3,omitempty" db:"suggested_taxonomy_id_3"`
	SuggestedScore3      *int       `json:"suggested_score_3,omitempty" db:"suggested_score_3"`
	Status               string     `json:"status" db:"status"`
	CreatedAt            time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at" db:"updated_at"`
	ResolvedAt           *time.Time `json:"resolved_at,omitempty" db:"resolved_at"`
	ResolvedBy           *string    `json:"resolved_by,omitempty" db:"resolved_by"`
}

// ResolveSuggestionRequest is the request to resolve a suggestion by picking
// one of its suggested taxonomy services (or any other canonical service).
type ResolveSuggestionRequest struct {
	TaxonomyServiceID string `json:"taxonomy_service_id" validate:"required"`
}
