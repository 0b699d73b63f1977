package models

import (
	"math"
	"time"
)

// Decision is the classifier verdict for one label
type Decision string

const (
	DecisionAuto   Decision = "auto"   // persist mapping without review
	DecisionReview Decision = "review" // queue suggestion for manual review
)

// LabelOutcome is the immutable per-label result of one pipeline run.
// Exactly one of the three states holds: auto-accepted, routed to review,
// or failed.
type LabelOutcome struct {
	Label             string   `json:"label"`
	Decision          Decision `json:"decision"`
	Score             int      `json:"score"`
	TaxonomyServiceID string   `json:"taxonomy_service_id,omitempty"`
	ProviderCount     int      `json:"provider_count"`
	Failed            bool     `json:"failed"`
	Error             string   `json:"error,omitempty"`
}

// RunSummary is the structured result of a pipeline run.
type RunSummary struct {
	TotalLabels    int       `json:"total_labels"`
	AutoAccepted   int       `json:"auto_accepted"`
	RoutedToReview int       `json:"routed_to_review"`
	Failed         int       `json:"failed"`
	AutoMatchRate  float64   `json:"auto_match_rate"` // percent, one decimal
	FailedLabels   []string  `json:"failed_labels,omitempty"`
	StartedAt      time.Time `json:"started_at"`
	CompletedAt    time.Time `json:"completed_at"`
}

// Summarize folds per-label outcomes into a run summary.
func Summarize(outcomes []LabelOutcome, startedAt, completedAt time.Time) RunSummary {
	summary := RunSummary{
		TotalLabels: len(outcomes),
		StartedAt:   startedAt,
		CompletedAt: completedAt,
	}

	for _, outcome := range outcomes {
		switch {
		case outcome.Failed:
			summary.Failed++
			summary.FailedLabels = append(summary.FailedLabels, outcome.Label)
		case outcome.Decision == DecisionAuto:
			summary.AutoAccepted++
		default:
			summary.RoutedToReview++
		}
	}

	if summary.TotalLabels > 0 {
		rate := float64(summary.AutoAccepted) / float64(summary.TotalLabels) * 100
		summary.AutoMatchRate = math.Round(rate*10) / 10
	}

	return summary
}
