package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSummarize(t *testing.T) {
	startedAt := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	completedAt := startedAt.Add(42 * time.Second)

	outcomes := []LabelOutcome{
		{Label: "canalizacao", Decision: DecisionAuto, Score: 100},
		{Label: "ar condicionado split", Decision: DecisionAuto, Score: 92},
		{Label: "jardim", Decision: DecisionReview, Score: 0},
		{Label: "limpeza", Decision: DecisionAuto, Score: 90, Failed: true, Error: "deadlock detected"},
	}

	summary := Summarize(outcomes, startedAt, completedAt)

	assert.Equal(t, 4, summary.TotalLabels)
	assert.Equal(t, 2, summary.AutoAccepted)
	assert.Equal(t, 1, summary.RoutedToReview)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, []string{"limpeza"}, summary.FailedLabels)
	assert.Equal(t, 50.0, summary.AutoMatchRate)
	assert.Equal(t, startedAt, summary.StartedAt)
	assert.Equal(t, completedAt, summary.CompletedAt)
}

func TestSummarize_RateRoundsToOneDecimal(t *testing.T) {
	outcomes := []LabelOutcome{
		{Label: "a", Decision: DecisionAuto},
		{Label: "b", Decision: DecisionAuto},
		{Label: "c", Decision: DecisionReview},
	}

	summary := Summarize(outcomes, time.Now(), time.Now())

	assert.Equal(t, 66.7, summary.AutoMatchRate)
}

func TestSummarize_Empty(t *testing.T) {
	summary := Summarize(nil, time.Now(), time.Now())

	assert.Equal(t, 0, summary.TotalLabels)
	assert.Equal(t, 0.0, summary.AutoMatchRate)
	assert.Empty(t, summary.FailedLabels)
}
