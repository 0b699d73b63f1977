package matching

import (
	"errors"

	"github.com/Ramsey-B/fern/pkg/models"
)

// ErrEmptyCandidateSet is returned when a label is classified against an
// empty candidate list, which only happens when the taxonomy has no active
// services.
var ErrEmptyCandidateSet = errors.New("no candidates to classify against")

// Classification is the routing verdict for a single provider label.
type Classification struct {
	Decision models.Decision
	Best     models.MatchCandidate
}

// Classify routes a label to auto acceptance or human review based on its
// best ranked candidate. Candidates must already be sorted best first.
func Classify(candidates []models.MatchCandidate, autoAcceptThreshold int) (Classification, error) {
	if len(candidates) == 0 {
		return Classification{}, ErrEmptyCandidateSet
	}

	if autoAcceptThreshold <= 0 {
		autoAcceptThreshold = DefaultAutoAcceptThreshold
	}

	best := candidates[0]

	decision := models.DecisionReview
	if best.Score >= autoAcceptThreshold {
		decision = models.DecisionAuto
	}

	return Classification{
		Decision: decision,
		Best:     best,
	}, nil
}
