// Package pipeline orchestrates a full mapping run: load providers and
// taxonomy, aggregate labels, score and classify each one, and persist the
// resulting mappings and review suggestions.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/fern/pkg/matching"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// ErrDataSourceUnavailable aborts a run before any matching happens: if the
// provider list or the taxonomy cannot be read there is nothing to map.
var ErrDataSourceUnavailable = errors.New("pipeline data source unavailable")

// ErrRunInProgress is returned when a run is requested while another one is
// still executing. Runs are serialized so concurrent triggers from the API
// and the Kafka consumer cannot interleave writes.
var ErrRunInProgress = errors.New("a pipeline run is already in progress")

// ProviderSource supplies the providers whose service lists get mapped.
type ProviderSource interface {
	List(ctx context.Context) ([]models.Provider, error)
}

// TaxonomySource supplies the canonical services to match against.
type TaxonomySource interface {
	ListActive(ctx context.Context) ([]models.CanonicalService, error)
}

// MappingStore persists auto accepted mappings.
type MappingStore interface {
	UpsertBatch(ctx context.Context, mappings []*models.ServiceMapping) error
}

// SuggestionStore persists review suggestions.
type SuggestionStore interface {
	UpsertBatch(ctx context.Context, suggestions []*models.ServiceMappingSuggestion) error
}

// EventEmitter publishes mapping lifecycle events. Emission failures are
// logged but never fail a run.
type EventEmitter interface {
	EmitMappingCreated(ctx context.Context, mapping *models.ServiceMapping) error
	EmitSuggestionCreated(ctx context.Context, suggestion *models.ServiceMappingSuggestion) error
	EmitRunCompleted(ctx context.Context, summary *models.RunSummary) error
}

// Config holds the tunable knobs of a pipeline run.
type Config struct {
	AutoAcceptThreshold int
	ChunkSize           int
	WriteTimeout        time.Duration
	MaxSuggestions      int
}

func (c Config) withDefaults() Config {
	if c.AutoAcceptThreshold <= 0 {
		c.AutoAcceptThreshold = matching.DefaultAutoAcceptThreshold
	}
	if c.ChunkSize <= 0 {
		c.ChunkSize = 100
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = 30 * time.Second
	}
	if c.MaxSuggestions <= 0 {
		c.MaxSuggestions = matching.MaxSuggestions
	}
	return c
}

// Runner executes mapping runs. A Runner is safe for concurrent use; runs
// themselves are serialized.
type Runner struct {
	logger      ectologger.Logger
	providers   ProviderSource
	taxonomy    TaxonomySource
	mappings    MappingStore
	suggestions SuggestionStore
	emitter     EventEmitter
	scorer      *matching.Scorer
	cfg         Config

	mu      sync.Mutex
	running bool
}

// NewRunner creates a new pipeline runner
func NewRunner(
	logger ectologger.Logger,
	providers ProviderSource,
	taxonomy TaxonomySource,
	mappings MappingStore,
	suggestions SuggestionStore,
	emitter EventEmitter,
	scorer *matching.Scorer,
	cfg Config,
) *Runner {
	return &Runner{
		logger:      logger,
		providers:   providers,
		taxonomy:    taxonomy,
		mappings:    mappings,
		suggestions: suggestions,
		emitter:     emitter,
		scorer:      scorer,
		cfg:         cfg.withDefaults(),
	}
}

// Run executes a full mapping run and returns its summary. The returned
// error is non-nil only when the run could not start at all; per-label
// failures and partial write failures are reported through the summary.
func (r *Runner) Run(ctx context.Context) (*models.RunSummary, error) {
	ctx, span := tracing.StartSpan(ctx, "pipeline.Runner.Run")
	defer span.End()

	if !r.tryAcquire() {
		return nil, ErrRunInProgress
	}
	defer r.release()

	startedAt := time.Now().UTC()
	log := r.logger.WithContext(ctx)

	providers, err := r.providers.List(ctx)
	if err != nil {
		log.WithError(err).Error("Failed to load providers")
		return nil, fmt.Errorf("%w: providers: %v", ErrDataSourceUnavailable, err)
	}

	taxonomy, err := r.taxonomy.ListActive(ctx)
	if err != nil {
		log.WithError(err).Error("Failed to load taxonomy")
		return nil, fmt.Errorf("%w: taxonomy: %v", ErrDataSourceUnavailable, err)
	}

	groups := matching.SortedGroups(matching.AggregateProviders(providers))

	log.WithFields(map[string]any{
		"providers":     len(providers),
		"taxonomy":      len(taxonomy),
		"unique_labels": len(groups),
	}).Info("Pipeline run started")

	outcomes := make([]models.LabelOutcome, 0, len(groups))

	var pendingMappings []*models.ServiceMapping
	var mappingOutcomes []int // outcome index per pending mapping
	var pendingSuggestions []*models.ServiceMappingSuggestion
	var suggestionOutcomes []int

	for _, group := range groups {
		candidates := r.scorer.RankCandidates(group.Label, taxonomy, r.cfg.MaxSuggestions)

		classification, err := matching.Classify(candidates, r.cfg.AutoAcceptThreshold)
		if err != nil {
			outcomes = append(outcomes, models.LabelOutcome{
				Label:         group.Label,
				ProviderCount: group.ProviderCount(),
				Failed:        true,
				Error:         err.Error(),
			})
			continue
		}

		outcome := models.LabelOutcome{
			Label:         group.Label,
			Decision:      classification.Decision,
			Score:         classification.Best.Score,
			ProviderCount: group.ProviderCount(),
		}

		if classification.Decision == models.DecisionAuto {
			outcome.TaxonomyServiceID = classification.Best.TaxonomyID
			pendingMappings = append(pendingMappings, &models.ServiceMapping{
				ProviderServiceLabel: group.Label,
				TaxonomyServiceID:    classification.Best.TaxonomyID,
				ConfidenceScore:      classification.Best.Score,
				MatchType:            classification.Best.MatchType,
				Verified:             classification.Best.Score == 100,
			})
			mappingOutcomes = append(mappingOutcomes, len(outcomes))
		} else {
			pendingSuggestions = append(pendingSuggestions, matching.BuildSuggestion(group.Label, candidates))
			suggestionOutcomes = append(suggestionOutcomes, len(outcomes))
		}

		outcomes = append(outcomes, outcome)
	}

	r.persistMappings(ctx, pendingMappings, mappingOutcomes, outcomes)
	r.persistSuggestions(ctx, pendingSuggestions, suggestionOutcomes, outcomes)

	summary := models.Summarize(outcomes, startedAt, time.Now().UTC())

	if r.emitter != nil {
		if err := r.emitter.EmitRunCompleted(ctx, &summary); err != nil {
			log.WithError(err).Warn("Failed to emit run.completed event")
		}
	}

	log.WithFields(map[string]any{
		"total_labels":     summary.TotalLabels,
		"auto_accepted":    summary.AutoAccepted,
		"routed_to_review": summary.RoutedToReview,
		"failed":           summary.Failed,
		"auto_match_rate":  summary.AutoMatchRate,
	}).Info("Pipeline run completed")

	return &summary, nil
}

func (r *Runner) tryAcquire() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return false
	}
	r.running = true
	return true
}

func (r *Runner) release() {
	r.mu.Lock()
	r.running = false
	r.mu.Unlock()
}

// persistMappings writes mappings in chunks. A failed chunk marks its labels
// failed and the run moves on to the next chunk.
func (r *Runner) persistMappings(ctx context.Context, mappings []*models.ServiceMapping, indexes []int, outcomes []models.LabelOutcome) {
	ctx, span := tracing.StartSpan(ctx, "pipeline.Runner.persistMappings")
	defer span.End()

	for start := 0; start < len(mappings); start += r.cfg.ChunkSize {
		end := start + r.cfg.ChunkSize
		if end > len(mappings) {
			end = len(mappings)
		}

		chunk := mappings[start:end]
		writeCtx, cancel := context.WithTimeout(ctx, r.cfg.WriteTimeout)
		err := r.mappings.UpsertBatch(writeCtx, chunk)
		cancel()

		if err != nil {
			r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
				"chunk_start": start,
				"chunk_size":  len(chunk),
			}).Error("Failed to persist mappings chunk")

			for i := start; i < end; i++ {
				outcomes[indexes[i]].Failed = true
				outcomes[indexes[i]].Error = err.Error()
			}
			continue
		}

		if r.emitter != nil {
			for _, mapping := range chunk {
				if err := r.emitter.EmitMappingCreated(ctx, mapping); err != nil {
					r.logger.WithContext(ctx).WithError(err).Warn("Failed to emit mapping.created event")
				}
			}
		}
	}
}

// persistSuggestions mirrors persistMappings for review suggestions.
func (r *Runner) persistSuggestions(ctx context.Context, suggestions []*models.ServiceMappingSuggestion, indexes []int, outcomes []models.LabelOutcome) {
	ctx, span := tracing.StartSpan(ctx, "pipeline.Runner.persistSuggestions")
	defer span.End()

	for start := 0; start < len(suggestions); start += r.cfg.ChunkSize {
		end := start + r.cfg.ChunkSize
		if end > len(suggestions) {
			end = len(suggestions)
		}

		chunk := suggestions[start:end]
		writeCtx, cancel := context.WithTimeout(ctx, r.cfg.WriteTimeout)
		err := r.suggestions.UpsertBatch(writeCtx, chunk)
		cancel()

		if err != nil {
			r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
				"chunk_start": start,
				"chunk_size":  len(chunk),
			}).Error("Failed to persist suggestions chunk")

			for i := start; i < end; i++ {
				outcomes[indexes[i]].Failed = true
				outcomes[indexes[i]].Error = err.Error()
			}
			continue
		}

		if r.emitter != nil {
			for _, suggestion := range chunk {
				if err := r.emitter.EmitSuggestionCreated(ctx, suggestion); err != nil {
					r.logger.WithContext(ctx).WithError(err).Warn("Failed to emit suggestion.created event")
				}
			}
		}
	}
}
