package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/fern/pkg/logging"
	"github.com/Ramsey-B/fern/pkg/matching"
	"github.com/Ramsey-B/fern/pkg/models"
)

type fakeProviderSource struct {
	providers []models.Provider
	err       error
}

func (f *fakeProviderSource) List(ctx context.Context) ([]models.Provider, error) {
	return f.providers, f.err
}

type fakeTaxonomySource struct {
	services []models.CanonicalService
	err      error
}

func (f *fakeTaxonomySource) ListActive(ctx context.Context) ([]models.CanonicalService, error) {
	return f.services, f.err
}

type fakeMappingStore struct {
	batches [][]*models.ServiceMapping
	err     error
}

func (f *fakeMappingStore) UpsertBatch(ctx context.Context, mappings []*models.ServiceMapping) error {
	if f.err != nil {
		return f.err
	}
	f.batches = append(f.batches, mappings)
	return nil
}

func (f *fakeMappingStore) all() []*models.ServiceMapping {
	var out []*models.ServiceMapping
	for _, batch := range f.batches {
		out = append(out, batch...)
	}
	return out
}

type fakeSuggestionStore struct {
	batches [][]*models.ServiceMappingSuggestion
	err     error
}

func (f *fakeSuggestionStore) UpsertBatch(ctx context.Context, suggestions []*models.ServiceMappingSuggestion) error {
	if f.err != nil {
		return f.err
	}
	f.batches = append(f.batches, suggestions)
	return nil
}

func (f *fakeSuggestionStore) all() []*models.ServiceMappingSuggestion {
	var out []*models.ServiceMappingSuggestion
	for _, batch := range f.batches {
		out = append(out, batch...)
	}
	return out
}

type fakeEmitter struct {
	mappingEvents    int
	suggestionEvents int
	summaries        []*models.RunSummary
}

func (f *fakeEmitter) EmitMappingCreated(ctx context.Context, mapping *models.ServiceMapping) error {
	f.mappingEvents++
	return nil
}

func (f *fakeEmitter) EmitSuggestionCreated(ctx context.Context, suggestion *models.ServiceMappingSuggestion) error {
	f.suggestionEvents++
	return nil
}

func (f *fakeEmitter) EmitRunCompleted(ctx context.Context, summary *models.RunSummary) error {
	f.summaries = append(f.summaries, summary)
	return nil
}

func testTaxonomy() []models.CanonicalService {
	return []models.CanonicalService{
		{ID: "tax-plumbing", Category: "Encanamento", Service: "Canalização", HistoricalRequestCount: 900},
		{ID: "tax-ac", Category: "Climatização", Service: "Ar Condicionado", HistoricalRequestCount: 600},
		{ID: "tax-gardening", Category: "Jardinagem", Service: "Jardinagem", HistoricalRequestCount: 300},
	}
}

func newTestRunner(providers *fakeProviderSource, taxonomy *fakeTaxonomySource, mappings *fakeMappingStore, suggestions *fakeSuggestionStore, emitter *fakeEmitter, cfg Config) *Runner {
	scorer := matching.NewScorer(matching.DefaultHighThreshold, matching.DefaultMediumThreshold)
	// Pass a true nil interface when no emitter is supplied; a typed nil
	// *fakeEmitter would defeat the runner's emitter != nil guard.
	var e EventEmitter
	if emitter != nil {
		e = emitter
	}
	return NewRunner(logging.NewNop(), providers, taxonomy, mappings, suggestions, e, scorer, cfg)
}

func TestRunner_Run(t *testing.T) {
	providers := &fakeProviderSource{
		providers: []models.Provider{
			{ID: "prov-1", Services: json.RawMessage(`["Canalização", "Ar Condicionado Split"]`)},
			{ID: "prov-2", Services: json.RawMessage(`["canalizacao", "Jardim"]`)},
		},
	}
	taxonomy := &fakeTaxonomySource{services: testTaxonomy()}
	mappings := &fakeMappingStore{}
	suggestions := &fakeSuggestionStore{}
	emitter := &fakeEmitter{}

	runner := newTestRunner(providers, taxonomy, mappings, suggestions, emitter, Config{})

	summary, err := runner.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 3, summary.TotalLabels)
	assert.Equal(t, 2, summary.AutoAccepted)
	assert.Equal(t, 1, summary.RoutedToReview)
	assert.Equal(t, 0, summary.Failed)
	assert.Equal(t, 66.7, summary.AutoMatchRate)

	persisted := mappings.all()
	require.Len(t, persisted, 2)

	byLabel := map[string]*models.ServiceMapping{}
	for _, m := range persisted {
		byLabel[m.ProviderServiceLabel] = m
	}

	exact, ok := byLabel["canalizacao"]
	require.True(t, ok)
	assert.Equal(t, "tax-plumbing", exact.TaxonomyServiceID)
	assert.Equal(t, 100, exact.ConfidenceScore)
	assert.Equal(t, models.MatchTypeExact, exact.MatchType)
	assert.True(t, exact.Verified)

	contained, ok := byLabel["ar condicionado split"]
	require.True(t, ok)
	assert.Equal(t, "tax-ac", contained.TaxonomyServiceID)
	assert.Equal(t, 92, contained.ConfidenceScore)
	assert.False(t, contained.Verified)

	queued := suggestions.all()
	require.Len(t, queued, 1)
	assert.Equal(t, "jardim", queued[0].ProviderServiceLabel)
	assert.Equal(t, models.SuggestionStatusPending, queued[0].Status)
	assert.Nil(t, queued[0].SuggestedTaxonomyID1)

	assert.Equal(t, 2, emitter.mappingEvents)
	assert.Equal(t, 1, emitter.suggestionEvents)
	require.Len(t, emitter.summaries, 1)
}

func TestRunner_Run_ProvidersUnavailable(t *testing.T) {
	providers := &fakeProviderSource{err: errors.New("connection refused")}
	taxonomy := &fakeTaxonomySource{services: testTaxonomy()}

	runner := newTestRunner(providers, taxonomy, &fakeMappingStore{}, &fakeSuggestionStore{}, nil, Config{})

	_, err := runner.Run(context.Background())

	assert.ErrorIs(t, err, ErrDataSourceUnavailable)
}

func TestRunner_Run_TaxonomyUnavailable(t *testing.T) {
	providers := &fakeProviderSource{
		providers: []models.Provider{{ID: "prov-1", Services: json.RawMessage(`["Pintura"]`)}},
	}
	taxonomy := &fakeTaxonomySource{err: errors.New("connection refused")}

	runner := newTestRunner(providers, taxonomy, &fakeMappingStore{}, &fakeSuggestionStore{}, nil, Config{})

	_, err := runner.Run(context.Background())

	assert.ErrorIs(t, err, ErrDataSourceUnavailable)
}

func TestRunner_Run_EmptyTaxonomyFailsLabels(t *testing.T) {
	providers := &fakeProviderSource{
		providers: []models.Provider{
			{ID: "prov-1", Services: json.RawMessage(`["Pintura", "Eletricista"]`)},
		},
	}
	taxonomy := &fakeTaxonomySource{services: nil}
	mappings := &fakeMappingStore{}
	suggestions := &fakeSuggestionStore{}

	runner := newTestRunner(providers, taxonomy, mappings, suggestions, nil, Config{})

	summary, err := runner.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, summary.TotalLabels)
	assert.Equal(t, 2, summary.Failed)
	assert.Len(t, summary.FailedLabels, 2)
	assert.Empty(t, mappings.all())
	assert.Empty(t, suggestions.all())
}

func TestRunner_Run_ChunksWrites(t *testing.T) {
	services := make([]models.CanonicalService, 0, 5)
	providerLabels := make([]string, 0, 5)
	for i := 0; i < 5; i++ {
		name := fmt.Sprintf("Servico Unico %d", i)
		services = append(services, models.CanonicalService{ID: fmt.Sprintf("tax-%d", i), Service: name})
		providerLabels = append(providerLabels, name)
	}

	labelJSON, err := json.Marshal(providerLabels)
	require.NoError(t, err)

	providers := &fakeProviderSource{
		providers: []models.Provider{{ID: "prov-1", Services: labelJSON}},
	}
	taxonomy := &fakeTaxonomySource{services: services}
	mappings := &fakeMappingStore{}

	runner := newTestRunner(providers, taxonomy, mappings, &fakeSuggestionStore{}, nil, Config{ChunkSize: 2})

	summary, runErr := runner.Run(context.Background())

	require.NoError(t, runErr)
	assert.Equal(t, 5, summary.AutoAccepted)
	assert.Len(t, mappings.batches, 3)
	assert.Len(t, mappings.all(), 5)
}

func TestRunner_Run_PersistenceFailureCountsLabels(t *testing.T) {
	providers := &fakeProviderSource{
		providers: []models.Provider{
			{ID: "prov-1", Services: json.RawMessage(`["Canalização", "Jardim"]`)},
		},
	}
	taxonomy := &fakeTaxonomySource{services: testTaxonomy()}
	mappings := &fakeMappingStore{err: errors.New("deadlock detected")}
	suggestions := &fakeSuggestionStore{}

	runner := newTestRunner(providers, taxonomy, mappings, suggestions, nil, Config{})

	summary, err := runner.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, summary.TotalLabels)
	assert.Equal(t, 0, summary.AutoAccepted)
	assert.Equal(t, 1, summary.RoutedToReview)
	assert.Equal(t, 1, summary.Failed)
	assert.Contains(t, summary.FailedLabels, "canalizacao")

	// The suggestion write is independent of the mapping failure.
	assert.Len(t, suggestions.all(), 1)
}

func TestRunner_Run_SerializesRuns(t *testing.T) {
	runner := newTestRunner(&fakeProviderSource{}, &fakeTaxonomySource{}, &fakeMappingStore{}, &fakeSuggestionStore{}, nil, Config{})

	require.True(t, runner.tryAcquire())

	_, err := runner.Run(context.Background())
	assert.ErrorIs(t, err, ErrRunInProgress)

	runner.release()

	_, err = runner.Run(context.Background())
	assert.NoError(t, err)
}
