// Package events handles event emission for mapping lifecycle changes
package events

import (
	"context"
	"encoding/json"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/fern/pkg/kafka"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// SchemaVersion is the current event schema version
const SchemaVersion = "1.0"

const (
	EventTypeMappingCreated    = "mapping.created"
	EventTypeSuggestionCreated = "suggestion.created"
	EventTypeRunCompleted      = "run.completed"
)

// Emitter handles event emission for Fern
type Emitter struct {
	producer *kafka.Producer
	logger   ectologger.Logger
}

// NewEmitter creates a new event emitter
func NewEmitter(producer *kafka.Producer, logger ectologger.Logger) *Emitter {
	return &Emitter{
		producer: producer,
		logger:   logger,
	}
}

// EmitMappingCreated emits a mapping.created event for an auto accepted label
func (e *Emitter) EmitMappingCreated(ctx context.Context, mapping *models.ServiceMapping) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitMappingCreated")
	defer span.End()

	event := &kafka.MappingEvent{
		EventType:            EventTypeMappingCreated,
		ProviderServiceLabel: mapping.ProviderServiceLabel,
		TaxonomyServiceID:    mapping.TaxonomyServiceID,
		ConfidenceScore:      mapping.ConfidenceScore,
		MatchType:            string(mapping.MatchType),
	}

	if err := e.producer.PublishMappingEvent(ctx, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to emit mapping.created event")
		return err
	}

	return nil
}

// EmitSuggestionCreated emits a suggestion.created event for a review routed label
func (e *Emitter) EmitSuggestionCreated(ctx context.Context, suggestion *models.ServiceMappingSuggestion) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitSuggestionCreated")
	defer span.End()

	data, _ := json.Marshal(suggestion)

	event := &kafka.MappingEvent{
		EventType:            EventTypeSuggestionCreated,
		ProviderServiceLabel: suggestion.ProviderServiceLabel,
		Data:                 data,
	}

	if err := e.producer.PublishMappingEvent(ctx, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to emit suggestion.created event")
		return err
	}

	return nil
}

// EmitRunCompleted emits a run.completed event carrying the run summary
func (e *Emitter) EmitRunCompleted(ctx context.Context, summary *models.RunSummary) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitRunCompleted")
	defer span.End()

	payload := map[string]any{
		"schema_version": SchemaVersion,
		"summary":        summary,
	}

	data, _ := json.Marshal(payload)

	event := &kafka.MappingEvent{
		EventType: EventTypeRunCompleted,
		Data:      data,
	}

	if err := e.producer.PublishMappingEvent(ctx, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to emit run.completed event")
		return err
	}

	return nil
}
