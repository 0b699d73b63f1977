package servicemapping

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
	"github.com/huandu/go-sqlbuilder"

	"github.com/Ramsey-B/fern/pkg/database"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// Repository handles service mapping persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new service mapping repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// UpsertBatch writes mappings in a single statement, keyed by the label and
// taxonomy service pair so reruns update scores instead of duplicating rows.
func (r *Repository) UpsertBatch(ctx context.Context, mappings []*models.ServiceMapping) error {
	ctx, span := tracing.StartSpan(ctx, "servicemapping.Repository.UpsertBatch")
	defer span.End()

	if len(mappings) == 0 {
		return nil
	}

	now := time.Now().UTC()
	sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
	sb.InsertInto("service_mappings")
	sb.Cols("id", "provider_service_label", "taxonomy_service_id", "confidence_score", "match_type", "verified", "created_at", "updated_at")

	for _, m := range mappings {
		if m.ID == "" {
			m.ID = uuid.New().String()
		}
		m.CreatedAt = now
		m.UpdatedAt = now
		sb.Values(m.ID, m.ProviderServiceLabel, m.TaxonomyServiceID, m.ConfidenceScore, m.MatchType, m.Verified, m.CreatedAt, m.UpdatedAt)
	}

	query, args := sb.Build()
	query += " ON CONFLICT (provider_service_label, taxonomy_service_id) DO UPDATE SET confidence_score = EXCLUDED.confidence_score, match_type = EXCLUDED.match_type, verified = EXCLUDED.verified, updated_at = EXCLUDED.updated_at"

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to upsert service mappings batch")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to upsert service mappings")
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{"count": len(mappings)}).Debug("Upserted service mappings batch")
	return nil
}

// ListByLabel retrieves mappings for a provider service label
func (r *Repository) ListByLabel(ctx context.Context, label string) ([]models.ServiceMapping, error) {
	ctx, span := tracing.StartSpan(ctx, "servicemapping.Repository.ListByLabel")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("id", "provider_service_label", "taxonomy_service_id", "confidence_score", "match_type", "verified", "created_at", "updated_at")
	sb.From("service_mappings")
	sb.Where(sb.Equal("provider_service_label", label))
	sb.OrderBy("confidence_score DESC", "created_at DESC")

	query, args := sb.Build()
	var mappings []models.ServiceMapping
	if err := r.db.SelectContext(ctx, &mappings, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list service mappings by label")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list service mappings")
	}

	return mappings, nil
}

// List retrieves mappings with a limit, newest first
func (r *Repository) List(ctx context.Context, limit int) ([]models.ServiceMapping, error) {
	ctx, span := tracing.StartSpan(ctx, "servicemapping.Repository.List")
	defer span.End()

	if limit < 1 || limit > 500 {
		limit = 100
	}

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("id", "provider_service_label", "taxonomy_service_id", "confidence_score", "match_type", "verified", "created_at", "updated_at")
	sb.From("service_mappings")
	sb.OrderBy("updated_at DESC")
	sb.Limit(limit)

	query, args := sb.Build()
	var mappings []models.ServiceMapping
	if err := r.db.SelectContext(ctx, &mappings, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list service mappings")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list service mappings")
	}

	return mappings, nil
}

// Verify marks a mapping as human verified
func (r *Repository) Verify(ctx context.Context, id string) error {
	ctx, span := tracing.StartSpan(ctx, "servicemapping.Repository.Verify")
	defer span.End()

	now := time.Now().UTC()
	sb := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	sb.Update("service_mappings")
	sb.Set(
		sb.Assign("verified", true),
		sb.Assign("updated_at", now),
	)
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to verify service mapping")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to verify service mapping")
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("service mapping %s not found", id))
	}

	return nil
}
