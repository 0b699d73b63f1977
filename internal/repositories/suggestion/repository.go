package suggestion

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

// Repository handles mapping suggestion persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new suggestion repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// UpsertBatch writes suggestions in a single statement, keyed by the
// provider service label. A rerun replaces the candidate slots and resets
// the row to pending so reviewers always see the latest ranking.
func (r *Repository) UpsertBatch(ctx context.Context, suggestions []*models.ServiceMappingSuggestion) error {
	ctx, span := tracing.StartSpan(ctx, "suggestion.Repository.UpsertBatch")
	defer span.End()

	if len(suggestions) == 0 {
		return nil
	}

	now := time.Now().UTC()
	sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
	sb.InsertInto("service_mapping_suggestions")
	sb.Cols(
		"id", "provider_service_label",
		"suggested_taxonomy_id_1", "suggested_score_1",
		"suggested_taxonomy_id_2", "suggested_score_2",
		"suggested_taxonomy_id_3", "suggested_score_3",
		"status", "created_at", "updated_at",
	)

	for _, s := range suggestions {
		if s.ID == "" {
			s.ID = uuid.New().String()
		}
		if s.Status == "" {
			s.Status = models.SuggestionStatusPending
		}
		s.CreatedAt = now
		s.UpdatedAt = now
		sb.Values(
			s.ID, s.ProviderServiceLabel,
			s.SuggestedTaxonomyID1, s.SuggestedScore1,
			s.SuggestedTaxonomyID2, s.SuggestedScore2,
			s.SuggestedTaxonomyID3, s.SuggestedScore3,
			s.Status, s.CreatedAt, s.UpdatedAt,
		)
	}

	query, args := sb.Build()
	query += " ON CONFLICT (provider_service_label) DO UPDATE SET suggested_taxonomy_id_1 = EXCLUDED.suggested_taxonomy_id_1, suggested_score_1 = EXCLUDED.suggested_score_1, suggested_taxonomy_id_2 = EXCLUDED.suggested_taxonomy_id_2, suggested_score_2 = EXCLUDED.suggested_score_2, suggested_taxonomy_id_3 = EXCLUDED.suggested_taxonomy_id_3, suggested_score_3 = EXCLUDED.suggested_score_3, status = EXCLUDED.status, resolved_at = NULL, resolved_by = NULL, updated_at = EXCLUDED.updated_at"

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to upsert suggestions batch")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to upsert suggestions")
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{"count": len(suggestions)}).Debug("Upserted suggestions batch")
	return nil
}

// ListByStatus retrieves suggestions with the given status, best ranked
// first. An empty status lists the pending review queue.
func (r *Repository) ListByStatus(ctx context.Context, status string, limit int) ([]models.ServiceMappingSuggestion, error) {
	ctx, span := tracing.StartSpan(ctx, "suggestion.Repository.ListByStatus")
	defer span.End()

	if limit < 1 || limit > 500 {
		limit = 100
	}
	if status == "" {
		status = models.SuggestionStatusPending
	}

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(
		"id", "provider_service_label",
		"suggested_taxonomy_id_1", "suggested_score_1",
		"suggested_taxonomy_id_2", "suggested_score_2",
		"suggested_taxonomy_id_3", "suggested_score_3",
		"status", "created_at", "updated_at", "resolved_at", "resolved_by",
	)
	sb.From("service_mapping_suggestions")
	sb.Where(sb.Equal("status", status))
	sb.OrderBy("suggested_score_1 DESC NULLS LAST", "created_at ASC")
	sb.Limit(limit)

	query, args := sb.Build()
	var suggestions []models.ServiceMappingSuggestion
	if err := r.db.SelectContext(ctx, &suggestions, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list suggestions")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list suggestions")
	}

	return suggestions, nil
}

// GetByLabel retrieves a suggestion by its provider service label
func (r *Repository) GetByLabel(ctx context.Context, label string) (*models.ServiceMappingSuggestion, error) {
	ctx, span := tracing.StartSpan(ctx, "suggestion.Repository.GetByLabel")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(
		"id", "provider_service_label",
		"suggested_taxonomy_id_1", "suggested_score_1",
		"suggested_taxonomy_id_2", "suggested_score_2",
		"suggested_taxonomy_id_3", "suggested_score_3",
		"status", "created_at", "updated_at", "resolved_at", "resolved_by",
	)
	sb.From("service_mapping_suggestions")
	sb.Where(sb.Equal("provider_service_label", label))

	query, args := sb.Build()
	var suggestion models.ServiceMappingSuggestion
	if err := r.db.GetContext(ctx, &suggestion, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("suggestion for label %q not found", label))
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get suggestion by label")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get suggestion")
	}

	return &suggestion, nil
}

// Resolve accepts a reviewed suggestion: it writes a verified mapping for
// the chosen taxonomy service and marks the suggestion resolved in one
// transaction.
func (r *Repository) Resolve(ctx context.Context, label string, taxonomyServiceID string, resolvedBy *string) (*models.ServiceMapping, error) {
	ctx, span := tracing.StartSpan(ctx, "suggestion.Repository.Resolve")
	defer span.End()

	txCtx, tx, err := r.db.GetTx(ctx, nil)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to begin resolve transaction")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to resolve suggestion")
	}

	now := time.Now().UTC()
	mapping := &models.ServiceMapping{
		ID:                   uuid.New().String(),
		ProviderServiceLabel: label,
		TaxonomyServiceID:    taxonomyServiceID,
		ConfidenceScore:      100,
		MatchType:            models.MatchTypeExact,
		Verified:             true,
		CreatedAt:            now,
		UpdatedAt:            now,
	}

	insert := sqlbuilder.PostgreSQL.NewInsertBuilder()
	insert.InsertInto("service_mappings")
	insert.Cols("id", "provider_service_label", "taxonomy_service_id", "confidence_score", "match_type", "verified", "created_at", "updated_at")
	insert.Values(mapping.ID, mapping.ProviderServiceLabel, mapping.TaxonomyServiceID, mapping.ConfidenceScore, mapping.MatchType, mapping.Verified, mapping.CreatedAt, mapping.UpdatedAt)

	query, args := insert.Build()
	query += " ON CONFLICT (provider_service_label, taxonomy_service_id) DO UPDATE SET confidence_score = EXCLUDED.confidence_score, match_type = EXCLUDED.match_type, verified = EXCLUDED.verified, updated_at = EXCLUDED.updated_at"

	if _, err := tx.ExecContext(txCtx, query, args...); err != nil {
		_ = tx.Rollback(ctx)
		r.logger.WithContext(ctx).WithError(err).Error("Failed to write resolved mapping")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to resolve suggestion")
	}

	update := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	update.Update("service_mapping_suggestions")
	update.Set(
		update.Assign("status", models.SuggestionStatusResolved),
		update.Assign("resolved_at", now),
		update.Assign("resolved_by", resolvedBy),
		update.Assign("updated_at", now),
	)
	update.Where(
		update.Equal("provider_service_label", label),
		update.Equal("status", models.SuggestionStatusPending),
	)

	query, args = update.Build()
	result, err := tx.ExecContext(txCtx, query, args...)
	if err != nil {
		_ = tx.Rollback(ctx)
		r.logger.WithContext(ctx).WithError(err).Error("Failed to update resolved suggestion")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to resolve suggestion")
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		_ = tx.Rollback(ctx)
		return nil, httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("pending suggestion for label %q not found", label))
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to resolve suggestion")
	}

	return mapping, nil
}

// UpdateStatus resolves or dismisses a suggestion by label
func (r *Repository) UpdateStatus(ctx context.Context, label string, status string, resolvedBy *string) error {
	ctx, span := tracing.StartSpan(ctx, "suggestion.Repository.UpdateStatus")
	defer span.End()

	now := time.Now().UTC()
	sb := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	sb.Update("service_mapping_suggestions")
	sb.Set(
		sb.Assign("status", status),
		sb.Assign("resolved_at", now),
		sb.Assign("resolved_by", resolvedBy),
		sb.Assign("updated_at", now),
	)
	sb.Where(
		sb.Equal("provider_service_label", label),
		sb.Equal("status", models.SuggestionStatusPending),
	)

	query, args := sb.Build()
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to update suggestion status")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to update suggestion status")
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("pending suggestion for label %q not found", label))
	}

	return nil
}
