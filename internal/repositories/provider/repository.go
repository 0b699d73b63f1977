package provider

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

// Repository handles provider persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new provider repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// List retrieves all providers
func (r *Repository) List(ctx context.Context) ([]models.Provider, error) {
	ctx, span := tracing.StartSpan(ctx, "provider.Repository.List")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("id", "name", "services", "created_at", "updated_at")
	sb.From("providers")
	sb.OrderBy("created_at ASC")

	query, args := sb.Build()
	var providers []models.Provider
	if err := r.db.SelectContext(ctx, &providers, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list providers")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list providers")
	}

	return providers, nil
}

// Get retrieves a provider by ID
func (r *Repository) Get(ctx context.Context, id string) (*models.Provider, error) {
	ctx, span := tracing.StartSpan(ctx, "provider.Repository.Get")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("id", "name", "services", "created_at", "updated_at")
	sb.From("providers")
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	var provider models.Provider
	if err := r.db.GetContext(ctx, &provider, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("provider %s not found", id))
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get provider")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get provider")
	}

	return &provider, nil
}

// Upsert creates or updates a provider by ID
func (r *Repository) Upsert(ctx context.Context, provider *models.Provider) (*models.Provider, error) {
	ctx, span := tracing.StartSpan(ctx, "provider.Repository.Upsert")
	defer span.End()

	if provider.ID == "" {
		provider.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if provider.CreatedAt.IsZero() {
		provider.CreatedAt = now
	}
	provider.UpdatedAt = now

	sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
	sb.InsertInto("providers")
	sb.Cols("id", "name", "services", "created_at", "updated_at")
	sb.Values(provider.ID, provider.Name, provider.Services, provider.CreatedAt, provider.UpdatedAt)

	query, args := sb.Build()
	query += " ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, services = EXCLUDED.services, updated_at = EXCLUDED.updated_at"

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"provider_id": provider.ID}).Error("Failed to upsert provider")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to upsert provider")
	}

	return provider, nil
}
