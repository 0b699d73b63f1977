package taxonomy

import (
	"context"
	"fmt"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/huandu/go-sqlbuilder"

	"github.com/Ramsey-B/fern/pkg/database"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// Repository handles taxonomy persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new taxonomy repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// ListActive retrieves every active canonical service
func (r *Repository) ListActive(ctx context.Context) ([]models.CanonicalService, error) {
	ctx, span := tracing.StartSpan(ctx, "taxonomy.Repository.ListActive")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("id", "category", "service", "historical_request_count", "is_active", "created_at", "updated_at")
	sb.From("service_taxonomy")
	sb.Where(sb.Equal("is_active", true))
	sb.OrderBy("category ASC", "service ASC")

	query, args := sb.Build()
	var services []models.CanonicalService
	if err := r.db.SelectContext(ctx, &services, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list active taxonomy services")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list taxonomy services")
	}

	return services, nil
}

// Get retrieves a canonical service by ID
func (r *Repository) Get(ctx context.Context, id string) (*models.CanonicalService, error) {
	ctx, span := tracing.StartSpan(ctx, "taxonomy.Repository.Get")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("id", "category", "service", "historical_request_count", "is_active", "created_at", "updated_at")
	sb.From("service_taxonomy")
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	var service models.CanonicalService
	if err := r.db.GetContext(ctx, &service, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("taxonomy service %s not found", id))
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get taxonomy service")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get taxonomy service")
	}

	return &service, nil
}
