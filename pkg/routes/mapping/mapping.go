package mapping

import (
	"net/http"
	"strconv"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/fern/internal/repositories/servicemapping"
	"github.com/Ramsey-B/fern/pkg/models"
)

// Register registers mapping routes
func Register(g *echo.Group) {
	g.GET("", ListMappings)
	g.POST("/:id/verify", VerifyMapping)
}

// ListMappings lists mappings, optionally filtered by provider service label
func ListMappings(c echo.Context) error {
	ctx := c.Request().Context()

	label := c.QueryParam("label")

	limit := 100
	if raw := c.QueryParam("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return httperror.NewHTTPError(http.StatusBadRequest, "limit must be an integer")
		}
		limit = parsed
	}

	ctx, repo, err := ectoinject.GetContext[*servicemapping.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	var mappings []models.ServiceMapping
	if label != "" {
		mappings, err = repo.ListByLabel(ctx, label)
	} else {
		mappings, err = repo.List(ctx, limit)
	}
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, mappings)
}

// VerifyMapping marks a mapping as human verified
func VerifyMapping(c echo.Context) error {
	ctx := c.Request().Context()

	id := c.Param("id")
	if id == "" {
		return httperror.NewHTTPError(http.StatusBadRequest, "id is required")
	}

	ctx, repo, err := ectoinject.GetContext[*servicemapping.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	if err := repo.Verify(ctx, id); err != nil {
		return err
	}

	ctx, logger, _ := ectoinject.GetContext[ectologger.Logger](ctx)
	if logger != nil {
		logger.WithContext(ctx).WithField("mapping_id", id).Info("Verified service mapping")
	}

	return c.JSON(http.StatusOK, map[string]string{"status": "verified"})
}
