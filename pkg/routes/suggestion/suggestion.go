package suggestion

import (
	"net/http"
	"strconv"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/fern/internal/repositories/suggestion"
	"github.com/Ramsey-B/fern/pkg/httpcontext"
	"github.com/Ramsey-B/fern/pkg/models"
)

// Register registers suggestion routes
func Register(g *echo.Group) {
	g.GET("", ListSuggestions)
	g.POST("/:label/resolve", ResolveSuggestion)
	g.POST("/:label/dismiss", DismissSuggestion)
}

// ListSuggestions lists suggestions, pending review by default
func ListSuggestions(c echo.Context) error {
	ctx := c.Request().Context()

	status := c.QueryParam("status")
	switch status {
	case "", models.SuggestionStatusPending, models.SuggestionStatusResolved, models.SuggestionStatusDismissed:
	default:
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid status")
	}

	limit := 100
	if raw := c.QueryParam("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return httperror.NewHTTPError(http.StatusBadRequest, "limit must be an integer")
		}
		limit = parsed
	}

	ctx, repo, err := ectoinject.GetContext[*suggestion.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	suggestions, err := repo.ListByStatus(ctx, status, limit)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, suggestions)
}

// ResolveSuggestion accepts a reviewed suggestion, recording the chosen
// taxonomy service as a verified mapping for the label.
func ResolveSuggestion(c echo.Context) error {
	ctx := c.Request().Context()

	label := c.Param("label")
	if label == "" {
		return httperror.NewHTTPError(http.StatusBadRequest, "label is required")
	}

	var req models.ResolveSuggestionRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx, repo, err := ectoinject.GetContext[*suggestion.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	var resolvedBy *string
	if userID := httpcontext.GetUserID(ctx); userID != "" {
		resolvedBy = &userID
	}

	// A reviewer picking a taxonomy service is the strongest signal we
	// have, so the resulting mapping is stored as verified.
	mapping, err := repo.Resolve(ctx, label, req.TaxonomyServiceID, resolvedBy)
	if err != nil {
		return err
	}

	ctx, logger, _ := ectoinject.GetContext[ectologger.Logger](ctx)
	if logger != nil {
		logger.WithContext(ctx).WithFields(map[string]any{
			"label":               label,
			"taxonomy_service_id": req.TaxonomyServiceID,
		}).Info("Resolved mapping suggestion")
	}

	return c.JSON(http.StatusOK, mapping)
}

// DismissSuggestion marks a suggestion as dismissed without creating a mapping
func DismissSuggestion(c echo.Context) error {
	ctx := c.Request().Context()

	label := c.Param("label")
	if label == "" {
		return httperror.NewHTTPError(http.StatusBadRequest, "label is required")
	}

	ctx, repo, err := ectoinject.GetContext[*suggestion.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	var resolvedBy *string
	if userID := httpcontext.GetUserID(ctx); userID != "" {
		resolvedBy = &userID
	}

	if err := repo.UpdateStatus(ctx, label, models.SuggestionStatusDismissed, resolvedBy); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]string{"status": "dismissed"})
}
