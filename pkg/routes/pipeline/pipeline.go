package pipeline

import (
	"errors"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/fern/pkg/pipeline"
)

// Register registers pipeline routes
func Register(g *echo.Group) {
	g.POST("/run", RunPipeline)
}

// RunPipeline executes a full mapping run and returns its summary
func RunPipeline(c echo.Context) error {
	ctx := c.Request().Context()

	ctx, runner, err := ectoinject.GetContext[*pipeline.Runner](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "pipeline not available")
	}

	summary, err := runner.Run(ctx)
	if err != nil {
		if errors.Is(err, pipeline.ErrRunInProgress) {
			return httperror.NewHTTPError(http.StatusConflict, "a pipeline run is already in progress")
		}
		if errors.Is(err, pipeline.ErrDataSourceUnavailable) {
			return httperror.NewHTTPError(http.StatusServiceUnavailable, "pipeline data sources unavailable")
		}
		return err
	}

	ctx, logger, _ := ectoinject.GetContext[ectologger.Logger](ctx)
	if logger != nil {
		logger.WithContext(ctx).WithFields(map[string]any{
			"total_labels":  summary.TotalLabels,
			"auto_accepted": summary.AutoAccepted,
		}).Info("Pipeline run triggered via API")
	}

	return c.JSON(http.StatusOK, summary)
}
