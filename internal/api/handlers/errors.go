package handlers

import (
	"context"
	"errors"
	"net/http"

	"battery-sizing/internal/api/models"
	"battery-sizing/internal/lp"
	"battery-sizing/internal/model"

	"github.com/gin-gonic/gin"
)

// errorDetail maps the optimizer error taxonomy onto an HTTP status and the
// JSON error envelope.
func errorDetail(err error) (int, models.ErrorDetail) {
	var (
		cfgErr     *model.ConfigurationError
		dataErr    *model.DataError
		infErr     *model.InfeasibleError
		solverErr  *model.SolverError
		detail     = models.ErrorDetail{Message: err.Error()}
		statusCode = http.StatusInternalServerError
	)
	switch {
	case errors.As(err, &cfgErr):
		statusCode, detail.Code = http.StatusBadRequest, "INVALID_CONFIG"
		detail.Details = map[string]interface{}{"field": cfgErr.Field}
	case errors.As(err, &dataErr):
		statusCode, detail.Code = http.StatusBadRequest, "INVALID_DATA"
		detail.Details = map[string]interface{}{}
		if dataErr.Plot != "" {
			detail.Details["plot"] = dataErr.Plot
		}
		if dataErr.Index >= 0 {
			detail.Details["index"] = dataErr.Index
		}
	case errors.As(err, &infErr):
		statusCode, detail.Code = http.StatusUnprocessableEntity, "INFEASIBLE"
		detail.Details = map[string]interface{}{"plot": infErr.Plot, "params": infErr.Params}
	case errors.As(err, &solverErr):
		detail.Code = "SOLVER_ERROR"
		detail.Details = map[string]interface{}{"status": solverErr.Status}
		if solverErr.Plot != "" {
			detail.Details["plot"] = solverErr.Plot
		}
		if solverErr.Status == string(lp.StatusTimedOut) {
			statusCode, detail.Code = http.StatusGatewayTimeout, "SOLVER_TIMEOUT"
		}
	case errors.Is(err, context.DeadlineExceeded):
		statusCode, detail.Code = http.StatusGatewayTimeout, "SOLVER_TIMEOUT"
	default:
		detail.Code = "INTERNAL_ERROR"
	}
	return statusCode, detail
}

func writeError(c *gin.Context, err error) {
	statusCode, detail := errorDetail(err)
	_ = c.Error(err)
	c.JSON(statusCode, models.ErrorResponse{Error: detail})
}

func badRequest(c *gin.Context, code string, err error) {
	_ = c.Error(err)
	c.JSON(http.StatusBadRequest, models.ErrorResponse{
		Error: models.ErrorDetail{
			Code:    code,
			Message: err.Error(),
		},
	})
}
