// Package handler exposes the gateway operations over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"openproject-gateway-go/internal/model"
	"openproject-gateway-go/internal/service"
)

// OperationsHandler serves one POST route per gateway operation. Operation
// routes always answer 200 with the result envelope; upstream failure lives
// inside the envelope, never in the gateway's own status code.
type OperationsHandler struct {
	gateway *service.Gateway
	logger  *slog.Logger
}

// NewOperationsHandler creates an OperationsHandler.
func NewOperationsHandler(gw *service.Gateway, logger *slog.Logger) *OperationsHandler {
	return &OperationsHandler{
		gateway: gw,
		logger:  logger.With("component", "operations_handler"),
	}
}

// operation adapts a gateway method into an Echo handler: bind the JSON body
// into the typed input, run the operation, answer with the envelope. A body
// that does not bind is the only case answered with a non-200 status.
func operation[T any](h *OperationsHandler, name string, call func(context.Context, T) *model.Result) echo.HandlerFunc {
	return func(c echo.Context) error {
		var in T
		if err := c.Bind(&in); err != nil {
			h.logger.Debug("bad operation input", "operation", name, "err", err)
			return c.JSON(http.StatusBadRequest,
				model.ValidationFailure(err))
		}
		return c.JSON(http.StatusOK, call(c.Request().Context(), in))
	}
}
