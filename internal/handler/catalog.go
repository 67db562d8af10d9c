package handler

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"openproject-gateway-go/internal/catalog"
)

// CatalogHandler serves the local endpoint-catalog search.
type CatalogHandler struct {
	store  *catalog.Store
	logger *slog.Logger
}

// NewCatalogHandler creates a CatalogHandler.
func NewCatalogHandler(store *catalog.Store, logger *slog.Logger) *CatalogHandler {
	return &CatalogHandler{
		store:  store,
		logger: logger.With("component", "catalog_handler"),
	}
}

type catalogQuery struct {
	Query string `json:"query"`
}

// Search answers with every documented endpoint whose path contains the
// query. Zero matches is reported as a "no matching endpoints" message, not
// an HTTP error.
func (h *CatalogHandler) Search(c echo.Context) error {
	var in catalogQuery
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	entries, err := h.store.Search(c.Request().Context(), in.Query)
	if err != nil {
		h.logger.Error("catalog search", "err", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "catalog lookup failed",
		})
	}

	if len(entries) == 0 {
		return c.JSON(http.StatusOK, map[string]string{
			"error": "No matching endpoints found",
		})
	}
	return c.JSON(http.StatusOK, map[string]any{"available_paths": entries})
}
