package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/custos/internal/models"
	"github.com/ternarybob/custos/internal/services/filters"
)

// FilterService defines the methods needed from the filter service
type FilterService interface {
	Save(ctx context.Context, name, query string) error
	Delete(ctx context.Context, name string) (bool, error)
	Get(name string) (models.Filter, error)
	All() []models.Filter
}

// FilterHandler exposes the saved-filter store over HTTP for inspection and
// administration; the chat commands remain the primary surface.
type FilterHandler struct {
	filterService FilterService
	logger        arbor.ILogger
}

// NewFilterHandler creates a new filter handler
func NewFilterHandler(filterService FilterService, logger arbor.ILogger) *FilterHandler {
	return &FilterHandler{
		filterService: filterService,
		logger:        logger,
	}
}

// ListFiltersHandler handles GET /api/filters - lists all saved filters
func (h *FilterHandler) ListFiltersHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	WriteJSON(w, http.StatusOK, h.filterService.All())
}

// FilterHandler handles /api/filters/{name} - GET, PUT and DELETE
func (h *FilterHandler) FilterHandler(w http.ResponseWriter, r *http.Request) {
	name, err := url.QueryUnescape(strings.TrimPrefix(r.URL.Path, "/api/filters/"))
	if err != nil || name == "" {
		WriteError(w, http.StatusBadRequest, "Missing or invalid filter name")
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.getFilter(w, name)
	case http.MethodPut:
		h.putFilter(w, r, name)
	case http.MethodDelete:
		h.deleteFilter(w, r, name)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *FilterHandler) getFilter(w http.ResponseWriter, name string) {
	filter, err := h.filterService.Get(name)
	if err != nil {
		if errors.Is(err, filters.ErrFilterNotFound) {
			WriteError(w, http.StatusNotFound, "Filter not found")
			return
		}
		h.logger.Error().Err(err).Str("name", name).Msg("Failed to get filter")
		WriteError(w, http.StatusInternalServerError, "Failed to get filter")
		return
	}

	WriteJSON(w, http.StatusOK, filter)
}

func (h *FilterHandler) putFilter(w http.ResponseWriter, r *http.Request, name string) {
	var body struct {
		Query string `json:"query"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Query == "" {
		WriteError(w, http.StatusBadRequest, "Request body must contain a query")
		return
	}

	if err := h.filterService.Save(r.Context(), name, body.Query); err != nil {
		h.logger.Error().Err(err).Str("name", name).Msg("Failed to save filter")
		WriteError(w, http.StatusInternalServerError, "Failed to save filter")
		return
	}

	WriteSuccess(w, "Filter saved")
}

func (h *FilterHandler) deleteFilter(w http.ResponseWriter, r *http.Request, name string) {
	removed, err := h.filterService.Delete(r.Context(), name)
	if err != nil {
		h.logger.Error().Err(err).Str("name", name).Msg("Failed to delete filter")
		WriteError(w, http.StatusInternalServerError, "Failed to delete filter")
		return
	}
	if !removed {
		WriteError(w, http.StatusNotFound, "Filter not found")
		return
	}

	WriteSuccess(w, "Filter deleted")
}
