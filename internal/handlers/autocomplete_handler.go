package handlers

import (
	"log"
	"net/http"

	"shopping-assistant/internal/models"
	"shopping-assistant/internal/services"
)

// AutocompleteHandler handles HTTP requests for search suggestions
type AutocompleteHandler struct {
	autocomplete *services.AutocompleteService
	logger       *log.Logger
}

// NewAutocompleteHandler creates a new autocomplete handler
func NewAutocompleteHandler(autocomplete *services.AutocompleteService, logger *log.Logger) *AutocompleteHandler {
	return &AutocompleteHandler{
		autocomplete: autocomplete,
		logger:       logger,
	}
}

// Suggest returns scored suggestions for a partial query
// @Summary Autocomplete a draft query
// @Description Returns scored suggestions; queries under 2 characters return an empty list
// @Tags autocomplete
// @Produce json
// @Param query query string true "Partial query"
// @Success 200 {object} models.AutocompleteResponse
// @Failure 502 {object} ErrorResponse
// @Router /api/v1/autocomplete [get]
func (h *AutocompleteHandler) Suggest(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")

	results, err := h.autocomplete.Suggest(r.Context(), query)
	if err != nil {
		h.logger.Printf("autocomplete failed for %q: %v", query, err)
		sendError(w, h.logger, http.StatusBadGateway, "Autocomplete unavailable")
		return
	}

	if results == nil {
		results = []models.AutocompleteResult{}
	}
	sendJSON(w, h.logger, http.StatusOK, models.AutocompleteResponse{Results: results})
}
