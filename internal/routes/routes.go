package routes

import (
	"net/http"

	"github.com/gorilla/mux"

	"shopping-assistant/internal/handlers"
)

// Handlers bundles everything RegisterRoutes needs. Optional handlers may be
// nil; their routes are simply not registered.
type Handlers struct {
	Health http.HandlerFunc
	Home   http.HandlerFunc

	SessionHandler      *handlers.SessionHandler
	ProductHandler      *handlers.ProductHandler
	AutocompleteHandler *handlers.AutocompleteHandler
	WorkerHandler       *handlers.WorkerHandler
}

// RegisterRoutes sets up all application routes
func RegisterRoutes(router *mux.Router, h *Handlers) {
	// Health endpoints
	router.HandleFunc("/health", h.Health).Methods(http.MethodGet)

	api := router.PathPrefix("/api/v1").Subrouter()

	if h.SessionHandler != nil {
		api.HandleFunc("/sessions", h.SessionHandler.CreateSession).Methods(http.MethodPost)
		api.HandleFunc("/sessions/{id}", h.SessionHandler.GetSession).Methods(http.MethodGet)
		api.HandleFunc("/sessions/{id}", h.SessionHandler.DeleteSession).Methods(http.MethodDelete)
		api.HandleFunc("/sessions/{id}/clear", h.SessionHandler.ClearSession).Methods(http.MethodPost)
		api.HandleFunc("/sessions/{id}/messages", h.SessionHandler.SendMessage).Methods(http.MethodPost)
		api.HandleFunc("/sessions/{id}/preset", h.SessionHandler.SendPreset).Methods(http.MethodPost)
		api.HandleFunc("/sessions/{id}/products", h.SessionHandler.AddProducts).Methods(http.MethodPost)
		api.HandleFunc("/sessions/{id}/products/{pid}", h.SessionHandler.RemoveProduct).Methods(http.MethodDelete)
		api.HandleFunc("/presets", h.SessionHandler.ListPresets).Methods(http.MethodGet)
	}

	if h.ProductHandler != nil {
		api.HandleFunc("/products/{id}", h.ProductHandler.GetProduct).Methods(http.MethodGet)
	}

	if h.AutocompleteHandler != nil {
		api.HandleFunc("/autocomplete", h.AutocompleteHandler.Suggest).Methods(http.MethodGet)
	}

	if h.WorkerHandler != nil {
		api.HandleFunc("/workers/stats", h.WorkerHandler.Stats).Methods(http.MethodGet)
	}

	// Main routes
	router.HandleFunc("/", h.Home).Methods(http.MethodGet)
}
