package handlers

import (
	"log"
	"net/http"

	"shopping-assistant/internal/workers"
)

// WorkerHandler exposes background worker statistics
type WorkerHandler struct {
	worker workers.Worker
	logger *log.Logger
}

// NewWorkerHandler creates a new worker handler
func NewWorkerHandler(worker workers.Worker, logger *log.Logger) *WorkerHandler {
	return &WorkerHandler{
		worker: worker,
		logger: logger,
	}
}

// Stats returns prefetch worker statistics
// @Summary Worker statistics
// @Description Returns processing counters for the product prefetch worker
// @Tags workers
// @Produce json
// @Success 200 {object} workers.WorkerStats
// @Router /api/v1/workers/stats [get]
func (h *WorkerHandler) Stats(w http.ResponseWriter, r *http.Request) {
	sendJSON(w, h.logger, http.StatusOK, h.worker.Stats())
}
