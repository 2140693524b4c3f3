package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/maltedev/frame-scraper/internal/jobs"
)

// OutboxStats reports outbox backlog for the health check.
type OutboxStats interface {
	Counts(ctx context.Context) (pending, deadLetter int64, err error)
}

type Handlers struct {
	jobs   *jobs.Manager
	outbox OutboxStats
	logger *slog.Logger
}

// NewHandlers builds the API handlers. outbox may be nil when the database
// is disabled.
func NewHandlers(manager *jobs.Manager, outbox OutboxStats, logger *slog.Logger) *Handlers {
	return &Handlers{
		jobs:   manager,
		outbox: outbox,
		logger: logger.With("component", "api"),
	}
}

type StartRunResponse struct {
	RunID  string      `json:"run_id"`
	Status jobs.Status `json:"status"`
}

// StartRun triggers a crawl. Only one run may be active at a time.
func (h *Handlers) StartRun(w http.ResponseWriter, r *http.Request) {
	run, err := h.jobs.Start()
	if err != nil {
		if errors.Is(err, jobs.ErrRunInProgress) {
			h.respondError(w, http.StatusConflict, err.Error())
			return
		}
		h.logger.Error("failed to start run", "error", err)
		h.respondError(w, http.StatusServiceUnavailable, "failed to start run")
		return
	}

	h.respondJSON(w, http.StatusAccepted, StartRunResponse{RunID: run.ID, Status: run.Status})
}

func (h *Handlers) ListRuns(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"runs": h.jobs.List(),
	})
}

func (h *Handlers) GetRun(w http.ResponseWriter, r *http.Request) {
	run, err := h.jobs.Get(chi.URLParam(r, "runID"))
	if err != nil {
		h.respondError(w, http.StatusNotFound, err.Error())
		return
	}
	h.respondJSON(w, http.StatusOK, run)
}

func (h *Handlers) GetRunProducts(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")
	products, err := h.jobs.Products(runID)
	if err != nil {
		h.respondError(w, http.StatusNotFound, err.Error())
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"run_id":   runID,
		"count":    len(products),
		"products": products,
	})
}

// Health reports ok unless the outbox backlog signals a stuck relay.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	health := map[string]interface{}{
		"status": "ok",
	}
	if id, ok := h.jobs.Active(); ok {
		health["active_run"] = id
	}

	status := http.StatusOK
	if h.outbox != nil {
		pending, deadLetter, err := h.outbox.Counts(r.Context())
		if err != nil {
			h.logger.Error("failed to read outbox counts", "error", err)
			health["status"] = "error"
			health["message"] = "outbox unavailable"
			h.respondJSON(w, http.StatusServiceUnavailable, health)
			return
		}
		health["outbox"] = map[string]interface{}{
			"pending":     pending,
			"dead_letter": deadLetter,
		}
		if pending > 1000 {
			health["status"] = "warning"
			health["message"] = "High number of pending outbox events"
		}
		if deadLetter > 100 {
			health["status"] = "error"
			health["message"] = "High number of dead letter events"
			status = http.StatusServiceUnavailable
		}
	}

	h.respondJSON(w, status, health)
}

func (h *Handlers) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handlers) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}
