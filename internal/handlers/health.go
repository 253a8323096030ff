package handlers

import (
	"net/http"
	"time"

	"github.com/nahidhasan98/orgsync/internal/models"
	"github.com/nahidhasan98/orgsync/internal/notify"
)

// HealthCheck reports store reachability and the notifier state.
// It answers 503 when the store cannot be reached.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	response := &models.HealthResponse{
		Status:    "ok",
		Database:  true,
		Notifier:  notify.StatusDisabled,
		Timestamp: time.Now().Unix(),
	}

	if h.notifier != nil {
		response.Notifier = h.notifier.Status()
	}

	status := http.StatusOK
	if err := h.store.Ping(r.Context()); err != nil {
		h.log.Error("Health check: store unreachable", err)
		response.Status = "degraded"
		response.Database = false
		status = http.StatusServiceUnavailable
	}

	h.writeJSON(w, response, status)
}
