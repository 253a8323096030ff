package handlers

import (
	"net/http"

	"github.com/nahidhasan98/orgsync/internal/errors"
	"github.com/nahidhasan98/orgsync/internal/models"
	"github.com/nahidhasan98/orgsync/internal/syncer"
)

// FullSync queues a resync of every file in the repository
func (h *Handler) FullSync(w http.ResponseWriter, r *http.Request) {
	if !h.requirePost(w, r) {
		return
	}

	if !h.queue.Submit(syncer.Job{Source: "api"}) {
		h.writeAppError(w, errors.ServiceUnavailable("Sync queue is full, try again later"))
		return
	}

	h.log.Infof("Full resync requested by %s", r.RemoteAddr)
	h.writeJSON(w, &models.StatusResponse{
		Status:  "queued",
		Message: "Full resync queued",
	}, http.StatusAccepted)
}
