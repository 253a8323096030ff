package handlers

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/nahidhasan98/orgsync/internal/diff"
	"github.com/nahidhasan98/orgsync/internal/errors"
	"github.com/nahidhasan98/orgsync/internal/models"
	"github.com/nahidhasan98/orgsync/internal/syncer"
)

const (
	eventHeader     = "X-GitHub-Event"
	deliveryHeader  = "X-GitHub-Delivery"
	signatureHeader = "X-Hub-Signature-256"
	signaturePrefix = "sha256="

	maxWebhookBody = 25 << 20
)

// GitHubWebhook receives push events, reconciles their commits into a change
// set and queues it for the sync worker
func (h *Handler) GitHubWebhook(w http.ResponseWriter, r *http.Request) {
	if !h.requirePost(w, r) {
		return
	}

	log := h.log.With("delivery", r.Header.Get(deliveryHeader))

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		h.writeAppError(w, errors.InvalidRequest("Failed to read request body: "+err.Error()))
		return
	}

	if !h.verifyWebhookSignature(body, r.Header.Get(signatureHeader)) {
		log.Warn("Invalid GitHub webhook signature")
		h.writeAppError(w, errors.Unauthorized("Invalid webhook signature"))
		return
	}

	event := r.Header.Get(eventHeader)
	if event != "push" {
		log.Infof("Ignoring GitHub %q event", event)
		w.WriteHeader(http.StatusNoContent)
		return
	}

	var push models.PushEvent
	if err := json.Unmarshal(body, &push); err != nil {
		h.writeAppError(w, errors.InvalidRequest("Invalid webhook payload: "+err.Error()))
		return
	}

	changes, ok := diff.ReconcileRef(push, h.opts.Ref)
	if !ok {
		log.Infof("Ignoring push to %s with %d commit(s)", push.Ref, push.GetCommitCount())
		h.writeJSON(w, &models.StatusResponse{
			Status:  "ignored",
			Message: "Push is not to " + h.opts.Ref + " or carries no commits",
		}, http.StatusAccepted)
		return
	}

	log.Infof("Push to %s@%s by %s: %d commit(s), %d modified, %d removed",
		push.Repository.FullName, push.GetBranch(), push.Pusher.Name, push.GetCommitCount(), len(changes.Modified), len(changes.Removed))

	if changes.Empty() {
		h.writeJSON(w, &models.StatusResponse{Status: "empty", Message: "Push changes no files"}, http.StatusAccepted)
		return
	}

	if !h.queue.Submit(syncer.Job{Source: "webhook", Changes: changes}) {
		h.writeAppError(w, errors.ServiceUnavailable("Sync queue is full, retry the delivery later"))
		return
	}

	h.writeJSON(w, &models.SyncQueuedResponse{
		Status:   "queued",
		Modified: changes.Modified,
		Removed:  changes.Removed,
	}, http.StatusAccepted)
}

// verifyWebhookSignature checks the HMAC SHA256 signature of the payload.
// Without a configured secret every payload is accepted.
func (h *Handler) verifyWebhookSignature(payload []byte, headerSignature string) bool {
	if h.opts.WebhookSecret == "" {
		return true
	}

	if !strings.HasPrefix(headerSignature, signaturePrefix) {
		return false
	}
	provided := strings.TrimPrefix(headerSignature, signaturePrefix)

	mac := hmac.New(sha256.New, []byte(h.opts.WebhookSecret))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(provided), []byte(expected))
}
