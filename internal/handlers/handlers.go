package handlers

import (
	"context"

	"github.com/nahidhasan98/orgsync/internal/logger"
	"github.com/nahidhasan98/orgsync/internal/syncer"
)

// Queue accepts sync jobs for the background worker
type Queue interface {
	Submit(job syncer.Job) bool
}

// Pinger reports whether the record store is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// StatusReporter describes the state of the batch notifier
type StatusReporter interface {
	Status() string
}

// Options holds the request-independent settings of the handlers
type Options struct {
	WebhookSecret string
	Ref           string // only pushes to this ref are synchronized
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	queue    Queue
	store    Pinger
	notifier StatusReporter
	log      *logger.Logger
	opts     Options
}

// New creates a new handler instance. notifier may be nil when notifications are disabled.
func New(queue Queue, store Pinger, notifier StatusReporter, opts Options, log *logger.Logger) *Handler {
	if opts.WebhookSecret == "" {
		log.Warn("GitHub webhook secret not configured, signatures will not be verified")
	}

	return &Handler{
		queue:    queue,
		store:    store,
		notifier: notifier,
		log:      log,
		opts:     opts,
	}
}
