package syncer

import (
	"context"

	"github.com/nahidhasan98/orgsync/internal/diff"
	"github.com/nahidhasan98/orgsync/internal/logger"
)

// Job is one unit of work for the worker.
// A job without Changes is a full resync of the repository.
type Job struct {
	Source  string
	Changes *diff.ChangeSet
}

// Worker runs queued jobs on a single goroutine so that batches never overlap
type Worker struct {
	pipeline *Pipeline
	lister   Lister
	queue    chan Job
	log      *logger.Logger
}

// NewWorker creates a worker with room for queueSize pending jobs
func NewWorker(pipeline *Pipeline, lister Lister, queueSize int, log *logger.Logger) *Worker {
	return &Worker{
		pipeline: pipeline,
		lister:   lister,
		queue:    make(chan Job, queueSize),
		log:      log,
	}
}

// Submit queues a job without blocking; it returns false when the queue is full
func (w *Worker) Submit(job Job) bool {
	select {
	case w.queue <- job:
		return true
	default:
		w.log.Warnf("Sync queue full, dropping job from %s", job.Source)
		return false
	}
}

// Pending returns the number of queued jobs
func (w *Worker) Pending() int {
	return len(w.queue)
}

// Run processes jobs until ctx is cancelled. A batch that has started runs to completion.
func (w *Worker) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case job := <-w.queue:
			w.run(context.WithoutCancel(ctx), job)
		}
	}
}

func (w *Worker) run(ctx context.Context, job Job) {
	if job.Changes != nil {
		w.pipeline.Apply(ctx, job.Source, job.Changes)
		return
	}

	if _, err := w.pipeline.Resync(ctx, w.lister); err != nil {
		w.log.Error("Full resync failed", err)
	}
}
