package syncer

import (
	"time"

	"github.com/nahidhasan98/orgsync/internal/errors"
)

// Failure describes why one file could not be synchronized
type Failure struct {
	File    string           `json:"file"`
	Code    errors.ErrorCode `json:"code"`
	Message string           `json:"message"`
}

// Report accumulates the outcome of one pass over a file list
type Report struct {
	Attempted []string  `json:"attempted"`
	Succeeded []string  `json:"succeeded"`
	Failures  []Failure `json:"failures"`
}

func (r *Report) succeed(file string) {
	r.Attempted = append(r.Attempted, file)
	r.Succeeded = append(r.Succeeded, file)
}

func (r *Report) fail(file string, err error) {
	r.Attempted = append(r.Attempted, file)
	r.Failures = append(r.Failures, Failure{
		File:    file,
		Code:    errors.CodeOf(err),
		Message: err.Error(),
	})
}

// BatchReport is the outcome of applying a whole change set
type BatchReport struct {
	ID         string        `json:"id"`
	Source     string        `json:"source"`
	Modified   Report        `json:"modified"`
	Removed    Report        `json:"removed"`
	StartedAt  time.Time     `json:"startedAt"`
	FinishedAt time.Time     `json:"finishedAt"`
	Duration   time.Duration `json:"duration"`
}

// Attempted is the number of files touched by the batch
func (b *BatchReport) Attempted() int {
	return len(b.Modified.Attempted) + len(b.Removed.Attempted)
}

// Failed is the number of files that could not be synchronized
func (b *BatchReport) Failed() int {
	return len(b.Modified.Failures) + len(b.Removed.Failures)
}
