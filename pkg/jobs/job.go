// Package jobs runs inspection tasks either inline or through a queue,
// behind one runner contract.
package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

type Status string

const (
	StatusQueued    Status = "queued"
	StatusStarted   Status = "started"
	StatusFinished  Status = "finished"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// IsTerminal reports whether the job can no longer change state.
func (s Status) IsTerminal() bool {
	return s == StatusFinished || s == StatusFailed || s == StatusCancelled
}

// Queue names, one per task kind.
const (
	QueueImageAnalysis    = "image-analysis"
	QueueAnswerGeneration = "answer-generation"
	QueueFullQuery        = "full-query"
)

// QueueBudget is the hard execution limit a started handler gets.
func QueueBudget(queue string) time.Duration {
	if queue == QueueFullQuery {
		return 15 * time.Minute
	}
	return 10 * time.Minute
}

// AwaitCeiling bounds how long a synchronous caller will poll for a result.
// Hitting it does not cancel the job.
func AwaitCeiling(queue string) time.Duration {
	if queue == QueueFullQuery {
		return 900 * time.Second
	}
	return 300 * time.Second
}

// ResultRetention is how long a terminal job stays readable.
const ResultRetention = 3600 * time.Second

var (
	ErrJobNotFound  = errors.New("jobs: job not found")
	ErrAwaitTimeout = errors.New("jobs: await timeout")
	ErrUnknownQueue = errors.New("jobs: no handler registered for queue")
)

// Job is the persisted state of one task.
type Job struct {
	ID         string          `json:"id"`
	Queue      string          `json:"queue"`
	Status     Status          `json:"status"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	Result     json.RawMessage `json:"result,omitempty"`
	Error      string          `json:"error,omitempty"`
	EnqueuedAt time.Time       `json:"enqueued_at"`
	StartedAt  *time.Time      `json:"started_at,omitempty"`
	EndedAt    *time.Time      `json:"ended_at,omitempty"`
}

// Handler executes one task. The context carries the queue budget and is
// cancelled when the job is cancelled.
type Handler func(ctx context.Context, payload json.RawMessage) (json.RawMessage, error)
