package jobs

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
)

// DirectRunner executes handlers inline. Submit returns once the job has
// already reached a terminal state, which makes Await trivial. The record
// still lands in the state store so status polling works identically in
// both modes.
type DirectRunner struct {
	handlers     map[string]Handler
	store        StateStore
	onTransition Transition
	logger       *log.Logger
}

var _ Runner = &DirectRunner{}

func NewDirectRunner(store StateStore, handlers map[string]Handler, onTransition Transition, logger *log.Logger) *DirectRunner {
	if logger == nil {
		logger = log.New(os.Stderr, "[jobs] ", log.LstdFlags)
	}
	return &DirectRunner{
		handlers:     handlers,
		store:        store,
		onTransition: onTransition,
		logger:       logger,
	}
}

func (r *DirectRunner) Submit(ctx context.Context, queue string, payload any) (string, error) {
	handler, ok := r.handlers[queue]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownQueue, queue)
	}

	raw, err := marshalPayload(payload)
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}

	job := &Job{
		ID:         uuid.NewString(),
		Queue:      queue,
		Status:     StatusQueued,
		Payload:    raw,
		EnqueuedAt: time.Now(),
	}
	if err := r.store.Save(ctx, job); err != nil {
		return "", err
	}

	r.transition(ctx, job, StatusStarted)

	runCtx, cancel := context.WithTimeout(ctx, QueueBudget(queue))
	defer cancel()

	result, runErr := handler(runCtx, job.Payload)
	switch {
	case runErr == nil:
		job.Result = result
		r.transition(ctx, job, StatusFinished)
	case errors.Is(runErr, context.Canceled):
		r.transition(ctx, job, StatusCancelled)
	default:
		job.Error = runErr.Error()
		r.logger.Printf("job %s (%s) failed: %v", job.ID, queue, runErr)
		r.transition(ctx, job, StatusFailed)
	}
	return job.ID, nil
}

func (r *DirectRunner) Status(ctx context.Context, id string) (*Job, error) {
	return r.store.Get(ctx, id)
}

func (r *DirectRunner) Await(ctx context.Context, id string, _ time.Duration) (*Job, error) {
	// Direct jobs are terminal by the time Submit returns.
	return r.store.Get(ctx, id)
}

func (r *DirectRunner) Cancel(ctx context.Context, id string) error {
	_, err := r.store.Get(ctx, id)
	return err
}

func (r *DirectRunner) transition(ctx context.Context, job *Job, status Status) {
	job.Status = status
	now := time.Now()
	switch status {
	case StatusStarted:
		job.StartedAt = &now
	case StatusFinished, StatusFailed, StatusCancelled:
		job.EndedAt = &now
	}
	if err := r.store.Save(ctx, job); err != nil {
		r.logger.Printf("save job %s state %s: %v", job.ID, status, err)
	}
	if r.onTransition != nil {
		r.onTransition(job)
	}
}
