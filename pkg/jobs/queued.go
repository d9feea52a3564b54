package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
)

// TopicForQueue maps a queue name onto its transport topic.
func TopicForQueue(queue string) string {
	return "jobs." + queue
}

// CancelTopic carries cancel signals to whichever worker holds the job.
const CancelTopic = "jobs.cancel"

// envelope is the wire form of a queued job reference. Workers load the
// full record from the state store.
type envelope struct {
	JobID string `json:"job_id"`
	Queue string `json:"queue"`
}

// QueuedRunner publishes jobs to the queue transport and resolves them by
// polling the state store.
type QueuedRunner struct {
	publisher    message.Publisher
	store        StateStore
	onTransition Transition
	pollInterval time.Duration
	logger       *log.Logger
}

var _ Runner = &QueuedRunner{}

func NewQueuedRunner(publisher message.Publisher, store StateStore, onTransition Transition, logger *log.Logger) *QueuedRunner {
	if logger == nil {
		logger = log.New(os.Stderr, "[jobs] ", log.LstdFlags)
	}
	return &QueuedRunner{
		publisher:    publisher,
		store:        store,
		onTransition: onTransition,
		pollInterval: 1 * time.Second,
		logger:       logger,
	}
}

// SetPollInterval overrides the 1s status poll, mainly for tests.
func (r *QueuedRunner) SetPollInterval(d time.Duration) {
	if d > 0 {
		r.pollInterval = d
	}
}

func (r *QueuedRunner) Submit(ctx context.Context, queue string, payload any) (string, error) {
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

	env, _ := json.Marshal(envelope{JobID: job.ID, Queue: queue})
	msg := message.NewMessage(watermill.NewUUID(), env)
	if err := r.publisher.Publish(TopicForQueue(queue), msg); err != nil {
		return "", fmt.Errorf("publish job %s: %w", job.ID, err)
	}
	return job.ID, nil
}

func (r *QueuedRunner) Status(ctx context.Context, id string) (*Job, error) {
	return r.store.Get(ctx, id)
}

func (r *QueuedRunner) Await(ctx context.Context, id string, ceiling time.Duration) (*Job, error) {
	deadline := time.NewTimer(ceiling)
	defer deadline.Stop()
	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()

	for {
		job, err := r.store.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if job.Status.IsTerminal() {
			return job, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-deadline.C:
			return nil, ErrAwaitTimeout
		case <-ticker.C:
		}
	}
}

// Cancel marks the job cancelled in the state store, which stops a queued
// job from ever starting, and publishes a signal so a worker already
// running it can abort.
func (r *QueuedRunner) Cancel(ctx context.Context, id string) error {
	job, err := r.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if job.Status.IsTerminal() {
		return nil
	}

	now := time.Now()
	job.Status = StatusCancelled
	job.EndedAt = &now
	if err := r.store.Save(ctx, job); err != nil {
		return err
	}
	if r.onTransition != nil {
		r.onTransition(job)
	}

	env, _ := json.Marshal(envelope{JobID: id, Queue: job.Queue})
	msg := message.NewMessage(watermill.NewUUID(), env)
	if err := r.publisher.Publish(CancelTopic, msg); err != nil {
		r.logger.Printf("publish cancel for job %s: %v", id, err)
	}
	return nil
}
