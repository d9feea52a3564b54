package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"os"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
)

// Worker consumes job envelopes from the queue transport and runs the
// registered handlers. Each started job holds its own cancel func, so a
// cancel signal interrupts real work instead of only flipping a flag.
type Worker struct {
	subscriber   message.Subscriber
	store        StateStore
	handlers     map[string]Handler
	onTransition Transition
	poolSize     int
	logger       *log.Logger

	mu      sync.Mutex
	running map[string]context.CancelFunc
}

func NewWorker(subscriber message.Subscriber, store StateStore, handlers map[string]Handler, poolSize int, onTransition Transition, logger *log.Logger) *Worker {
	if poolSize <= 0 {
		poolSize = 4
	}
	if logger == nil {
		logger = log.New(os.Stderr, "[worker] ", log.LstdFlags)
	}
	return &Worker{
		subscriber:   subscriber,
		store:        store,
		handlers:     handlers,
		onTransition: onTransition,
		poolSize:     poolSize,
		logger:       logger,
		running:      make(map[string]context.CancelFunc),
	}
}

// Run subscribes to every registered queue plus the cancel topic and blocks
// until the context ends.
func (w *Worker) Run(ctx context.Context) error {
	for queue, handler := range w.handlers {
		messages, err := w.subscriber.Subscribe(ctx, TopicForQueue(queue))
		if err != nil {
			return err
		}
		for i := 0; i < w.poolSize; i++ {
			go w.consume(ctx, queue, handler, messages)
		}
	}

	cancels, err := w.subscriber.Subscribe(ctx, CancelTopic)
	if err != nil {
		return err
	}
	go w.consumeCancels(cancels)

	<-ctx.Done()
	return ctx.Err()
}

func (w *Worker) consume(ctx context.Context, queue string, handler Handler, messages <-chan *message.Message) {
	for msg := range messages {
		w.process(ctx, queue, handler, msg)
	}
}

func (w *Worker) process(ctx context.Context, queue string, handler Handler, msg *message.Message) {
	var env envelope
	if err := json.Unmarshal(msg.Payload, &env); err != nil {
		w.logger.Printf("[ERROR] invalid job envelope: %v", err)
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	job, err := w.store.Get(ctx, env.JobID)
	if err != nil {
		if errors.Is(err, ErrJobNotFound) {
			w.logger.Printf("[WARN] job %s expired before execution", env.JobID)
			msg.Ack()
			return
		}
		w.logger.Printf("[ERROR] load job %s: %v", env.JobID, err)
		msg.Nack() // Nack for retriable errors
		return
	}

	// Cancelled while still queued.
	if job.Status != StatusQueued {
		msg.Ack()
		return
	}

	jobCtx, cancel := context.WithTimeout(ctx, QueueBudget(queue))
	w.register(job.ID, cancel)
	defer func() {
		w.unregister(job.ID)
		cancel()
	}()

	w.transition(ctx, job, StatusStarted)
	w.logger.Printf("[INFO] job %s started on %s", job.ID, queue)

	result, runErr := handler(jobCtx, job.Payload)

	// Reload: a cancel may have landed in the store while we were running.
	if latest, err := w.store.Get(ctx, job.ID); err == nil && latest.Status == StatusCancelled {
		w.logger.Printf("[INFO] job %s cancelled during execution", job.ID)
		msg.Ack()
		return
	}

	switch {
	case runErr == nil:
		job.Result = result
		w.transition(ctx, job, StatusFinished)
	case errors.Is(runErr, context.Canceled) || errors.Is(jobCtx.Err(), context.Canceled):
		w.transition(ctx, job, StatusCancelled)
	default:
		job.Error = runErr.Error()
		w.logger.Printf("[ERROR] job %s failed: %v", job.ID, runErr)
		w.transition(ctx, job, StatusFailed)
	}
	msg.Ack()
}

func (w *Worker) consumeCancels(messages <-chan *message.Message) {
	for msg := range messages {
		var env envelope
		if err := json.Unmarshal(msg.Payload, &env); err == nil {
			w.mu.Lock()
			cancel, ok := w.running[env.JobID]
			w.mu.Unlock()
			if ok {
				cancel()
			}
		}
		msg.Ack()
	}
}

func (w *Worker) register(id string, cancel context.CancelFunc) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.running[id] = cancel
}

func (w *Worker) unregister(id string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.running, id)
}

func (w *Worker) transition(ctx context.Context, job *Job, status Status) {
	job.Status = status
	now := time.Now()
	switch status {
	case StatusStarted:
		job.StartedAt = &now
	case StatusFinished, StatusFailed, StatusCancelled:
		job.EndedAt = &now
	}
	if err := w.store.Save(ctx, job); err != nil {
		w.logger.Printf("[ERROR] save job %s state %s: %v", job.ID, status, err)
	}
	if w.onTransition != nil {
		w.onTransition(job)
	}
}
