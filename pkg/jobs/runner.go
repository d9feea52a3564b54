package jobs

import (
	"context"
	"encoding/json"
	"time"
)

// StateStore persists job records. Terminal records expire after
// ResultRetention; reading an expired or unknown job returns ErrJobNotFound.
type StateStore interface {
	Save(ctx context.Context, job *Job) error
	Get(ctx context.Context, id string) (*Job, error)
}

// Runner is the single task-execution contract. Direct mode runs the
// handler inline before Submit returns; queued mode hands the payload to a
// worker and lets callers poll.
type Runner interface {
	// Submit creates the job and returns its id.
	Submit(ctx context.Context, queue string, payload any) (string, error)

	// Status returns the current job record.
	Status(ctx context.Context, id string) (*Job, error)

	// Await polls until the job reaches a terminal state or the ceiling
	// elapses. The ceiling expiring returns ErrAwaitTimeout and leaves the
	// job running.
	Await(ctx context.Context, id string, ceiling time.Duration) (*Job, error)

	// Cancel stops a queued job before it starts and interrupts a started
	// one.
	Cancel(ctx context.Context, id string) error
}

// Transition is invoked on every status change, for lifecycle events and
// status streams. Implementations must not block.
type Transition func(job *Job)

func marshalPayload(payload any) (json.RawMessage, error) {
	if payload == nil {
		return nil, nil
	}
	if raw, ok := payload.(json.RawMessage); ok {
		return raw, nil
	}
	return json.Marshal(payload)
}
