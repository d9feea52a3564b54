package events

import "time"

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "job.started").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// Job lifecycle event types, published as `events.<type>` subjects.
const (
	TypeJobStarted   = "job.started"
	TypeJobFinished  = "job.finished"
	TypeJobFailed    = "job.failed"
	TypeJobCancelled = "job.cancelled"
)

// BaseEvent is the plain implementation every publisher in this codebase
// uses.
type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

// NewJobEvent builds a lifecycle event for one job transition.
func NewJobEvent(eventType, jobID, queue string, extra map[string]interface{}) BaseEvent {
	data := map[string]interface{}{
		"job_id": jobID,
		"queue":  queue,
	}
	for k, v := range extra {
		data[k] = v
	}
	return BaseEvent{
		Type:       eventType,
		Data:       data,
		OccurredAt: time.Now(),
	}
}
