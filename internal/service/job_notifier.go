package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/QRui6/urban-inspection-rag/internal/pkg/logger"
	"github.com/QRui6/urban-inspection-rag/internal/pkg/mailer"
	"github.com/QRui6/urban-inspection-rag/internal/websocket"
	"github.com/QRui6/urban-inspection-rag/pkg/events"
	"github.com/QRui6/urban-inspection-rag/pkg/jobs"
	pktNats "github.com/QRui6/urban-inspection-rag/pkg/nats"
)

// ComposeTransitions chains transition hooks into one.
func ComposeTransitions(hooks ...jobs.Transition) jobs.Transition {
	return func(job *jobs.Job) {
		for _, hook := range hooks {
			if hook != nil {
				hook(job)
			}
		}
	}
}

func eventTypeForStatus(status jobs.Status) string {
	switch status {
	case jobs.StatusStarted:
		return events.TypeJobStarted
	case jobs.StatusFinished:
		return events.TypeJobFinished
	case jobs.StatusFailed:
		return events.TypeJobFailed
	case jobs.StatusCancelled:
		return events.TypeJobCancelled
	default:
		return ""
	}
}

// NewJobTransitionNotifier builds the transition hook that mirrors job
// lifecycle changes to NATS and to the websocket status streams. Both
// targets are best effort and neither may block the runner, so the NATS
// publish runs detached. Either target may be nil.
// NewJobMailNotifier mails the configured recipient when a report-producing
// job reaches a terminal state. Delivery failures only log.
func NewJobMailNotifier(emails mailer.IEmailService, recipient string, appLogger logger.ILogger) jobs.Transition {
	return func(job *jobs.Job) {
		if job.Queue == jobs.QueueImageAnalysis {
			return
		}

		var send func() error
		switch job.Status {
		case jobs.StatusFinished:
			answer := string(job.Result)
			var parsed struct {
				Answer string `json:"answer"`
			}
			if err := json.Unmarshal(job.Result, &parsed); err == nil && parsed.Answer != "" {
				answer = parsed.Answer
			}
			send = func() error { return emails.SendReportCompleted(recipient, job.ID, answer) }
		case jobs.StatusFailed:
			send = func() error { return emails.SendReportFailed(recipient, job.ID, job.Error) }
		default:
			return
		}

		go func() {
			if err := send(); err != nil {
				appLogger.Warn("jobs", "report mail failed", map[string]interface{}{
					"job_id": job.ID,
					"error":  err.Error(),
				})
			}
		}()
	}
}

func NewJobTransitionNotifier(natsPub *pktNats.Publisher, hub *websocket.Hub, appLogger logger.ILogger) jobs.Transition {
	return func(job *jobs.Job) {
		if hub != nil {
			hub.NotifyTransition(job)
		}

		if natsPub == nil {
			return
		}
		eventType := eventTypeForStatus(job.Status)
		if eventType == "" {
			return
		}

		event := events.NewJobEvent(eventType, job.ID, job.Queue, map[string]interface{}{
			"error": job.Error,
		})
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := natsPub.Publish(ctx, event); err != nil {
				appLogger.Warn("jobs", "lifecycle event publish failed", map[string]interface{}{
					"job_id": job.ID,
					"event":  eventType,
					"error":  err.Error(),
				})
			}
		}()
	}
}
