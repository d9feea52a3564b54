package service

import (
	"context"

	"github.com/QRui6/urban-inspection-rag/internal/pkg/logger"
	"github.com/QRui6/urban-inspection-rag/pkg/events"
	pktNats "github.com/QRui6/urban-inspection-rag/pkg/nats"
)

type IAuditService interface {
	Start() error
}

// auditService records every job lifecycle event into the structured log,
// which doubles as the inspection audit trail.
type auditService struct {
	subscriber *pktNats.Subscriber
	logger     logger.ILogger
}

func NewAuditService(subscriber *pktNats.Subscriber, appLogger logger.ILogger) IAuditService {
	return &auditService{
		subscriber: subscriber,
		logger:     appLogger,
	}
}

func (s *auditService) Start() error {
	return s.subscriber.Subscribe("events.job.>", "inspection-audit", func(ctx context.Context, event events.Event) error {
		s.logger.Info("audit", event.EventType(), event.Payload())
		return nil
	})
}
