package service

import (
	"context"
	"encoding/json"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"

	"github.com/QRui6/urban-inspection-rag/internal/dto"
)

type IPublisherService interface {
	PublishChunk(ctx context.Context, msg *dto.IngestChunkMessage) error
}

type publisherService struct {
	topicName string
	pubSub    *gochannel.GoChannel
}

func NewPublisherService(topicName string, pubSub *gochannel.GoChannel) IPublisherService {
	return &publisherService{
		topicName: topicName,
		pubSub:    pubSub,
	}
}

// PublishChunk hands a manual chunk to the indexer pipeline.
func (p *publisherService) PublishChunk(ctx context.Context, msg *dto.IngestChunkMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return p.pubSub.Publish(p.topicName, message.NewMessage(uuid.New().String(), payload))
}
