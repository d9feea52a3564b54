package service

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"

	"github.com/QRui6/urban-inspection-rag/internal/dto"
	"github.com/QRui6/urban-inspection-rag/internal/entity"
	"github.com/QRui6/urban-inspection-rag/internal/repository/contract"
	"github.com/QRui6/urban-inspection-rag/pkg/embedding"
	"github.com/QRui6/urban-inspection-rag/pkg/rag/candidate"
)

type IIndexerService interface {
	Consume(ctx context.Context) error
}

// indexerService embeds published manual chunks and upserts them into the
// vector index. Text chunks embed their content, image chunks embed the
// image itself, falling back to the surrounding context when the embedding
// backend cannot take images.
type indexerService struct {
	pubSub        *gochannel.GoChannel
	topicName     string
	chunkRepo     contract.ManualChunkRepository
	textEmbedder  embedding.Provider
	imageEmbedder embedding.Provider
}

func NewIndexerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	chunkRepo contract.ManualChunkRepository,
	textEmbedder embedding.Provider,
	imageEmbedder embedding.Provider,
) IIndexerService {
	return &indexerService{
		pubSub:        pubSub,
		topicName:     topicName,
		chunkRepo:     chunkRepo,
		textEmbedder:  textEmbedder,
		imageEmbedder: imageEmbedder,
	}
}

func (is *indexerService) Consume(ctx context.Context) error {
	messages, err := is.pubSub.Subscribe(ctx, is.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			is.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (is *indexerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.IngestChunkMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		log.Printf("[ERROR] Failed to unmarshal ingest message: %v", err)
		msg.Ack() // malformed, retrying will not help
		return
	}

	id, err := uuid.Parse(payload.ID)
	if err != nil {
		log.Printf("[ERROR] Invalid chunk id %q: %v", payload.ID, err)
		msg.Ack()
		return
	}

	log.Printf("[INFO] Indexing manual chunk %s (%s)", payload.ID, payload.ChunkType)

	vector, err := is.embedChunk(ctx, &payload)
	if err != nil {
		log.Printf("[ERROR] Failed to embed chunk %s: %v", payload.ID, err)
		msg.Nack() // embedding backends flake, retry
		return
	}

	now := time.Now()
	chunk := &entity.ManualChunk{
		Id:             id,
		Content:        payload.Content,
		ChunkType:      payload.ChunkType,
		IndicatorTitle: payload.IndicatorTitle,
		ImgPath:        payload.ImgPath,
		Context:        payload.Context,
		Source:         payload.Source,
		Metadata:       payload.Metadata,
		Embedding:      vector,
		CreatedAt:      now,
	}

	if err := is.chunkRepo.Upsert(ctx, chunk); err != nil {
		log.Printf("[ERROR] Failed to upsert chunk %s: %v", payload.ID, err)
		msg.Nack()
		return
	}

	msg.Ack()
}

func (is *indexerService) embedChunk(ctx context.Context, payload *dto.IngestChunkMessage) ([]float32, error) {
	if payload.ChunkType == candidate.ChunkTypeIndicatorImage && payload.ImgPath != "" {
		vector, err := is.imageEmbedder.EmbedImage(ctx, payload.ImgPath)
		if err == nil {
			return vector, nil
		}
		log.Printf("[WARN] Image embedding failed for %s, falling back to context text: %v", payload.ID, err)
		if payload.Context != "" {
			return is.textEmbedder.EmbedText(ctx, payload.Context)
		}
		return nil, err
	}
	return is.textEmbedder.EmbedText(ctx, payload.Content)
}
