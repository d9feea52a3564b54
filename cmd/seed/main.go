package main

import (
	"context"
	"encoding/json"
	"log"
	"os"

	"github.com/google/uuid"

	"github.com/QRui6/urban-inspection-rag/internal/config"
	"github.com/QRui6/urban-inspection-rag/internal/dto"
	"github.com/QRui6/urban-inspection-rag/internal/entity"
	"github.com/QRui6/urban-inspection-rag/internal/repository/bolt"
	"github.com/QRui6/urban-inspection-rag/internal/repository/contract"
	"github.com/QRui6/urban-inspection-rag/internal/repository/implementation"
	"github.com/QRui6/urban-inspection-rag/pkg/database"
	"github.com/QRui6/urban-inspection-rag/pkg/embedding"
	"github.com/QRui6/urban-inspection-rag/pkg/embedding/jina"
	"github.com/QRui6/urban-inspection-rag/pkg/rag/candidate"
)

// Loads pre-chunked manual passages from a JSON file and indexes them.
//
//	go run ./cmd/seed chunks.json
func main() {
	if len(os.Args) < 2 {
		log.Fatal("Usage: seed <chunks.json>")
	}

	cfg := config.Load()

	data, err := os.ReadFile(os.Args[1])
	if err != nil {
		log.Fatalf("Error: cannot read chunk file: %v", err)
	}
	var payloads []dto.IngestChunkMessage
	if err := json.Unmarshal(data, &payloads); err != nil {
		log.Fatalf("Error: invalid chunk file: %v", err)
	}
	log.Printf("Loaded %d chunks from %s", len(payloads), os.Args[1])

	var repo contract.ManualChunkRepository
	if cfg.Database.VectorBackend == "bolt" {
		boltRepo, err := bolt.NewManualChunkRepository(cfg.Database.BoltPath)
		if err != nil {
			log.Fatalf("Error: cannot open bolt index: %v", err)
		}
		defer boltRepo.Close()
		repo = boltRepo
	} else {
		db, err := database.NewGormDBFromDSN(cfg.Database.Connection)
		if err != nil {
			log.Fatalf("Error: cannot connect to database: %v", err)
		}
		repo = implementation.NewManualChunkRepository(db)
	}

	var embedder embedding.Provider
	switch cfg.Ai.EmbeddingProvider {
	case "ollama":
		embedder = embedding.NewOllamaProvider(cfg.Ai.OllamaBaseURL, cfg.Ai.OllamaEmbeddingModel)
	case "jina":
		embedder = jina.NewJinaProvider(cfg.Ai.JinaAPIKey)
	default:
		embedder = embedding.NewArkProvider(cfg.Ai.ArkBaseURL, cfg.Ai.ArkAPIKey, cfg.Ai.EmbeddingModel)
	}

	ctx := context.Background()
	chunks := make([]*entity.ManualChunk, 0, len(payloads))
	for i := range payloads {
		p := &payloads[i]

		id, err := uuid.Parse(p.ID)
		if err != nil {
			id = uuid.New()
		}

		var vector []float32
		if p.ChunkType == candidate.ChunkTypeIndicatorImage && p.ImgPath != "" {
			vector, err = embedder.EmbedImage(ctx, p.ImgPath)
			if err != nil && p.Context != "" {
				log.Printf("Warn: image embedding failed for %s, using context text: %v", p.ID, err)
				vector, err = embedder.EmbedText(ctx, p.Context)
			}
		} else {
			vector, err = embedder.EmbedText(ctx, p.Content)
		}
		if err != nil {
			log.Printf("Warn: skipping chunk %s, embedding failed: %v", p.ID, err)
			continue
		}

		chunks = append(chunks, &entity.ManualChunk{
			Id:             id,
			Content:        p.Content,
			ChunkType:      p.ChunkType,
			IndicatorTitle: p.IndicatorTitle,
			ImgPath:        p.ImgPath,
			Context:        p.Context,
			Source:         p.Source,
			Metadata:       p.Metadata,
			Embedding:      vector,
		})
	}

	if err := repo.CreateBulk(ctx, chunks); err != nil {
		log.Fatalf("Error: bulk insert failed: %v", err)
	}
	log.Printf("Indexed %d of %d chunks", len(chunks), len(payloads))
}
