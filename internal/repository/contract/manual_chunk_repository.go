package contract

import (
	"context"

	"github.com/google/uuid"

	"github.com/QRui6/urban-inspection-rag/internal/entity"
)

// ScoredManualChunk pairs a chunk with its cosine distance to the query
// vector (0 = identical direction).
type ScoredManualChunk struct {
	Chunk    *entity.ManualChunk
	Distance float64
}

type ManualChunkRepository interface {
	Create(ctx context.Context, chunk *entity.ManualChunk) error
	CreateBulk(ctx context.Context, chunks []*entity.ManualChunk) error
	Upsert(ctx context.Context, chunk *entity.ManualChunk) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindOne(ctx context.Context, id uuid.UUID) (*entity.ManualChunk, error)
	Count(ctx context.Context) (int64, error)
	// SearchSimilar returns the limit nearest chunks ordered by cosine
	// distance ascending.
	SearchSimilar(ctx context.Context, vector []float32, limit int) ([]*ScoredManualChunk, error)
}
