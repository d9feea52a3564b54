// Package bolt provides an embedded fallback for the vector index, so the
// system can run without Postgres. Brute-force cosine search over an
// in-memory cache backed by bbolt persistence.
package bolt

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.etcd.io/bbolt"

	"github.com/QRui6/urban-inspection-rag/internal/entity"
	"github.com/QRui6/urban-inspection-rag/internal/repository/contract"
)

var bucketChunks = []byte("manual_chunks")

type storedChunk struct {
	Id             uuid.UUID      `json:"id"`
	Content        string         `json:"content"`
	ChunkType      string         `json:"chunk_type"`
	IndicatorTitle string         `json:"indicator_title,omitempty"`
	ImgPath        string         `json:"img_path,omitempty"`
	Context        string         `json:"context,omitempty"`
	Source         string         `json:"source,omitempty"`
	Metadata       map[string]any `json:"metadata,omitempty"`
	Embedding      []float32      `json:"v"`
	CreatedAt      time.Time      `json:"created_at"`
}

type ManualChunkRepository struct {
	db *bbolt.DB

	mu sync.RWMutex
	// In-memory cache for fast search
	chunks map[uuid.UUID]*storedChunk
}

var _ contract.ManualChunkRepository = &ManualChunkRepository{}

func NewManualChunkRepository(path string) (*ManualChunkRepository, error) {
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketChunks)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create chunks bucket: %w", err)
	}

	repo := &ManualChunkRepository{
		db:     db,
		chunks: make(map[uuid.UUID]*storedChunk),
	}
	if err := repo.load(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to load chunks: %w", err)
	}
	return repo, nil
}

func (r *ManualChunkRepository) Close() error {
	return r.db.Close()
}

func (r *ManualChunkRepository) load() error {
	return r.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketChunks)
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			var stored storedChunk
			if err := json.Unmarshal(v, &stored); err != nil {
				return nil // Skip corrupted entries
			}
			r.chunks[stored.Id] = &stored
			return nil
		})
	})
}

func fromEntity(e *entity.ManualChunk) *storedChunk {
	id := e.Id
	if id == uuid.Nil {
		id = uuid.New()
	}
	createdAt := e.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	return &storedChunk{
		Id:             id,
		Content:        e.Content,
		ChunkType:      e.ChunkType,
		IndicatorTitle: e.IndicatorTitle,
		ImgPath:        e.ImgPath,
		Context:        e.Context,
		Source:         e.Source,
		Metadata:       e.Metadata,
		Embedding:      e.Embedding,
		CreatedAt:      createdAt,
	}
}

func (s *storedChunk) toEntity() *entity.ManualChunk {
	return &entity.ManualChunk{
		Id:             s.Id,
		Content:        s.Content,
		ChunkType:      s.ChunkType,
		IndicatorTitle: s.IndicatorTitle,
		ImgPath:        s.ImgPath,
		Context:        s.Context,
		Source:         s.Source,
		Metadata:       s.Metadata,
		Embedding:      s.Embedding,
		CreatedAt:      s.CreatedAt,
	}
}

func (r *ManualChunkRepository) put(chunks ...*storedChunk) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketChunks)
		for _, c := range chunks {
			data, err := json.Marshal(c)
			if err != nil {
				return err
			}
			if err := b.Put([]byte(c.Id.String()), data); err != nil {
				return err
			}
			r.chunks[c.Id] = c
		}
		return nil
	})
}

func (r *ManualChunkRepository) Create(ctx context.Context, chunk *entity.ManualChunk) error {
	stored := fromEntity(chunk)
	if err := r.put(stored); err != nil {
		return err
	}
	*chunk = *stored.toEntity()
	return nil
}

func (r *ManualChunkRepository) CreateBulk(ctx context.Context, chunks []*entity.ManualChunk) error {
	stored := make([]*storedChunk, len(chunks))
	for i, c := range chunks {
		stored[i] = fromEntity(c)
	}
	return r.put(stored...)
}

func (r *ManualChunkRepository) Upsert(ctx context.Context, chunk *entity.ManualChunk) error {
	return r.Create(ctx, chunk)
}

func (r *ManualChunkRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	err := r.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketChunks).Delete([]byte(id.String()))
	})
	if err != nil {
		return err
	}
	delete(r.chunks, id)
	return nil
}

func (r *ManualChunkRepository) FindOne(ctx context.Context, id uuid.UUID) (*entity.ManualChunk, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored, ok := r.chunks[id]
	if !ok {
		return nil, nil
	}
	return stored.toEntity(), nil
}

func (r *ManualChunkRepository) Count(ctx context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.chunks)), nil
}

func (r *ManualChunkRepository) SearchSimilar(ctx context.Context, vector []float32, limit int) ([]*contract.ScoredManualChunk, error) {
	if limit <= 0 {
		limit = 5
	}

	r.mu.RLock()
	scored := make([]*contract.ScoredManualChunk, 0, len(r.chunks))
	for _, c := range r.chunks {
		if len(c.Embedding) != len(vector) {
			continue
		}
		scored = append(scored, &contract.ScoredManualChunk{
			Chunk:    c.toEntity(),
			Distance: cosineDistance(vector, c.Embedding),
		})
	}
	r.mu.RUnlock()

	sort.Slice(scored, func(i, j int) bool {
		return scored[i].Distance < scored[j].Distance
	})
	if len(scored) > limit {
		scored = scored[:limit]
	}
	return scored, nil
}

func cosineDistance(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 1
	}
	return 1 - dot/(math.Sqrt(normA)*math.Sqrt(normB))
}
