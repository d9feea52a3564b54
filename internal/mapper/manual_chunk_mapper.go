package mapper

import (
	"time"

	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"

	"github.com/QRui6/urban-inspection-rag/internal/entity"
	"github.com/QRui6/urban-inspection-rag/internal/model"
	"github.com/QRui6/urban-inspection-rag/pkg/rag/candidate"
)

type ManualChunkMapper struct{}

func NewManualChunkMapper() *ManualChunkMapper {
	return &ManualChunkMapper{}
}

func (m *ManualChunkMapper) ToEntity(e *model.ManualChunk) *entity.ManualChunk {
	if e == nil {
		return nil
	}

	var updatedAt *time.Time
	if !e.UpdatedAt.IsZero() {
		t := e.UpdatedAt
		updatedAt = &t
	}

	return &entity.ManualChunk{
		Id:             e.Id,
		Content:        e.Content,
		ChunkType:      e.ChunkType,
		IndicatorTitle: e.IndicatorTitle,
		ImgPath:        e.ImgPath,
		Context:        e.Context,
		Source:         e.Source,
		Metadata:       map[string]any(e.Metadata),
		Embedding:      e.Embedding.Slice(),
		CreatedAt:      e.CreatedAt,
		UpdatedAt:      updatedAt,
	}
}

func (m *ManualChunkMapper) ToModel(e *entity.ManualChunk) *model.ManualChunk {
	if e == nil {
		return nil
	}

	var updatedAt time.Time
	if e.UpdatedAt != nil {
		updatedAt = *e.UpdatedAt
	}

	return &model.ManualChunk{
		Id:             e.Id,
		Content:        e.Content,
		ChunkType:      e.ChunkType,
		IndicatorTitle: e.IndicatorTitle,
		ImgPath:        e.ImgPath,
		Context:        e.Context,
		Source:         e.Source,
		Metadata:       datatypes.JSONMap(e.Metadata),
		Embedding:      pgvector.NewVector(e.Embedding),
		CreatedAt:      e.CreatedAt,
		UpdatedAt:      updatedAt,
	}
}

func (m *ManualChunkMapper) ToEntities(chunks []*model.ManualChunk) []*entity.ManualChunk {
	entities := make([]*entity.ManualChunk, len(chunks))
	for i, e := range chunks {
		entities[i] = m.ToEntity(e)
	}
	return entities
}

// ToCandidate projects a chunk plus its query distance into the retrieval
// candidate shape. Typed columns win over raw metadata keys.
func (m *ManualChunkMapper) ToCandidate(e *entity.ManualChunk, distance float64) *candidate.Candidate {
	meta := make(map[string]any, len(e.Metadata)+5)
	for k, v := range e.Metadata {
		meta[k] = v
	}
	if e.ChunkType != "" {
		meta[candidate.MetaChunkType] = e.ChunkType
	}
	if e.IndicatorTitle != "" {
		meta[candidate.MetaIndicatorTitle] = e.IndicatorTitle
	}
	if e.ImgPath != "" {
		meta[candidate.MetaImgPath] = e.ImgPath
	}
	if e.Context != "" {
		meta[candidate.MetaContext] = e.Context
	}
	if e.Source != "" {
		meta[candidate.MetaSource] = e.Source
	}

	return &candidate.Candidate{
		ID:       e.Id.String(),
		Content:  e.Content,
		Metadata: meta,
		Distance: distance,
	}
}
