package entity

import (
	"time"

	"github.com/google/uuid"
)

// ManualChunk is one indexed fragment of the inspection manual: a complete
// indicator section, a case photo, or a general passage.
type ManualChunk struct {
	Id             uuid.UUID
	Content        string
	ChunkType      string
	IndicatorTitle string
	ImgPath        string
	Context        string
	Source         string
	Metadata       map[string]any
	Embedding      []float32
	CreatedAt      time.Time
	UpdatedAt      *time.Time
}
