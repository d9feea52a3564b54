package candidate

import "path/filepath"

// Metadata keys used across the retrieval pipeline. The knowledge base
// attaches these to every chunk at ingest time.
const (
	MetaChunkType      = "chunk_type"
	MetaIndicatorTitle = "indicator_title"
	MetaImgPath        = "img_path"
	MetaContext        = "context"
	MetaSource         = "source"
)

// Chunk types stored under MetaChunkType.
const (
	ChunkTypeIndicatorComplete = "indicator_complete"
	ChunkTypeIndicatorImage    = "indicator_image"
	ChunkTypeGeneral           = "general"
)

// Candidate is a retrieved knowledge-base passage or image reference.
// Retrieval produces it, fusion and reranking mutate the score fields,
// afterwards it is treated as immutable.
type Candidate struct {
	ID       string         `json:"id"`
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata"`
	// Distance is the raw index distance, lower = more similar.
	Distance float64 `json:"distance"`

	TextScore   float64 `json:"text_score"`
	ImageScore  float64 `json:"image_score"`
	FinalScore  float64 `json:"final_score"`
	RerankScore float64 `json:"rerank_score"`
}

// MetaString returns the metadata value for key as a string, or "" when
// absent or not a string.
func (c *Candidate) MetaString(key string) string {
	if c.Metadata == nil {
		return ""
	}
	if v, ok := c.Metadata[key].(string); ok {
		return v
	}
	return ""
}

// ChunkType returns the chunk type, defaulting to general when unset.
func (c *Candidate) ChunkType() string {
	if t := c.MetaString(MetaChunkType); t != "" {
		return t
	}
	return ChunkTypeGeneral
}

// IsIndicator reports whether the candidate carries indicator-scoped content.
func (c *Candidate) IsIndicator() bool {
	t := c.ChunkType()
	return t == ChunkTypeIndicatorComplete || t == ChunkTypeIndicatorImage
}

// IsImage reports whether the candidate is an illustrative image chunk.
func (c *Candidate) IsImage() bool {
	if c.ChunkType() == ChunkTypeIndicatorImage {
		return true
	}
	return c.MetaString(MetaImgPath) != ""
}

// IndicatorTitle returns the reranking key for the candidate.
func (c *Candidate) IndicatorTitle() string {
	return c.MetaString(MetaIndicatorTitle)
}

// SourceName returns the base name of the chunk's source document.
func (c *Candidate) SourceName() string {
	src := c.MetaString(MetaSource)
	if src == "" {
		return ""
	}
	return filepath.Base(src)
}
