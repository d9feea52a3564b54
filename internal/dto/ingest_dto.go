package dto

// IngestChunkMessage is the payload published on the ingest topic for every
// manual chunk that needs (re)embedding and indexing.
type IngestChunkMessage struct {
	ID             string         `json:"id" validate:"required"`
	Content        string         `json:"content"`
	ChunkType      string         `json:"chunk_type" validate:"required,oneof=indicator_complete indicator_image general"`
	IndicatorTitle string         `json:"indicator_title"`
	ImgPath        string         `json:"img_path"`
	Context        string         `json:"context"`
	Source         string         `json:"source"`
	Metadata       map[string]any `json:"metadata"`
}
