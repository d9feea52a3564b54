package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ManualChunk struct {
	Id             uuid.UUID         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Content        string            `gorm:"type:text"`
	ChunkType      string            `gorm:"type:varchar(32);index;default:'general'"`
	IndicatorTitle string            `gorm:"type:text"`
	ImgPath        string            `gorm:"type:text"`
	Context        string            `gorm:"type:text;column:chunk_context"`
	Source         string            `gorm:"type:text"`
	Metadata       datatypes.JSONMap `gorm:"type:jsonb"`
	Embedding      pgvector.Vector   `gorm:"type:vector(1024)"` // doubao-embedding-vision output size
	CreatedAt      time.Time         `gorm:"autoCreateTime"`
	UpdatedAt      time.Time         `gorm:"autoUpdateTime"`
	DeletedAt      gorm.DeletedAt    `gorm:"index"`
}

func (ManualChunk) TableName() string {
	return "manual_chunks"
}
