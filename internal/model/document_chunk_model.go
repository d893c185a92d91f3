package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

type DocumentChunk struct {
	Id         string    `gorm:"type:varchar(64);primaryKey"`
	DocumentId uuid.UUID `gorm:"type:uuid;not null;index"`
	UnitId     string    `gorm:"type:varchar(64);not null"`
	Ordinal    int       `gorm:"not null"`
	Seq        int       `gorm:"default:0"` // chunk index within its content unit
	Page       int       `gorm:"default:0"`
	Modality   string    `gorm:"type:varchar(16);not null;index"`
	Text       string    `gorm:"type:text"`
	Overlap    int       `gorm:"default:0"`
	Quality    string    `gorm:"type:varchar(16);not null"`
	// Tables keep their structured payload next to the text surrogate.
	TableColumns datatypes.JSON `gorm:"type:jsonb"`
	TableRows    datatypes.JSON `gorm:"type:jsonb"`
	// Embedded is false for chunks of degraded documents (sparse-only).
	Embedded       bool            `gorm:"default:false;index"`
	EmbeddingValue pgvector.Vector `gorm:"type:vector(1024)"`
	// InsertSeq orders equal-similarity hits by insertion.
	InsertSeq int64     `gorm:"autoIncrement;uniqueIndex"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (DocumentChunk) TableName() string {
	return "document_chunks"
}
