package entity

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Chunk quality flags.
const (
	ChunkQualityOK       = "ok"
	ChunkQualityDegraded = "degraded" // produced by the whole-unit fallback
)

// Chunk is the minimal retrievable unit of content. Its id doubles as the
// citation label: "<documentId>#<ordinal>", with Ordinal assigned
// document-wide at ingestion time. Seq is the chunk's position within its
// source unit and is strictly monotonic per unit.
type Chunk struct {
	Id         string
	DocumentId uuid.UUID
	UnitId     string
	Ordinal    int
	Seq        int
	Page       int
	Modality   Modality
	Text       string
	Overlap    int
	Quality    string
	Table      *TableData
	CreatedAt  time.Time
}

// ChunkId derives the stable chunk id (and citation label) from the document
// id and the document-wide chunk ordinal.
func ChunkId(documentId uuid.UUID, ordinal int) string {
	return fmt.Sprintf("%s#%d", documentId, ordinal)
}

// Label returns the citation label for this chunk.
func (c *Chunk) Label() string {
	return c.Id
}
