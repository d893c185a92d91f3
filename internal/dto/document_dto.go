package dto

import (
	"time"

	"github.com/google/uuid"
)

// ContentUnitPayload is one extracted piece of a document page as submitted
// by an extraction pipeline. Exactly one payload field matters per modality.
type ContentUnitPayload struct {
	Modality   string     `json:"modality" validate:"required,oneof=text table image"`
	Page       int        `json:"page" validate:"gte=0"`
	Text       string     `json:"text"`
	Columns    []string   `json:"columns"`
	Rows       [][]string `json:"rows"`
	Descriptor string     `json:"descriptor"`
}

type IngestDocumentRequest struct {
	Title string               `json:"title" validate:"required"`
	Units []ContentUnitPayload `json:"units" validate:"required,min=1,dive"`
}

type IngestDocumentResponse struct {
	Id     uuid.UUID `json:"id"`
	Status string    `json:"status"`
}

type ShowDocumentResponse struct {
	Id         uuid.UUID  `json:"id"`
	Title      string     `json:"title"`
	Status     string     `json:"status"`
	PageCount  int        `json:"page_count"`
	ChunkCount int64      `json:"chunk_count"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  *time.Time `json:"updated_at"`
}

type ListDocumentsResponse struct {
	Id        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	Status    string    `json:"status"`
	PageCount int       `json:"page_count"`
	CreatedAt time.Time `json:"created_at"`
}

type StatsResponse struct {
	Documents       int64 `json:"documents"`
	Chunks          int64 `json:"chunks"`
	EmbeddedChunks  int64 `json:"embedded_chunks"`
	VectorIndexSize int   `json:"vector_index_size"`
	SparseIndexSize int   `json:"sparse_index_size"`
}

// PublishIngestMessage is the payload queued for the ingestion consumer.
type PublishIngestMessage struct {
	DocumentId uuid.UUID `json:"document_id"`
}
