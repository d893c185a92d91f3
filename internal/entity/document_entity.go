package entity

import (
	"time"

	"github.com/google/uuid"
)

// Document status values. A document becomes queryable only once its whole
// chunk set has been committed to the indices.
const (
	DocumentStatusIngesting = "ingesting"
	DocumentStatusReady     = "ready"
	DocumentStatusDegraded  = "degraded" // embeddings unavailable, sparse retrieval only
	DocumentStatusFailed    = "failed"
)

type Document struct {
	Id        uuid.UUID
	Title     string
	PageCount int
	Status    string
	CreatedAt time.Time
	UpdatedAt *time.Time
}
