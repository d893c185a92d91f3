package contract

import (
	"context"

	"github.com/google/uuid"

	"pdf-insight-be/internal/entity"
	"pdf-insight-be/internal/repository/specification"
)

// ScoredChunk wraps a chunk with its cosine similarity to the query vector
type ScoredChunk struct {
	Chunk      *entity.Chunk
	Similarity float64 // 0.0 to 1.0 (1.0 = identical)
}

type ChunkRepository interface {
	// CreateBulk stores a document's chunk set. vectors is positionally
	// aligned with chunks and may be nil when embeddings are unavailable.
	CreateBulk(ctx context.Context, chunks []*entity.Chunk, vectors [][]float32) error
	DeleteByDocumentId(ctx context.Context, documentId uuid.UUID) error
	FindByIds(ctx context.Context, ids []string) ([]*entity.Chunk, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Chunk, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
	// SearchSimilar runs a pgvector nearest-neighbor scan over embedded
	// chunks, ordered by similarity descending with insertion-order
	// tie-break.
	SearchSimilar(ctx context.Context, embedding []float32, limit int, modalities []string) ([]*ScoredChunk, error)
}
