package index

import (
	"context"

	"github.com/google/uuid"

	"pdf-insight-be/internal/entity"
)

// Hit is one retrieval result. Score semantics differ by source: dense
// similarity lives in [-1,1], sparse term-frequency scores are unbounded
// non-negative. Rank is 1-based within the source's result list.
type Hit struct {
	ChunkId  string
	Score    float64
	Modality entity.Modality
	Rank     int
}

// VectorIndex stores (chunk, vector) pairs and answers nearest-neighbor
// queries by descending cosine similarity, ties broken by insertion order.
//
// A document's chunks become visible to readers only once UpsertDocument
// returns: writers never leak a half-indexed document to in-flight queries.
type VectorIndex interface {
	// UpsertDocument replaces the document's chunk set atomically.
	// vectors[i] belongs to chunks[i].
	UpsertDocument(ctx context.Context, documentId uuid.UUID, chunks []entity.Chunk, vectors [][]float32) error

	// DeleteDocument removes every chunk of the document. Unknown ids are a no-op.
	DeleteDocument(ctx context.Context, documentId uuid.UUID) error

	// Query returns up to k hits. k larger than the index returns fewer hits,
	// never an error. A nil modality filter matches everything.
	Query(ctx context.Context, vector []float32, k int, modalities []entity.Modality) ([]Hit, error)

	Size() int
}

// SparseIndex is the lexical counterpart: term-frequency scoring over each
// chunk's text surrogate, same ordering and visibility rules as VectorIndex.
type SparseIndex interface {
	UpsertDocument(ctx context.Context, documentId uuid.UUID, chunks []entity.Chunk) error
	DeleteDocument(ctx context.Context, documentId uuid.UUID) error
	Query(ctx context.Context, query string, k int, modalities []entity.Modality) ([]Hit, error)
	Size() int
}

func matchesModality(m entity.Modality, filter []entity.Modality) bool {
	if len(filter) == 0 {
		return true
	}
	for _, f := range filter {
		if m == f {
			return true
		}
	}
	return false
}
