package pgindex

import (
	"context"

	"github.com/google/uuid"

	"pdf-insight-be/internal/entity"
	"pdf-insight-be/internal/repository/contract"
	"pdf-insight-be/internal/repository/specification"
	"pdf-insight-be/pkg/index"
)

// PgVectorIndex is the pgvector-backed VectorIndex. Chunk rows and their
// embeddings are written by the ingestion transaction, so Upsert and Delete
// are satisfied by that same transaction: visibility is document-granular
// because readers only ever see committed rows. Query delegates to the
// repository's nearest-neighbor scan.
type PgVectorIndex struct {
	chunks    contract.ChunkRepository
	dimension int
}

var _ index.VectorIndex = (*PgVectorIndex)(nil)

func NewPgVectorIndex(chunks contract.ChunkRepository, dimension int) *PgVectorIndex {
	return &PgVectorIndex{chunks: chunks, dimension: dimension}
}

// UpsertDocument is a no-op: the ingestion unit of work has already written
// the chunk rows with their embeddings in the same transaction.
func (p *PgVectorIndex) UpsertDocument(ctx context.Context, documentId uuid.UUID, chunks []entity.Chunk, vectors [][]float32) error {
	return nil
}

// DeleteDocument is a no-op for the same reason; the catalog delete cascades
// to chunk rows.
func (p *PgVectorIndex) DeleteDocument(ctx context.Context, documentId uuid.UUID) error {
	return nil
}

func (p *PgVectorIndex) Query(ctx context.Context, vector []float32, k int, modalities []entity.Modality) ([]index.Hit, error) {
	mods := make([]string, len(modalities))
	for i, m := range modalities {
		mods[i] = string(m)
	}
	scored, err := p.chunks.SearchSimilar(ctx, vector, k, mods)
	if err != nil {
		return nil, err
	}
	hits := make([]index.Hit, len(scored))
	for i, s := range scored {
		hits[i] = index.Hit{
			ChunkId:  s.Chunk.Id,
			Score:    s.Similarity,
			Modality: s.Chunk.Modality,
			Rank:     i + 1,
		}
	}
	return hits, nil
}

func (p *PgVectorIndex) Size() int {
	count, err := p.chunks.Count(context.Background(), specification.EmbeddedOnly{})
	if err != nil {
		return 0
	}
	return int(count)
}
