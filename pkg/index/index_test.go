package index

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdf-insight-be/internal/entity"
)

func textChunk(docId uuid.UUID, ordinal int, text string) entity.Chunk {
	return entity.Chunk{
		Id:         entity.ChunkId(docId, ordinal),
		DocumentId: docId,
		Ordinal:    ordinal,
		Modality:   entity.ModalityText,
		Text:       text,
	}
}

func TestMemoryVectorIndex_QueryOrdersByCosineDesc(t *testing.T) {
	idx := NewMemoryVectorIndex(2)
	docId := uuid.New()
	chunks := []entity.Chunk{
		textChunk(docId, 0, "far"),
		textChunk(docId, 1, "near"),
		textChunk(docId, 2, "middle"),
	}
	vectors := [][]float32{
		{0, 1},
		{1, 0},
		{0.7071, 0.7071},
	}
	require.NoError(t, idx.UpsertDocument(context.Background(), docId, chunks, vectors))

	hits, err := idx.Query(context.Background(), []float32{1, 0}, 3, nil)
	require.NoError(t, err)
	require.Len(t, hits, 3)
	assert.Equal(t, chunks[1].Id, hits[0].ChunkId)
	assert.Equal(t, chunks[2].Id, hits[1].ChunkId)
	assert.Equal(t, chunks[0].Id, hits[2].ChunkId)
	assert.Equal(t, 1, hits[0].Rank)
	assert.Equal(t, 3, hits[2].Rank)
}

func TestMemoryVectorIndex_TiesBreakByInsertionOrder(t *testing.T) {
	idx := NewMemoryVectorIndex(2)
	docA := uuid.New()
	docB := uuid.New()
	same := [][]float32{{1, 0}}
	require.NoError(t, idx.UpsertDocument(context.Background(), docA, []entity.Chunk{textChunk(docA, 0, "first")}, same))
	require.NoError(t, idx.UpsertDocument(context.Background(), docB, []entity.Chunk{textChunk(docB, 0, "second")}, same))

	hits, err := idx.Query(context.Background(), []float32{1, 0}, 2, nil)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, entity.ChunkId(docA, 0), hits[0].ChunkId)
	assert.Equal(t, entity.ChunkId(docB, 0), hits[1].ChunkId)
}

func TestMemoryVectorIndex_KLargerThanSizeReturnsFewer(t *testing.T) {
	idx := NewMemoryVectorIndex(2)
	docId := uuid.New()
	require.NoError(t, idx.UpsertDocument(context.Background(), docId,
		[]entity.Chunk{textChunk(docId, 0, "only")}, [][]float32{{1, 0}}))

	hits, err := idx.Query(context.Background(), []float32{1, 0}, 50, nil)
	require.NoError(t, err)
	assert.Len(t, hits, 1)
}

func TestMemoryVectorIndex_DimensionMismatchRejected(t *testing.T) {
	idx := NewMemoryVectorIndex(3)
	docId := uuid.New()
	err := idx.UpsertDocument(context.Background(), docId,
		[]entity.Chunk{textChunk(docId, 0, "bad")}, [][]float32{{1, 0}})
	assert.Error(t, err)
	assert.Equal(t, 0, idx.Size())
}

func TestMemoryVectorIndex_UpsertReplacesDocument(t *testing.T) {
	idx := NewMemoryVectorIndex(2)
	docId := uuid.New()
	require.NoError(t, idx.UpsertDocument(context.Background(), docId, []entity.Chunk{
		textChunk(docId, 0, "v1 a"),
		textChunk(docId, 1, "v1 b"),
	}, [][]float32{{1, 0}, {0, 1}}))
	require.NoError(t, idx.UpsertDocument(context.Background(), docId, []entity.Chunk{
		textChunk(docId, 0, "v2"),
	}, [][]float32{{1, 0}}))

	assert.Equal(t, 1, idx.Size())
}

func TestMemoryVectorIndex_ModalityFilter(t *testing.T) {
	idx := NewMemoryVectorIndex(2)
	docId := uuid.New()
	table := textChunk(docId, 1, "table")
	table.Modality = entity.ModalityTable
	require.NoError(t, idx.UpsertDocument(context.Background(), docId,
		[]entity.Chunk{textChunk(docId, 0, "text"), table},
		[][]float32{{1, 0}, {1, 0}}))

	hits, err := idx.Query(context.Background(), []float32{1, 0}, 10, []entity.Modality{entity.ModalityTable})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, entity.ModalityTable, hits[0].Modality)
}

func TestDeleteDocument_RemovesFromBothIndexes(t *testing.T) {
	vec := NewMemoryVectorIndex(2)
	sparse := NewMemorySparseIndex()
	keep := uuid.New()
	gone := uuid.New()
	ctx := context.Background()

	require.NoError(t, vec.UpsertDocument(ctx, keep, []entity.Chunk{textChunk(keep, 0, "kept revenue")}, [][]float32{{1, 0}}))
	require.NoError(t, vec.UpsertDocument(ctx, gone, []entity.Chunk{textChunk(gone, 0, "doomed revenue")}, [][]float32{{1, 0}}))
	require.NoError(t, sparse.UpsertDocument(ctx, keep, []entity.Chunk{textChunk(keep, 0, "kept revenue")}))
	require.NoError(t, sparse.UpsertDocument(ctx, gone, []entity.Chunk{textChunk(gone, 0, "doomed revenue")}))

	require.NoError(t, vec.DeleteDocument(ctx, gone))
	require.NoError(t, sparse.DeleteDocument(ctx, gone))

	vecHits, err := vec.Query(ctx, []float32{1, 0}, 10, nil)
	require.NoError(t, err)
	sparseHits, err := sparse.Query(ctx, "revenue", 10, nil)
	require.NoError(t, err)

	require.Len(t, vecHits, 1)
	require.Len(t, sparseHits, 1)
	assert.Equal(t, entity.ChunkId(keep, 0), vecHits[0].ChunkId)
	assert.Equal(t, entity.ChunkId(keep, 0), sparseHits[0].ChunkId)
}

func TestMemorySparseIndex_TermFrequencyOrdering(t *testing.T) {
	idx := NewMemorySparseIndex()
	docId := uuid.New()
	require.NoError(t, idx.UpsertDocument(context.Background(), docId, []entity.Chunk{
		textChunk(docId, 0, "revenue revenue revenue grew strongly"),
		textChunk(docId, 1, "revenue was flat"),
		textChunk(docId, 2, "headcount grew"),
	}))

	hits, err := idx.Query(context.Background(), "revenue", 10, nil)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, entity.ChunkId(docId, 0), hits[0].ChunkId)
	assert.Equal(t, entity.ChunkId(docId, 1), hits[1].ChunkId)
	assert.Greater(t, hits[0].Score, hits[1].Score)
}

func TestMemorySparseIndex_EmptyQueryReturnsNothing(t *testing.T) {
	idx := NewMemorySparseIndex()
	docId := uuid.New()
	require.NoError(t, idx.UpsertDocument(context.Background(), docId,
		[]entity.Chunk{textChunk(docId, 0, "content")}))

	hits, err := idx.Query(context.Background(), "the of and", 5, nil)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestMemoryVectorIndex_ConcurrentReadersDuringWrites(t *testing.T) {
	idx := NewMemoryVectorIndex(2)
	ctx := context.Background()
	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			docId := uuid.New()
			for i := 0; i < 25; i++ {
				_ = idx.UpsertDocument(ctx, docId, []entity.Chunk{textChunk(docId, 0, "x")}, [][]float32{{1, 0}})
			}
		}()
	}
	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				hits, err := idx.Query(ctx, []float32{1, 0}, 10, nil)
				assert.NoError(t, err)
				// Every visible hit belongs to a fully committed document.
				for _, h := range hits {
					assert.NotEmpty(t, h.ChunkId)
				}
			}
		}()
	}
	wg.Wait()
}
