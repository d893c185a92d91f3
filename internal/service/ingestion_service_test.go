package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdf-insight-be/internal/dto"
	"pdf-insight-be/internal/entity"
	"pdf-insight-be/pkg/chunker"
	"pdf-insight-be/pkg/embedding"
)

func TestChunkUnits_AssignsDocumentWideOrdinals(t *testing.T) {
	svc := &ingestionService{chunkCfg: chunker.Config{TargetSize: 100, Overlap: 20}}
	documentId := uuid.New()

	long := strings.Repeat("Sentence about growth. ", 20)
	units := []entity.ContentUnit{
		{Id: uuid.NewString(), DocumentId: documentId, Page: 0, Modality: entity.ModalityText, Text: long},
		{Id: uuid.NewString(), DocumentId: documentId, Page: 1, Modality: entity.ModalityTable, Table: &entity.TableData{
			Columns: []string{"Quarter", "Revenue"},
			Rows:    [][]string{{"Q1", "100"}},
		}},
	}

	chunks := svc.chunkUnits(documentId, units, time.Now())
	require.Greater(t, len(chunks), 2, "long text unit must split into several chunks")

	for i, c := range chunks {
		assert.Equal(t, i, c.Ordinal)
		assert.Equal(t, entity.ChunkId(documentId, i), c.Id)
	}

	last := chunks[len(chunks)-1]
	assert.Equal(t, entity.ModalityTable, last.Modality)
	require.NotNil(t, last.Table)
	assert.Contains(t, last.Text, "Quarter | Revenue")
}

func TestToEntityUnits_MapsModalitiesAndTables(t *testing.T) {
	documentId := uuid.New()
	units := toEntityUnits(documentId, []dto.ContentUnitPayload{
		{Modality: "text", Page: 0, Text: "hello"},
		{Modality: "table", Page: 3, Columns: []string{"A", "A"}, Rows: [][]string{{"1", "2"}}},
		{Modality: "image", Page: 5, Text: "ocr text", Descriptor: "a diagram"},
	})

	require.Len(t, units, 3)
	for _, u := range units {
		assert.Equal(t, documentId, u.DocumentId)
		assert.NotEmpty(t, u.Id)
	}

	assert.Equal(t, entity.ModalityText, units[0].Modality)

	require.NotNil(t, units[1].Table)
	assert.Equal(t, []string{"A", "A"}, units[1].Table.Columns, "disambiguation happens at render time, not ingest")

	assert.Equal(t, "a diagram", units[2].Descriptor)
	assert.Equal(t, 6, pageCount(units))
}

type countingEmbedder struct {
	calls    int
	failures int
	err      error
	dims     int
}

func (c *countingEmbedder) EmbedBatch(ctx context.Context, texts []string, task embedding.TaskType) ([][]float32, error) {
	c.calls++
	if c.calls <= c.failures {
		return nil, c.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = make([]float32, c.dims)
		out[i][0] = 1
	}
	return out, nil
}

func (c *countingEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	v := make([]float32, c.dims)
	v[0] = 1
	return v, nil
}

func (c *countingEmbedder) Dimensions() int { return c.dims }

func TestEmbedBatchWithRetry_RecoversFromTransientFailure(t *testing.T) {
	provider := &countingEmbedder{
		failures: 1,
		err:      &embedding.UnavailableError{Transient: true, Err: errors.New("connection refused")},
		dims:     3,
	}
	cs := &consumerService{embeddingProvider: provider, batchSize: 32}

	vectors, err := cs.embedBatchWithRetry(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.Len(t, vectors, 2)
	assert.Equal(t, 2, provider.calls)
}

func TestEmbedBatchWithRetry_PermanentFailureStopsImmediately(t *testing.T) {
	provider := &countingEmbedder{
		failures: 10,
		err:      &embedding.UnavailableError{Transient: false, Err: errors.New("invalid api key")},
		dims:     3,
	}
	cs := &consumerService{embeddingProvider: provider, batchSize: 32}

	_, err := cs.embedBatchWithRetry(context.Background(), []string{"a"})
	require.Error(t, err)
	assert.Equal(t, 1, provider.calls)
	assert.False(t, embedding.IsRetryable(err))
}

func TestEmbedChunks_BatchesWholeChunkSet(t *testing.T) {
	provider := &countingEmbedder{dims: 3}
	cs := &consumerService{embeddingProvider: provider, batchSize: 2}

	chunks := []*entity.Chunk{
		{Id: "a", Text: "one"},
		{Id: "b", Text: "two"},
		{Id: "c", Text: "three"},
	}
	vectors, err := cs.embedChunks(context.Background(), chunks)
	require.NoError(t, err)
	assert.Len(t, vectors, 3)
	assert.Equal(t, 2, provider.calls, "3 chunks at batch size 2 need 2 calls")
}
