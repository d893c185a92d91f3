package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdf-insight-be/internal/dto"
	"pdf-insight-be/internal/entity"
	"pdf-insight-be/internal/repository/memory"
	"pdf-insight-be/pkg/embedding"
	"pdf-insight-be/pkg/index"
	"pdf-insight-be/pkg/llm"
	"pdf-insight-be/pkg/rag/assembler"
	"pdf-insight-be/pkg/rag/chart"
	"pdf-insight-be/pkg/rag/response"
	"pdf-insight-be/pkg/rag/retriever"
	"pdf-insight-be/pkg/rag/state"
)

type fakeEmbedder struct {
	queryVector []float32
	fail        error
}

func (f *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string, task embedding.TaskType) ([][]float32, error) {
	if f.fail != nil {
		return nil, f.fail
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = f.queryVector
	}
	return out, nil
}

func (f *fakeEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if f.fail != nil {
		return nil, f.fail
	}
	return f.queryVector, nil
}

func (f *fakeEmbedder) Dimensions() int { return 3 }

type fakeLLM struct {
	reply string
	err   error
}

func (f *fakeLLM) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	return f.reply, f.err
}

func (f *fakeLLM) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	return f.reply, f.err
}

type uniformScorer struct{}

func (uniformScorer) ScoreBatch(ctx context.Context, query string, candidates []string) ([]float64, error) {
	scores := make([]float64, len(candidates))
	for i := range scores {
		scores[i] = 0.9 - 0.01*float64(i)
	}
	return scores, nil
}

type mapChunkSource map[string]entity.Chunk

func (m mapChunkSource) GetChunks(ctx context.Context, chunkIds []string) (map[string]entity.Chunk, error) {
	out := make(map[string]entity.Chunk, len(chunkIds))
	for _, id := range chunkIds {
		if c, ok := m[id]; ok {
			out[id] = c
		}
	}
	return out, nil
}

type nopLogger struct{}

func (nopLogger) Debug(module, message string, details map[string]interface{}) {}
func (nopLogger) Info(module, message string, details map[string]interface{})  {}
func (nopLogger) Warn(module, message string, details map[string]interface{})  {}
func (nopLogger) Error(module, message string, details map[string]interface{}) {}
func (nopLogger) Sync() error                                                  { return nil }

func seedChunks(t *testing.T, docId uuid.UUID) ([]entity.Chunk, index.VectorIndex, index.SparseIndex, mapChunkSource) {
	t.Helper()

	chunks := []entity.Chunk{
		{
			Id:         entity.ChunkId(docId, 0),
			DocumentId: docId,
			Ordinal:    0,
			Page:       1,
			Modality:   entity.ModalityText,
			Text:       "Revenue grew every quarter of 2025, driven by cloud services.",
		},
		{
			Id:         entity.ChunkId(docId, 1),
			DocumentId: docId,
			Ordinal:    1,
			Page:       2,
			Modality:   entity.ModalityTable,
			Text:       "Quarter | Revenue\nQ1 | 1200\nQ2 | 1450\nQ3 | 1800",
			Table: &entity.TableData{
				Columns: []string{"Quarter", "Revenue"},
				Rows:    [][]string{{"Q1", "1200"}, {"Q2", "1450"}, {"Q3", "1800"}},
			},
		},
	}

	vectorIndex := index.NewMemoryVectorIndex(3)
	sparseIndex := index.NewMemorySparseIndex()
	vectors := [][]float32{{1, 0, 0}, {0, 1, 0}}
	require.NoError(t, vectorIndex.UpsertDocument(context.Background(), docId, chunks, vectors))
	require.NoError(t, sparseIndex.UpsertDocument(context.Background(), docId, chunks))

	source := make(mapChunkSource, len(chunks))
	for _, c := range chunks {
		source[c.Id] = c
	}
	return chunks, vectorIndex, sparseIndex, source
}

func newTestQueryService(t *testing.T, docId uuid.UUID, provider llm.LLMProvider, embedder embedding.Provider) (IQueryService, *memory.SessionRepository) {
	t.Helper()

	_, vectorIndex, sparseIndex, source := seedChunks(t, docId)

	hybrid := retriever.NewHybridRetriever(embedder, vectorIndex, sparseIndex, source, uniformScorer{}, retriever.Options{})
	contextAssembler := assembler.NewAssembler(source, 8000)
	synthesizer := response.NewSynthesizer(provider, response.DefaultConfig())
	planner := chart.NewPlanner(chart.KeywordClassifier{})
	sessionRepo := memory.NewSessionRepository()

	return NewQueryService(hybrid, contextAssembler, synthesizer, planner, sessionRepo, nopLogger{}, 4), sessionRepo
}

func TestQuery_AnswersWithCitationsAndChart(t *testing.T) {
	docId := uuid.New()
	label := entity.ChunkId(docId, 0)
	provider := &fakeLLM{reply: fmt.Sprintf("Revenue grew steadily over 2025 [%s].", label)}
	svc, _ := newTestQueryService(t, docId, provider, &fakeEmbedder{queryVector: []float32{1, 0, 0}})

	res, err := svc.Query(context.Background(), &dto.QueryRequest{
		Query: "How did revenue trend over the quarters?",
	})
	require.NoError(t, err)

	assert.Equal(t, string(state.Completed), res.State)
	assert.Contains(t, res.Answer, "Revenue grew steadily")
	require.Len(t, res.Citations, 1)
	assert.Equal(t, label, res.Citations[0].Label)
	assert.Equal(t, 1, res.Citations[0].Page)
	assert.False(t, res.LowConfidence)

	// Trend question over a quarterly table yields a line chart.
	require.NotNil(t, res.Chart)
	assert.Equal(t, chart.ChartLine, res.Chart.Type)
}

func TestQuery_AssignsSessionAndKeepsHistory(t *testing.T) {
	docId := uuid.New()
	label := entity.ChunkId(docId, 0)
	provider := &fakeLLM{reply: fmt.Sprintf("Growth was strong [%s].", label)}
	svc, sessionRepo := newTestQueryService(t, docId, provider, &fakeEmbedder{queryVector: []float32{1, 0, 0}})

	first, err := svc.Query(context.Background(), &dto.QueryRequest{Query: "What happened to revenue?"})
	require.NoError(t, err)
	require.NotEmpty(t, first.SessionId)

	second, err := svc.Query(context.Background(), &dto.QueryRequest{
		Query:     "And what drove it?",
		SessionId: first.SessionId,
	})
	require.NoError(t, err)
	assert.Equal(t, first.SessionId, second.SessionId)

	session, found := sessionRepo.Get(first.SessionId)
	require.True(t, found)
	assert.Len(t, session.History, 4)
	assert.Equal(t, "And what drove it?", session.LastQuery)
}

func TestQuery_EmptyIndexesReturnsInsufficientInfo(t *testing.T) {
	provider := &fakeLLM{reply: "should never be called"}
	source := mapChunkSource{}
	hybrid := retriever.NewHybridRetriever(
		&fakeEmbedder{queryVector: []float32{1, 0, 0}},
		index.NewMemoryVectorIndex(3),
		index.NewMemorySparseIndex(),
		source, uniformScorer{}, retriever.Options{},
	)
	svc := NewQueryService(
		hybrid,
		assembler.NewAssembler(source, 8000),
		response.NewSynthesizer(provider, response.DefaultConfig()),
		chart.NewPlanner(chart.KeywordClassifier{}),
		memory.NewSessionRepository(),
		nopLogger{},
		4,
	)

	res, err := svc.Query(context.Background(), &dto.QueryRequest{Query: "anything at all"})
	require.NoError(t, err)

	assert.Equal(t, response.InsufficientInfoAnswer, res.Answer)
	assert.True(t, res.LowConfidence)
	assert.Zero(t, res.Confidence)
	assert.Empty(t, res.Citations)
	assert.Nil(t, res.Chart)
	assert.Equal(t, string(state.Completed), res.State)
}

func TestQuery_SynthesisFailurePropagates(t *testing.T) {
	docId := uuid.New()
	provider := &fakeLLM{err: &llm.GenerationError{Retryable: true, Err: context.DeadlineExceeded}}
	svc, _ := newTestQueryService(t, docId, provider, &fakeEmbedder{queryVector: []float32{1, 0, 0}})

	_, err := svc.Query(context.Background(), &dto.QueryRequest{Query: "revenue growth"})
	require.Error(t, err)
	assert.True(t, llm.IsRetryable(err))
}

func TestQuery_ModalityFilterRestrictsContext(t *testing.T) {
	docId := uuid.New()
	label := entity.ChunkId(docId, 1)
	provider := &fakeLLM{reply: fmt.Sprintf("The table shows growth [%s].", label)}
	svc, _ := newTestQueryService(t, docId, provider, &fakeEmbedder{queryVector: []float32{0, 1, 0}})

	res, err := svc.Query(context.Background(), &dto.QueryRequest{
		Query:      "Show quarterly revenue numbers",
		Modalities: []string{"table"},
	})
	require.NoError(t, err)

	require.Len(t, res.Citations, 1)
	assert.Equal(t, label, res.Citations[0].Label)
	assert.Equal(t, 2, res.Citations[0].Page)
}
