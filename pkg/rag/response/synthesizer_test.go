package response

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdf-insight-be/internal/entity"
	"pdf-insight-be/pkg/llm"
	"pdf-insight-be/pkg/rag/assembler"
)

type fakeLLM struct {
	response string
	err      error
	prompt   string
}

func (f *fakeLLM) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	return f.response, f.err
}

func (f *fakeLLM) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	f.prompt = prompt
	return f.response, f.err
}

func groundedContext(docId uuid.UUID, n int) assembler.GroundedContext {
	var g assembler.GroundedContext
	for i := 0; i < n; i++ {
		chunk := entity.Chunk{
			Id:         entity.ChunkId(docId, i),
			DocumentId: docId,
			Ordinal:    i,
			Modality:   entity.ModalityText,
			Text:       fmt.Sprintf("Fact number %d.", i),
		}
		g.Entries = append(g.Entries, assembler.Entry{
			Chunk:  chunk,
			Label:  chunk.Label(),
			Score:  1.0 - float64(i)*0.1,
			Rerank: 0.9 - float64(i)*0.1,
		})
		g.Size += len(chunk.Text)
	}
	return g
}

func TestSynthesize_EmptyContextAnswersInsufficientInfo(t *testing.T) {
	provider := &fakeLLM{response: "should never be called"}
	s := NewSynthesizer(provider, DefaultConfig())

	ans, err := s.Synthesize(context.Background(), "anything", assembler.GroundedContext{}, nil)
	require.NoError(t, err)
	assert.Equal(t, InsufficientInfoAnswer, ans.Text)
	assert.Zero(t, ans.Confidence)
	assert.True(t, ans.LowConfidence)
	assert.Empty(t, ans.Citations)
	assert.Empty(t, provider.prompt)
}

func TestSynthesize_ValidCitationsKept(t *testing.T) {
	docId := uuid.New()
	g := groundedContext(docId, 2)
	label0 := g.Entries[0].Label
	label1 := g.Entries[1].Label

	provider := &fakeLLM{response: fmt.Sprintf("Revenue grew [%s]. Costs fell [%s].", label0, label1)}
	s := NewSynthesizer(provider, DefaultConfig())

	ans, err := s.Synthesize(context.Background(), "how did the business do?", g, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{label0, label1}, ans.Citations)
	assert.Contains(t, ans.Text, label0)
	assert.Greater(t, ans.Confidence, 0.5)
}

func TestSynthesize_UnresolvedCitationStrippedAndPenalized(t *testing.T) {
	docId := uuid.New()
	g := groundedContext(docId, 1)
	label := g.Entries[0].Label
	bogus := entity.ChunkId(uuid.New(), 7)

	honest := &fakeLLM{response: fmt.Sprintf("Revenue grew [%s]. Margins improved [%s].", label, label)}
	hallucinated := &fakeLLM{response: fmt.Sprintf("Revenue grew [%s]. Margins improved [%s].", label, bogus)}

	s1 := NewSynthesizer(honest, DefaultConfig())
	s2 := NewSynthesizer(hallucinated, DefaultConfig())

	a1, err := s1.Synthesize(context.Background(), "q", g, nil)
	require.NoError(t, err)
	a2, err := s2.Synthesize(context.Background(), "q", g, nil)
	require.NoError(t, err)

	assert.NotContains(t, a2.Text, bogus)
	assert.Equal(t, []string{label}, a2.Citations)
	assert.Less(t, a2.Confidence, a1.Confidence)
}

func TestSynthesize_ConfidenceMonotonicInUncitedSentences(t *testing.T) {
	docId := uuid.New()
	g := groundedContext(docId, 1)
	label := g.Entries[0].Label

	prev := 1.1
	for uncited := 0; uncited <= 4; uncited++ {
		response := fmt.Sprintf("The cited claim [%s].", label)
		response += strings.Repeat(" An uncited claim.", uncited)
		provider := &fakeLLM{response: response}
		s := NewSynthesizer(provider, DefaultConfig())

		ans, err := s.Synthesize(context.Background(), "q", g, nil)
		require.NoError(t, err)
		assert.LessOrEqual(t, ans.Confidence, prev, "uncited=%d", uncited)
		prev = ans.Confidence
	}
}

func TestSynthesize_GenerationErrorPropagates(t *testing.T) {
	docId := uuid.New()
	g := groundedContext(docId, 1)
	genErr := &llm.GenerationError{Retryable: true, Err: assert.AnError}
	s := NewSynthesizer(&fakeLLM{err: genErr}, DefaultConfig())

	_, err := s.Synthesize(context.Background(), "q", g, nil)
	require.Error(t, err)
	assert.True(t, llm.IsRetryable(err))
}

func TestSynthesize_PromptCarriesContextAndRules(t *testing.T) {
	docId := uuid.New()
	g := groundedContext(docId, 2)
	provider := &fakeLLM{response: "ok"}
	s := NewSynthesizer(provider, DefaultConfig())

	_, err := s.Synthesize(context.Background(), "what happened?", g,
		[]llm.Message{{Role: "user", Content: "earlier question"}})
	require.NoError(t, err)
	assert.Contains(t, provider.prompt, "<context>")
	assert.Contains(t, provider.prompt, g.Entries[0].Label)
	assert.Contains(t, provider.prompt, "Fact number 1.")
	assert.Contains(t, provider.prompt, "<conversation_history>")
	assert.Contains(t, provider.prompt, "what happened?")
}

func TestSplitSentences(t *testing.T) {
	got := splitSentences("One. Two! Three? And a tail")
	assert.Len(t, got, 4)
	assert.Empty(t, splitSentences("   "))
}
