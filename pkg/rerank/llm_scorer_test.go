package rerank

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdf-insight-be/pkg/llm"
)

type fakeLLM struct {
	response string
	err      error
}

func (f *fakeLLM) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	return f.response, f.err
}

func (f *fakeLLM) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	return f.response, f.err
}

func TestLLMScorer_ParsesPlainArray(t *testing.T) {
	s := NewLLMScorer(&fakeLLM{response: "[0.9, 0.1, 0.5]"})
	scores, err := s.ScoreBatch(context.Background(), "q", []string{"a", "b", "c"})
	require.NoError(t, err)
	assert.Equal(t, []float64{0.9, 0.1, 0.5}, scores)
}

func TestLLMScorer_ParsesFencedArray(t *testing.T) {
	s := NewLLMScorer(&fakeLLM{response: "Here are the scores:\n```json\n[1.0, 0.0]\n```"})
	scores, err := s.ScoreBatch(context.Background(), "q", []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, []float64{1.0, 0.0}, scores)
}

func TestLLMScorer_CountMismatchFails(t *testing.T) {
	s := NewLLMScorer(&fakeLLM{response: "[0.5]"})
	_, err := s.ScoreBatch(context.Background(), "q", []string{"a", "b"})
	assert.Error(t, err)
}

func TestLLMScorer_ClampsOutOfRange(t *testing.T) {
	s := NewLLMScorer(&fakeLLM{response: "[1.5, -0.5]"})
	scores, err := s.ScoreBatch(context.Background(), "q", []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, []float64{1.0, 0.0}, scores)
}

func TestLLMScorer_EmptyPool(t *testing.T) {
	s := NewLLMScorer(&fakeLLM{response: "[]"})
	scores, err := s.ScoreBatch(context.Background(), "q", nil)
	require.NoError(t, err)
	assert.Empty(t, scores)
}
