package embedding

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingProvider struct {
	queryCalls int
	err        error
}

func (p *countingProvider) EmbedBatch(ctx context.Context, texts []string, task TaskType) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 0, 0}
	}
	return out, nil
}

func (p *countingProvider) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	p.queryCalls++
	if p.err != nil {
		return nil, p.err
	}
	return []float32{0, 1, 0}, nil
}

func (p *countingProvider) Dimensions() int { return 3 }

func TestCachedProvider_MemoizesQueryEmbeddings(t *testing.T) {
	inner := &countingProvider{}
	cached := NewCachedProvider(inner)

	first, err := cached.EmbedQuery(context.Background(), "quarterly revenue")
	require.NoError(t, err)
	second, err := cached.EmbedQuery(context.Background(), "quarterly revenue")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, inner.queryCalls)

	_, err = cached.EmbedQuery(context.Background(), "different question")
	require.NoError(t, err)
	assert.Equal(t, 2, inner.queryCalls)
}

func TestCachedProvider_DoesNotCacheFailures(t *testing.T) {
	inner := &countingProvider{err: &UnavailableError{Transient: true, Err: errors.New("down")}}
	cached := NewCachedProvider(inner)

	_, err := cached.EmbedQuery(context.Background(), "q")
	require.Error(t, err)

	inner.err = nil
	_, err = cached.EmbedQuery(context.Background(), "q")
	require.NoError(t, err)
	assert.Equal(t, 2, inner.queryCalls)
}
