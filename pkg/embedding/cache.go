package embedding

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
)

// CachedProvider memoizes query embeddings. Follow-up questions in a chat
// session frequently repeat the same query text; document embedding stays
// uncached since documents embed once.
type CachedProvider struct {
	inner Provider
	cache *cache.Cache
}

func NewCachedProvider(inner Provider) *CachedProvider {
	return &CachedProvider{
		inner: inner,
		cache: cache.New(15*time.Minute, 5*time.Minute),
	}
}

func (p *CachedProvider) EmbedBatch(ctx context.Context, texts []string, task TaskType) ([][]float32, error) {
	return p.inner.EmbedBatch(ctx, texts, task)
}

func (p *CachedProvider) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if v, found := p.cache.Get(text); found {
		return v.([]float32), nil
	}
	vector, err := p.inner.EmbedQuery(ctx, text)
	if err != nil {
		return nil, err
	}
	p.cache.Set(text, vector, cache.DefaultExpiration)
	return vector, nil
}

func (p *CachedProvider) Dimensions() int { return p.inner.Dimensions() }
