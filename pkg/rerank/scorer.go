package rerank

import "context"

// RelevanceScorer is the second-pass relevance capability: it scores a small
// candidate pool against the literal query, one call per pool. Scores are
// positionally aligned with candidates and higher means more relevant.
type RelevanceScorer interface {
	ScoreBatch(ctx context.Context, query string, candidates []string) ([]float64, error)
}
