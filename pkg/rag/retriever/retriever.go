package retriever

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"pdf-insight-be/internal/entity"
	"pdf-insight-be/pkg/embedding"
	"pdf-insight-be/pkg/index"
	"pdf-insight-be/pkg/rerank"
)

// ChunkSource resolves chunk ids back to their stored chunks so the re-ranker
// and assembler can see the text surrogate.
type ChunkSource interface {
	GetChunks(ctx context.Context, chunkIds []string) (map[string]entity.Chunk, error)
}

// FusedResult is one retrieval candidate after fusion and re-ranking.
// Fused is the raw reciprocal-rank sum, Score its min-max normalization over
// the candidate set, Rerank the relevance model's score. A zero rank means
// the chunk was absent from that source.
type FusedResult struct {
	ChunkId     string
	Modality    entity.Modality
	Fused       float64
	Score       float64
	Rerank      float64
	DenseRank   int
	SparseRank  int
	DenseScore  float64
	SparseScore float64
}

type Options struct {
	Kappa float64
}

// HybridRetriever runs dense and sparse retrieval concurrently, fuses both
// rankings, then re-ranks a narrow candidate pool with the external relevance
// capability. Wide-and-cheap fusion plus narrow-and-expensive re-ranking is
// the engine's main latency/quality trade-off.
type HybridRetriever struct {
	embedder embedding.Provider
	vector   index.VectorIndex
	sparse   index.SparseIndex
	chunks   ChunkSource
	scorer   rerank.RelevanceScorer
	kappa    float64
}

func NewHybridRetriever(
	embedder embedding.Provider,
	vector index.VectorIndex,
	sparse index.SparseIndex,
	chunks ChunkSource,
	scorer rerank.RelevanceScorer,
	opts Options,
) *HybridRetriever {
	kappa := opts.Kappa
	if kappa <= 0 {
		kappa = 60
	}
	return &HybridRetriever{
		embedder: embedder,
		vector:   vector,
		sparse:   sparse,
		chunks:   chunks,
		scorer:   scorer,
		kappa:    kappa,
	}
}

// Retrieve returns the top k fused candidates ordered by re-rank score.
// One failing source degrades to the survivor; both failing is an error.
// The result is empty, not an error, when neither source has hits.
func (r *HybridRetriever) Retrieve(ctx context.Context, query string, k int, modalities []entity.Modality) ([]FusedResult, error) {
	if k <= 0 {
		return []FusedResult{}, nil
	}
	pool := 2 * k

	denseHits, sparseHits, err := r.fetchBoth(ctx, query, pool, modalities)
	if err != nil {
		return nil, err
	}

	fused := fuse(denseHits, sparseHits, r.kappa)
	if len(fused) == 0 {
		return []FusedResult{}, nil
	}
	if len(fused) > pool {
		fused = fused[:pool]
	}

	if err := r.rerankCandidates(ctx, query, fused); err != nil {
		return nil, err
	}

	// Re-rank order wins; stable sort keeps the fused order for equal scores.
	sort.SliceStable(fused, func(i, j int) bool {
		return fused[i].Rerank > fused[j].Rerank
	})
	if len(fused) > k {
		fused = fused[:k]
	}
	return fused, nil
}

// fetchBoth forks the two index lookups and joins them. The dense leg embeds
// the query first; an embedding failure kills only that leg.
func (r *HybridRetriever) fetchBoth(ctx context.Context, query string, pool int, modalities []entity.Modality) ([]index.Hit, []index.Hit, error) {
	var (
		wg        sync.WaitGroup
		denseHits []index.Hit
		denseErr  error
		sparse    []index.Hit
		sparseErr error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		vec, err := r.embedder.EmbedQuery(ctx, query)
		if err != nil {
			denseErr = fmt.Errorf("dense retrieval: %w", err)
			return
		}
		denseHits, denseErr = r.vector.Query(ctx, vec, pool, modalities)
	}()
	go func() {
		defer wg.Done()
		sparse, sparseErr = r.sparse.Query(ctx, query, pool, modalities)
	}()
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	if denseErr != nil && sparseErr != nil {
		return nil, nil, errors.Join(denseErr, sparseErr)
	}
	if denseErr != nil {
		denseHits = nil
	}
	if sparseErr != nil {
		sparse = nil
	}
	return denseHits, sparse, nil
}

func (r *HybridRetriever) rerankCandidates(ctx context.Context, query string, fused []FusedResult) error {
	ids := make([]string, len(fused))
	for i, f := range fused {
		ids[i] = f.ChunkId
	}
	chunks, err := r.chunks.GetChunks(ctx, ids)
	if err != nil {
		return fmt.Errorf("resolve candidates: %w", err)
	}

	texts := make([]string, len(fused))
	for i, f := range fused {
		if c, ok := chunks[f.ChunkId]; ok {
			texts[i] = c.Text
		}
	}

	scores, err := r.scorer.ScoreBatch(ctx, query, texts)
	if err != nil {
		return fmt.Errorf("re-ranking: %w", err)
	}
	if len(scores) != len(fused) {
		return fmt.Errorf("re-ranking returned %d scores for %d candidates", len(scores), len(fused))
	}
	for i := range fused {
		fused[i].Rerank = scores[i]
	}
	return nil
}
