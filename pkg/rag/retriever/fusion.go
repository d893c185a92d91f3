package retriever

import (
	"sort"

	"pdf-insight-be/pkg/index"
)

// fuse combines two ranked hit lists with reciprocal rank fusion:
// fused(chunk) = Σ 1/(κ + rank) over the sources the chunk appears in.
// Per-source scores are min-max normalized first so both contribute on a
// comparable scale downstream; ordering itself is rank-based. The output is
// sorted by fused score descending, ties by better minimum rank, then chunk
// id, so the result is deterministic and independent of source arrival order.
func fuse(dense, sparse []index.Hit, kappa float64) []FusedResult {
	denseNorm := normalizeHits(dense)
	sparseNorm := normalizeHits(sparse)

	byId := make(map[string]*FusedResult, len(dense)+len(sparse))

	for i, h := range dense {
		byId[h.ChunkId] = &FusedResult{
			ChunkId:    h.ChunkId,
			Modality:   h.Modality,
			Fused:      1 / (kappa + float64(h.Rank)),
			DenseRank:  h.Rank,
			DenseScore: denseNorm[i],
		}
	}
	for i, h := range sparse {
		if f, ok := byId[h.ChunkId]; ok {
			f.Fused += 1 / (kappa + float64(h.Rank))
			f.SparseRank = h.Rank
			f.SparseScore = sparseNorm[i]
			continue
		}
		byId[h.ChunkId] = &FusedResult{
			ChunkId:     h.ChunkId,
			Modality:    h.Modality,
			Fused:       1 / (kappa + float64(h.Rank)),
			SparseRank:  h.Rank,
			SparseScore: sparseNorm[i],
		}
	}

	results := make([]FusedResult, 0, len(byId))
	for _, f := range byId {
		results = append(results, *f)
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Fused != results[j].Fused {
			return results[i].Fused > results[j].Fused
		}
		mi, mj := minRank(results[i]), minRank(results[j])
		if mi != mj {
			return mi < mj
		}
		return results[i].ChunkId < results[j].ChunkId
	})

	normalizeFused(results)
	return results
}

// normalizeHits maps raw per-source scores onto [0,1] by min-max within the
// source's result set. A single hit or zero variance normalizes to 1.0 so a
// degenerate source still contributes fully.
func normalizeHits(hits []index.Hit) []float64 {
	norm := make([]float64, len(hits))
	if len(hits) == 0 {
		return norm
	}
	lo, hi := hits[0].Score, hits[0].Score
	for _, h := range hits[1:] {
		if h.Score < lo {
			lo = h.Score
		}
		if h.Score > hi {
			hi = h.Score
		}
	}
	if hi == lo {
		for i := range norm {
			norm[i] = 1.0
		}
		return norm
	}
	for i, h := range hits {
		norm[i] = (h.Score - lo) / (hi - lo)
	}
	return norm
}

func minRank(f FusedResult) int {
	min := f.DenseRank
	if min == 0 || (f.SparseRank != 0 && f.SparseRank < min) {
		min = f.SparseRank
	}
	return min
}

// normalizeFused maps raw fusion scores onto [0,1] within the candidate set.
// A single candidate or zero variance normalizes to 1.0.
func normalizeFused(results []FusedResult) {
	if len(results) == 0 {
		return
	}
	lo, hi := results[0].Fused, results[0].Fused
	for _, f := range results[1:] {
		if f.Fused < lo {
			lo = f.Fused
		}
		if f.Fused > hi {
			hi = f.Fused
		}
	}
	if hi == lo {
		for i := range results {
			results[i].Score = 1.0
		}
		return
	}
	for i := range results {
		results[i].Score = (results[i].Fused - lo) / (hi - lo)
	}
}
