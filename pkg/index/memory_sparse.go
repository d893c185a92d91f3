package index

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"pdf-insight-be/internal/entity"
)

type sparseRecord struct {
	chunkId  string
	modality entity.Modality
	counts   map[string]int
	total    int
	seq      uint64
}

// MemorySparseIndex scores chunks by the term frequency of query tokens in
// the chunk's text surrogate. Same snapshot-swap visibility discipline as
// MemoryVectorIndex.
type MemorySparseIndex struct {
	mu       sync.RWMutex
	byDoc    map[uuid.UUID][]sparseRecord
	snapshot []sparseRecord
	nextSeq  uint64
}

func NewMemorySparseIndex() *MemorySparseIndex {
	return &MemorySparseIndex{
		byDoc: make(map[uuid.UUID][]sparseRecord),
	}
}

func (s *MemorySparseIndex) UpsertDocument(ctx context.Context, documentId uuid.UUID, chunks []entity.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	records := make([]sparseRecord, len(chunks))
	for i, c := range chunks {
		tokens := tokenize(c.Text)
		counts := make(map[string]int, len(tokens))
		for _, tok := range tokens {
			counts[tok]++
		}
		s.nextSeq++
		records[i] = sparseRecord{
			chunkId:  c.Id,
			modality: c.Modality,
			counts:   counts,
			total:    len(tokens),
			seq:      s.nextSeq,
		}
	}
	s.byDoc[documentId] = records
	s.rebuildSnapshotLocked()
	return nil
}

func (s *MemorySparseIndex) DeleteDocument(ctx context.Context, documentId uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byDoc[documentId]; !ok {
		return nil
	}
	delete(s.byDoc, documentId)
	s.rebuildSnapshotLocked()
	return nil
}

func (s *MemorySparseIndex) Query(ctx context.Context, query string, k int, modalities []entity.Modality) ([]Hit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	terms := tokenize(query)
	if len(terms) == 0 {
		return []Hit{}, nil
	}

	s.mu.RLock()
	snap := s.snapshot
	s.mu.RUnlock()

	type scored struct {
		rec   sparseRecord
		score float64
	}
	candidates := make([]scored, 0, len(snap))
	for _, rec := range snap {
		if !matchesModality(rec.modality, modalities) {
			continue
		}
		score := scoreTF(terms, rec)
		if score <= 0 {
			continue
		}
		candidates = append(candidates, scored{rec: rec, score: score})
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].rec.seq < candidates[j].rec.seq
	})

	if k > len(candidates) {
		k = len(candidates)
	}
	hits := make([]Hit, 0, k)
	for i := 0; i < k; i++ {
		hits = append(hits, Hit{
			ChunkId:  candidates[i].rec.chunkId,
			Score:    candidates[i].score,
			Modality: candidates[i].rec.modality,
			Rank:     i + 1,
		})
	}
	return hits, nil
}

func (s *MemorySparseIndex) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.snapshot)
}

func (s *MemorySparseIndex) rebuildSnapshotLocked() {
	snap := make([]sparseRecord, 0, len(s.snapshot))
	for _, records := range s.byDoc {
		snap = append(snap, records...)
	}
	sort.Slice(snap, func(i, j int) bool { return snap[i].seq < snap[j].seq })
	s.snapshot = snap
}

// scoreTF sums raw term frequencies of the query terms. Chunks with no
// matching term score zero and are dropped from the result set.
func scoreTF(terms []string, rec sparseRecord) float64 {
	if rec.total == 0 {
		return 0
	}
	matched := 0
	for _, t := range terms {
		matched += rec.counts[t]
	}
	return float64(matched)
}
