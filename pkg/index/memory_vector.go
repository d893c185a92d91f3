package index

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/google/uuid"

	"pdf-insight-be/internal/entity"
)

type vectorRecord struct {
	chunkId  string
	modality entity.Modality
	vector   []float32
	seq      uint64
}

// MemoryVectorIndex is an in-memory vector store using brute-force cosine
// similarity. Writes build a fresh snapshot slice and swap it in under the
// lock, so readers iterate an immutable snapshot and never observe a
// half-upserted document.
type MemoryVectorIndex struct {
	mu        sync.RWMutex
	dimension int
	byDoc     map[uuid.UUID][]vectorRecord
	snapshot  []vectorRecord
	nextSeq   uint64
}

func NewMemoryVectorIndex(dimension int) *MemoryVectorIndex {
	return &MemoryVectorIndex{
		dimension: dimension,
		byDoc:     make(map[uuid.UUID][]vectorRecord),
	}
}

func (s *MemoryVectorIndex) UpsertDocument(ctx context.Context, documentId uuid.UUID, chunks []entity.Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return errors.New("chunks and vectors length mismatch")
	}
	for _, v := range vectors {
		if len(v) != s.dimension {
			return errors.New("vector dimension mismatch")
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	records := make([]vectorRecord, len(chunks))
	for i, c := range chunks {
		s.nextSeq++
		records[i] = vectorRecord{
			chunkId:  c.Id,
			modality: c.Modality,
			vector:   vectors[i],
			seq:      s.nextSeq,
		}
	}
	s.byDoc[documentId] = records
	s.rebuildSnapshotLocked()
	return nil
}

func (s *MemoryVectorIndex) DeleteDocument(ctx context.Context, documentId uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byDoc[documentId]; !ok {
		return nil
	}
	delete(s.byDoc, documentId)
	s.rebuildSnapshotLocked()
	return nil
}

func (s *MemoryVectorIndex) Query(ctx context.Context, vector []float32, k int, modalities []entity.Modality) ([]Hit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	snap := s.snapshot
	s.mu.RUnlock()

	type scored struct {
		rec   vectorRecord
		score float64
	}
	candidates := make([]scored, 0, len(snap))
	for _, rec := range snap {
		if !matchesModality(rec.modality, modalities) {
			continue
		}
		candidates = append(candidates, scored{rec: rec, score: dot(rec.vector, vector)})
	}
	// Descending score, equal scores keep insertion order.
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

func (s *MemoryVectorIndex) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.snapshot)
}

// rebuildSnapshotLocked materializes a new immutable view in insertion order.
func (s *MemoryVectorIndex) rebuildSnapshotLocked() {
	snap := make([]vectorRecord, 0, len(s.snapshot))
	for _, records := range s.byDoc {
		snap = append(snap, records...)
	}
	sort.Slice(snap, func(i, j int) bool { return snap[i].seq < snap[j].seq })
	s.snapshot = snap
}

// dot computes cosine similarity for unit-length vectors.
func dot(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	sum := 0.0
	for i := 0; i < n; i++ {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
