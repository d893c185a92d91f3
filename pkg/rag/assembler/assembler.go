package assembler

import (
	"context"
	"fmt"
	"strings"

	"pdf-insight-be/internal/entity"
	"pdf-insight-be/pkg/rag/retriever"
)

// Entry is one grounded context item. Label is the citation handle the
// synthesizer hands to the language model; Score carries the normalized
// fused score forward for confidence computation.
type Entry struct {
	Chunk     entity.Chunk
	Label     string
	Score     float64
	Rerank    float64
	Truncated bool
}

// GroundedContext is the ordered, deduplicated, budget-bounded chunk set a
// single answer is grounded on.
type GroundedContext struct {
	Entries []Entry
	Size    int
}

func (g GroundedContext) Labels() []string {
	labels := make([]string, len(g.Entries))
	for i, e := range g.Entries {
		labels[i] = e.Label
	}
	return labels
}

func (g GroundedContext) HasModality(m entity.Modality) bool {
	for _, e := range g.Entries {
		if e.Chunk.Modality == m {
			return true
		}
	}
	return false
}

// Assembler packs fused results into a character budget, preserving result
// order and modality attribution.
type Assembler struct {
	chunks retriever.ChunkSource
	budget int
}

func NewAssembler(chunks retriever.ChunkSource, budget int) *Assembler {
	if budget <= 0 {
		budget = 8000
	}
	return &Assembler{chunks: chunks, budget: budget}
}

// Assemble walks results in order, appending each chunk until the budget
// would overflow. Duplicate chunk ids are skipped. A chunk that alone
// exceeds the remaining budget is truncated at a sentence boundary rather
// than dropped, and closes the context.
func (a *Assembler) Assemble(ctx context.Context, results []retriever.FusedResult) (GroundedContext, error) {
	ids := make([]string, len(results))
	for i, r := range results {
		ids[i] = r.ChunkId
	}
	chunks, err := a.chunks.GetChunks(ctx, ids)
	if err != nil {
		return GroundedContext{}, fmt.Errorf("resolve context chunks: %w", err)
	}

	var out GroundedContext
	seen := make(map[string]struct{}, len(results))
	for _, r := range results {
		if _, dup := seen[r.ChunkId]; dup {
			continue
		}
		chunk, ok := chunks[r.ChunkId]
		if !ok {
			continue
		}
		seen[r.ChunkId] = struct{}{}

		entry := Entry{
			Chunk:  chunk,
			Label:  chunk.Label(),
			Score:  r.Score,
			Rerank: r.Rerank,
		}

		remaining := a.budget - out.Size
		if len(entry.Chunk.Text) > remaining {
			truncated := truncateAtSentence(entry.Chunk.Text, remaining)
			if truncated == "" {
				break
			}
			entry.Chunk.Text = truncated
			entry.Truncated = true
			out.Entries = append(out.Entries, entry)
			out.Size += len(truncated)
			break
		}

		out.Entries = append(out.Entries, entry)
		out.Size += len(entry.Chunk.Text)
	}
	return out, nil
}

// truncateAtSentence returns the longest prefix of whole sentences that fits
// in limit bytes. When not even one sentence fits it falls back to a word
// boundary so partial grounding survives, and to a hard cut as a last step.
func truncateAtSentence(text string, limit int) string {
	if limit <= 0 {
		return ""
	}
	window := text[:limit]
	cut := -1
	for i, r := range window {
		if r != '.' && r != '!' && r != '?' {
			continue
		}
		if i+1 >= len(window) || window[i+1] == ' ' || window[i+1] == '\n' {
			cut = i + 1
		}
	}
	if cut > 0 {
		return strings.TrimRight(window[:cut], " \n")
	}
	if sp := strings.LastIndexByte(window, ' '); sp > 0 {
		return window[:sp]
	}
	return window
}
