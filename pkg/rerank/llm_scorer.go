package rerank

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"pdf-insight-be/pkg/llm"
)

// LLMScorer scores candidates with a general language model when no dedicated
// reranking backend is configured. One call per pool: the model receives every
// candidate and returns a JSON array of scores.
type LLMScorer struct {
	provider llm.LLMProvider
}

func NewLLMScorer(provider llm.LLMProvider) *LLMScorer {
	return &LLMScorer{provider: provider}
}

func (s *LLMScorer) ScoreBatch(ctx context.Context, query string, candidates []string) ([]float64, error) {
	if len(candidates) == 0 {
		return []float64{}, nil
	}

	var sb strings.Builder
	sb.WriteString("<task>\n")
	sb.WriteString("Rate how relevant each passage is to the query on a 0.0-1.0 scale.\n")
	sb.WriteString("Respond with ONLY a JSON array of numbers, one per passage, in order.\n")
	sb.WriteString("</task>\n\n")
	sb.WriteString(fmt.Sprintf("<query>%s</query>\n\n", query))
	for i, c := range candidates {
		sb.WriteString(fmt.Sprintf("<passage id=\"%d\">\n%s\n</passage>\n", i, c))
	}

	raw, err := s.provider.Generate(ctx, sb.String(), llm.WithTemperature(0.0))
	if err != nil {
		return nil, err
	}

	scores, err := parseScores(raw, len(candidates))
	if err != nil {
		return nil, fmt.Errorf("parse relevance scores: %w", err)
	}
	return scores, nil
}

// parseScores extracts the first JSON array in the response. Models wrap
// output in prose or code fences often enough that a plain Unmarshal fails.
func parseScores(raw string, want int) ([]float64, error) {
	start := strings.Index(raw, "[")
	end := strings.LastIndex(raw, "]")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON array in response: %q", raw)
	}

	var scores []float64
	if err := json.Unmarshal([]byte(raw[start:end+1]), &scores); err != nil {
		return nil, err
	}
	if len(scores) != want {
		return nil, fmt.Errorf("expected %d scores, got %d", want, len(scores))
	}
	for i, v := range scores {
		if v < 0 {
			scores[i] = 0
		}
		if v > 1 {
			scores[i] = 1
		}
	}
	return scores, nil
}
