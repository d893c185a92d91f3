package chart

import (
	"context"
	"encoding/json"
	"strings"

	"pdf-insight-be/pkg/llm"
)

// QueryIntent captures the aspects of a query that decide whether a chart is
// worth planning at all.
type QueryIntent struct {
	Quantitative bool `json:"quantitative"`
	Trend        bool `json:"trend"`
	WantsChart   bool `json:"wants_chart"`
}

// IntentClassifier decides query intent. Implementations may be model-backed
// or rule-based.
type IntentClassifier interface {
	Classify(ctx context.Context, query string) (QueryIntent, error)
}

// KeywordClassifier is the rule-based classifier, also used as the fallback
// when the model-backed one misbehaves.
type KeywordClassifier struct{}

var (
	quantitativeWords = []string{"calculate", "sum", "average", "total", "percentage", "growth", "how many", "how much", "revenue", "cost", "compare", "numbers", "statistics"}
	trendWords        = []string{"trend", "over time", "timeline", "progression", "growth", "decline", "change"}
	chartWords        = []string{"chart", "graph", "plot", "visualize", "show", "trend"}
)

func (KeywordClassifier) Classify(ctx context.Context, query string) (QueryIntent, error) {
	lower := strings.ToLower(query)
	return QueryIntent{
		Quantitative: containsAny(lower, quantitativeWords) || containsAny(lower, trendWords),
		Trend:        containsAny(lower, trendWords),
		WantsChart:   containsAny(lower, chartWords),
	}, nil
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

// LLMClassifier asks the language model for a JSON intent verdict and falls
// back to keyword rules on any parsing or transport failure.
type LLMClassifier struct {
	provider llm.LLMProvider
	fallback KeywordClassifier
}

func NewLLMClassifier(provider llm.LLMProvider) *LLMClassifier {
	return &LLMClassifier{provider: provider}
}

func (c *LLMClassifier) Classify(ctx context.Context, query string) (QueryIntent, error) {
	var prompt strings.Builder
	prompt.WriteString("<task>\n")
	prompt.WriteString("Analyze the query and classify its intent.\n")
	prompt.WriteString("Respond with ONLY a JSON object:\n")
	prompt.WriteString(`{"quantitative": true/false, "trend": true/false, "wants_chart": true/false}` + "\n")
	prompt.WriteString("</task>\n\n")
	prompt.WriteString("<query>" + query + "</query>\n")

	raw, err := c.provider.Generate(ctx, prompt.String(), llm.WithTemperature(0.0))
	if err != nil {
		return c.fallback.Classify(ctx, query)
	}

	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return c.fallback.Classify(ctx, query)
	}
	var intent QueryIntent
	if err := json.Unmarshal([]byte(raw[start:end+1]), &intent); err != nil {
		return c.fallback.Classify(ctx, query)
	}
	return intent, nil
}
