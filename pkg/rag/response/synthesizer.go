package response

import (
	"context"

	"pdf-insight-be/pkg/llm"
	"pdf-insight-be/pkg/rag/assembler"
)

// InsufficientInfoAnswer is returned verbatim when retrieval produced no
// grounded context.
const InsufficientInfoAnswer = "I don't have enough information in the indexed documents to answer that."

// Answer is the synthesized response. Citations lists the context labels the
// answer actually references, in order of first use. LowConfidence flags the
// answer when confidence falls below the configured floor; the answer is
// still returned (fail-open).
type Answer struct {
	Text          string
	Confidence    float64
	Citations     []string
	LowConfidence bool
}

type Config struct {
	Weights         ConfidenceWeights
	ConfidenceFloor float64
	MaxTokens       int
	Temperature     float64
}

func DefaultConfig() Config {
	return Config{
		Weights:         DefaultConfidenceWeights(),
		ConfidenceFloor: 0.35,
		MaxTokens:       1024,
		Temperature:     0.2,
	}
}

// Synthesizer turns a grounded context into a cited answer via the external
// language capability.
type Synthesizer struct {
	provider llm.LLMProvider
	composer PromptComposer
	cfg      Config
}

func NewSynthesizer(provider llm.LLMProvider, cfg Config) *Synthesizer {
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultConfig().MaxTokens
	}
	if cfg.Weights == (ConfidenceWeights{}) {
		cfg.Weights = DefaultConfidenceWeights()
	}
	return &Synthesizer{provider: provider, cfg: cfg}
}

// Synthesize generates the answer, verifies its citations against the
// context, and scores confidence. Empty context short-circuits to an
// insufficient-information answer with confidence 0 and never reaches the
// language model.
func (s *Synthesizer) Synthesize(ctx context.Context, query string, gctx assembler.GroundedContext, history []llm.Message) (Answer, error) {
	if len(gctx.Entries) == 0 {
		return Answer{
			Text:          InsufficientInfoAnswer,
			Confidence:    0,
			Citations:     []string{},
			LowConfidence: true,
		}, nil
	}

	prompt := s.composer.Compose(query, gctx, history)
	raw, err := s.provider.Generate(ctx, prompt,
		llm.WithTemperature(s.cfg.Temperature),
		llm.WithMaxTokens(s.cfg.MaxTokens),
	)
	if err != nil {
		return Answer{}, err
	}

	valid := make(map[string]struct{}, len(gctx.Entries))
	for _, e := range gctx.Entries {
		valid[e.Label] = struct{}{}
	}
	cleaned, cited, stripped := verifyCitations(raw, valid)

	confidence := scoreConfidence(s.cfg.Weights, cleaned, cited, stripped, gctx)
	if cited == nil {
		cited = []string{}
	}
	return Answer{
		Text:          cleaned,
		Confidence:    confidence,
		Citations:     cited,
		LowConfidence: confidence < s.cfg.ConfidenceFloor,
	}, nil
}
