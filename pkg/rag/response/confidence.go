package response

import (
	"pdf-insight-be/pkg/rag/assembler"
)

// ConfidenceWeights blends the three grounding signals. They should sum to
// 1.0 so the blend stays in [0,1] before penalties.
type ConfidenceWeights struct {
	CitedFraction float64
	CitedScore    float64
	RankAgreement float64
}

func DefaultConfidenceWeights() ConfidenceWeights {
	return ConfidenceWeights{
		CitedFraction: 0.5,
		CitedScore:    0.3,
		RankAgreement: 0.2,
	}
}

// strippedCitationPenalty is deducted per citation that did not resolve to a
// context label.
const strippedCitationPenalty = 0.1

// scoreConfidence computes the answer confidence from:
//   - the fraction of sentences carrying a valid citation,
//   - the mean fused score of the context chunks actually cited,
//   - agreement between the re-ranker's top score and the top fused candidate.
//
// The result is clamped to [0,1].
func scoreConfidence(w ConfidenceWeights, text string, cited []string, stripped int, gctx assembler.GroundedContext) float64 {
	sentences := splitSentences(text)
	citedSentences := 0
	for _, s := range sentences {
		if citationPattern.MatchString(s) {
			citedSentences++
		}
	}
	citedFraction := 0.0
	if len(sentences) > 0 {
		citedFraction = float64(citedSentences) / float64(len(sentences))
	}

	citedSet := make(map[string]struct{}, len(cited))
	for _, label := range cited {
		citedSet[label] = struct{}{}
	}
	citedScoreSum, citedCount := 0.0, 0
	for _, e := range gctx.Entries {
		if _, ok := citedSet[e.Label]; ok {
			citedScoreSum += e.Score
			citedCount++
		}
	}
	meanCitedScore := 0.0
	if citedCount > 0 {
		meanCitedScore = citedScoreSum / float64(citedCount)
	}

	confidence := w.CitedFraction*citedFraction +
		w.CitedScore*meanCitedScore +
		w.RankAgreement*rankAgreement(gctx)

	confidence -= float64(stripped) * strippedCitationPenalty

	return clamp01(confidence)
}

// rankAgreement measures how much the re-ranker agreed with first-pass
// fusion: 1.0 when the top fused candidate also got the best re-rank score,
// shrinking with the gap between the two.
func rankAgreement(gctx assembler.GroundedContext) float64 {
	if len(gctx.Entries) == 0 {
		return 0
	}
	topRerank := gctx.Entries[0].Rerank
	fusedBest := gctx.Entries[0]
	for _, e := range gctx.Entries[1:] {
		if e.Rerank > topRerank {
			topRerank = e.Rerank
		}
		if e.Score > fusedBest.Score {
			fusedBest = e
		}
	}
	if topRerank <= 0 {
		return 1.0
	}
	return clamp01(1 - (topRerank-fusedBest.Rerank)/topRerank)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
