package dto

import (
	"pdf-insight-be/pkg/rag/chart"
)

type QueryRequest struct {
	Query      string   `json:"query" validate:"required"`
	SessionId  string   `json:"session_id"`
	TopK       int      `json:"top_k" validate:"gte=0,lte=50"`
	Modalities []string `json:"modalities" validate:"dive,oneof=text table image"`
	WantChart  bool     `json:"want_chart"`
}

// CitationDTO resolves one citation label back to its source location.
type CitationDTO struct {
	Label string `json:"label"`
	Page  int    `json:"page"`
}

type QueryResponse struct {
	SessionId     string           `json:"session_id"`
	Answer        string           `json:"answer"`
	Confidence    float64          `json:"confidence"`
	LowConfidence bool             `json:"low_confidence"`
	Citations     []CitationDTO    `json:"citations"`
	Chart         *chart.ChartSpec `json:"chart,omitempty"`
	State         string           `json:"state"`
}
