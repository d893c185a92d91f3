package jina

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"pdf-insight-be/pkg/embedding"
)

type JinaProvider struct {
	apiKey     string
	baseURL    string
	model      string
	dims       int
	httpClient *http.Client
}

type embeddingRequest struct {
	Model string   `json:"model"`
	Task  string   `json:"task,omitempty"`
	Input []string `json:"input"`
}

type embeddingResponse struct {
	Data []struct {
		Object    string    `json:"object"`
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func NewJinaProvider(apiKey string) *JinaProvider {
	return &JinaProvider{
		apiKey:     apiKey,
		baseURL:    "https://api.jina.ai/v1/embeddings",
		model:      "jina-embeddings-v3",
		dims:       1024,
		httpClient: &http.Client{},
	}
}

func (p *JinaProvider) Dimensions() int { return p.dims }

// EmbedBatch sends the whole batch in one request. Jina echoes an index per
// item, so vectors are reassembled by index rather than response order.
func (p *JinaProvider) EmbedBatch(ctx context.Context, texts []string, task embedding.TaskType) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	jinaResp, err := p.call(ctx, texts, task)
	if err != nil {
		return nil, err
	}
	if len(jinaResp.Data) != len(texts) {
		return nil, &embedding.UnavailableError{
			Transient: false,
			Err:       fmt.Errorf("jina returned %d embeddings for %d inputs", len(jinaResp.Data), len(texts)),
		}
	}

	vectors := make([][]float32, len(texts))
	for _, item := range jinaResp.Data {
		if item.Index < 0 || item.Index >= len(texts) {
			return nil, &embedding.UnavailableError{
				Transient: false,
				Err:       fmt.Errorf("jina returned out-of-range index %d", item.Index),
			}
		}
		vectors[item.Index] = embedding.NormalizeVector(item.Embedding)
	}
	return vectors, nil
}

func (p *JinaProvider) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := p.EmbedBatch(ctx, []string{text}, embedding.TaskRetrievalQuery)
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (p *JinaProvider) call(ctx context.Context, texts []string, task embedding.TaskType) (*embeddingResponse, error) {
	reqBody := embeddingRequest{
		Model: p.model,
		Task:  string(task),
		Input: texts,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, &embedding.UnavailableError{Transient: false, Err: fmt.Errorf("failed to marshal request: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, &embedding.UnavailableError{Transient: false, Err: fmt.Errorf("failed to create request: %w", err)}
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", p.apiKey))

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, &embedding.UnavailableError{Transient: true, Err: fmt.Errorf("request failed: %w", err)}
	}
	defer resp.Body.Close()

	bodyBytes, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		transient := resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests
		return nil, &embedding.UnavailableError{
			Transient: transient,
			Err:       fmt.Errorf("jina api error (status %d): %s", resp.StatusCode, string(bodyBytes)),
		}
	}

	var jinaResp embeddingResponse
	if err := json.Unmarshal(bodyBytes, &jinaResp); err != nil {
		return nil, &embedding.UnavailableError{Transient: false, Err: fmt.Errorf("failed to decode response: %w", err)}
	}

	if jinaResp.Error != nil {
		return nil, &embedding.UnavailableError{
			Transient: false,
			Err:       fmt.Errorf("jina api returned error: %s", jinaResp.Error.Message),
		}
	}

	return &jinaResp, nil
}
