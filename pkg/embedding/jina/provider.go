// Package jina provides a multimodal embedding backend on top of the Jina
// CLIP API. It serves as the hosted alternative to the Ark provider.
package jina

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/QRui6/urban-inspection-rag/pkg/embedding"
	"github.com/QRui6/urban-inspection-rag/pkg/imageutil"
)

type JinaProvider struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
}

var _ embedding.Provider = &JinaProvider{}

type embeddingRequest struct {
	Model string           `json:"model"`
	Input []map[string]any `json:"input"`
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
		apiKey:  apiKey,
		baseURL: "https://api.jina.ai/v1/embeddings",
		model:   "jina-clip-v2",
		client:  &http.Client{Timeout: 60 * time.Second},
	}
}

func (p *JinaProvider) EmbedText(ctx context.Context, text string) ([]float32, error) {
	return p.embed(ctx, []map[string]any{{"text": text}})
}

func (p *JinaProvider) EmbedImage(ctx context.Context, imageRef string) ([]float32, error) {
	ref, err := imageutil.Normalize(imageRef)
	if err != nil {
		return nil, err
	}
	return p.embed(ctx, []map[string]any{{"image": ref}})
}

func (p *JinaProvider) embed(ctx context.Context, input []map[string]any) ([]float32, error) {
	reqBody := embeddingRequest{
		Model: p.model,
		Input: input,
	}
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", p.apiKey))

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("jina api error (status %d): %s", resp.StatusCode, string(bodyBytes))
	}

	var jinaResp embeddingResponse
	if err := json.Unmarshal(bodyBytes, &jinaResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if jinaResp.Error != nil {
		return nil, fmt.Errorf("jina api returned error: %s", jinaResp.Error.Message)
	}
	if len(jinaResp.Data) == 0 {
		return nil, fmt.Errorf("empty embeddings from jina api")
	}

	return embedding.NormalizeVector(jinaResp.Data[0].Embedding), nil
}
