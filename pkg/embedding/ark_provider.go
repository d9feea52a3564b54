package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/QRui6/urban-inspection-rag/pkg/imageutil"
)

// ArkProvider implements Provider against an OpenAI-compatible multimodal
// embeddings endpoint (Volcengine Ark doubao-embedding-vision and friends).
// Text and image queries land in the same vector space, which is what makes
// photo-to-chunk retrieval work.
type ArkProvider struct {
	BaseURL string
	APIKey  string
	Model   string
	Client  *http.Client
}

var _ Provider = &ArkProvider{}

func NewArkProvider(baseURL, apiKey, model string) *ArkProvider {
	if baseURL == "" {
		baseURL = "https://ark.cn-beijing.volces.com/api/v3"
	}
	return &ArkProvider{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Model:   model,
		Client:  &http.Client{Timeout: 60 * time.Second},
	}
}

type arkInput struct {
	Type     string       `json:"type"`
	Text     string       `json:"text,omitempty"`
	ImageURL *arkImageURL `json:"image_url,omitempty"`
}

type arkImageURL struct {
	URL string `json:"url"`
}

type arkEmbeddingRequest struct {
	Model          string     `json:"model"`
	EncodingFormat string     `json:"encoding_format"`
	Input          []arkInput `json:"input"`
}

type arkEmbeddingResponse struct {
	Data struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (p *ArkProvider) EmbedText(ctx context.Context, text string) ([]float32, error) {
	return p.embed(ctx, []arkInput{{Type: "text", Text: text}})
}

func (p *ArkProvider) EmbedImage(ctx context.Context, imageRef string) ([]float32, error) {
	// Local paths must be inlined; the API only sees URLs and data URLs.
	ref, err := imageutil.Normalize(imageRef)
	if err != nil {
		return nil, err
	}
	return p.embed(ctx, []arkInput{{Type: "image_url", ImageURL: &arkImageURL{URL: ref}}})
}

func (p *ArkProvider) embed(ctx context.Context, input []arkInput) ([]float32, error) {
	reqBody := arkEmbeddingRequest{
		Model:          p.Model,
		EncodingFormat: "float",
		Input:          input,
	}
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/embeddings/multimodal", p.BaseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", p.APIKey))

	resp, err := p.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ark api error (status %d): %s", resp.StatusCode, string(bodyBytes))
	}

	var arkResp arkEmbeddingResponse
	if err := json.Unmarshal(bodyBytes, &arkResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if arkResp.Error != nil {
		return nil, fmt.Errorf("ark api returned error: %s", arkResp.Error.Message)
	}
	if len(arkResp.Data.Embedding) == 0 {
		return nil, fmt.Errorf("empty embedding from ark api")
	}

	return NormalizeVector(arkResp.Data.Embedding), nil
}
