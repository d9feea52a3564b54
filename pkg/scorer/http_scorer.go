package scorer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// HTTPScorer calls an external cross-encoder rerank service
// (text-embeddings-inference style: POST /rerank {query, texts}).
type HTTPScorer struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

var _ RelevanceScorer = &HTTPScorer{}

func NewHTTPScorer(baseURL, apiKey string) *HTTPScorer {
	return &HTTPScorer{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Client: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

type rerankRequest struct {
	Query string   `json:"query"`
	Texts []string `json:"texts"`
}

type rerankResult struct {
	Index int     `json:"index"`
	Score float64 `json:"score"`
}

func (s *HTTPScorer) Score(ctx context.Context, key string, candidateKeys []string) ([]float64, error) {
	if len(candidateKeys) == 0 {
		return nil, nil
	}

	body, err := json.Marshal(rerankRequest{Query: key, Texts: candidateKeys})
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/rerank", s.BaseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewBuffer(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.APIKey)
	}

	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rerank request failed: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("rerank service error: %s", string(bodyBytes))
	}

	var results []rerankResult
	if err := json.Unmarshal(bodyBytes, &results); err != nil {
		return nil, err
	}

	// The service returns results sorted by score; map them back to input order.
	scores := make([]float64, len(candidateKeys))
	for _, r := range results {
		if r.Index < 0 || r.Index >= len(scores) {
			return nil, fmt.Errorf("rerank service returned out-of-range index %d", r.Index)
		}
		scores[r.Index] = r.Score
	}
	return scores, nil
}
