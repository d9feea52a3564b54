package vision

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Few-shot responses shown to the model when structured output is on.
// Keeping them as real past answers anchors the JSON shape better than a
// schema description alone.
var structuredExamples = []Analysis{
	{
		IndicatorClassification: "小区维度 - 18 不达标的步行道长度",
		SpecificProblem:         "18.1 - 小区及周边道路的主要人行道路存在路面破损问题",
		DetailedDescription:     "图中所示为一处通往建筑内部的地面区域，其混凝土铺装存在严重破损。路面多处出现大面积开裂、板块缺失以及表面剥落现象，导致地面凹凸不平，形成明显的通行障碍和安全隐患。",
	},
	{
		IndicatorClassification: "小区维度 - 16 未配建电动自行车充电设施的小区数量",
		SpecificProblem:         "16.2 - 小区电动自行车乱拉飞线充电、安全防护设施配备和消防安全管理不到位",
		DetailedDescription:     "图中显示一辆电动自行车停放在建筑物外墙边，充电器连接电源线正在充电。此充电行为发生于非专用充电区域的公共空间，存在私拉乱接、违规充电的安全隐患。",
	},
}

// OpenAIProvider drives any OpenAI-compatible vision endpoint (Qwen-VL,
// doubao-vision and similar).
type OpenAIProvider struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
}

var _ Provider = &OpenAIProvider{}

func NewOpenAIProvider(apiKey, baseURL, model string) *OpenAIProvider {
	return &OpenAIProvider{
		apiKey:  apiKey,
		baseURL: baseURL,
		model:   model,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type visionMessage struct {
	Role    string        `json:"role"`
	Content []contentPart `json:"content"`
}

type visionRequest struct {
	Model          string          `json:"model"`
	Messages       []visionMessage `json:"messages"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type visionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (p *OpenAIProvider) Analyze(ctx context.Context, imageRef, prompt string, structured bool) (string, error) {
	reqBody := visionRequest{
		Model: p.model,
		Messages: []visionMessage{{
			Role: "user",
			Content: []contentPart{
				{Type: "image_url", ImageURL: &imageURL{URL: imageRef}},
				{Type: "text", Text: buildPrompt(prompt, structured)},
			},
		}},
	}
	if structured {
		reqBody.ResponseFormat = &responseFormat{Type: "json_object"}
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/chat/completions", p.baseURL)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", p.apiKey))

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("vision api error (status %d): %s", resp.StatusCode, string(bodyBytes))
	}

	var visionResp visionResponse
	if err := json.Unmarshal(bodyBytes, &visionResp); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if visionResp.Error != nil {
		return "", fmt.Errorf("vision api returned error: %s", visionResp.Error.Message)
	}
	if len(visionResp.Choices) == 0 {
		return "", fmt.Errorf("empty choices from vision api")
	}

	return visionResp.Choices[0].Message.Content, nil
}

func buildPrompt(prompt string, structured bool) string {
	if !structured {
		return prompt
	}
	ex1, _ := json.Marshal(structuredExamples[0])
	ex2, _ := json.Marshal(structuredExamples[1])
	return fmt.Sprintf("%s\n\n请严格按照以下JSON格式返回结果：\n示例1: %s\n示例2: %s\n\n请基于图像内容，按照上述JSON格式返回分析结果。",
		prompt, ex1, ex2)
}
