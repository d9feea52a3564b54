package factory

import (
	"fmt"

	"github.com/QRui6/urban-inspection-rag/pkg/llm"
	"github.com/QRui6/urban-inspection-rag/pkg/llm/ollama"
	"github.com/QRui6/urban-inspection-rag/pkg/llm/openai"
)

func NewLLMProvider(providerType, modelName, baseURL, apiKey string) (llm.LLMProvider, error) {
	switch providerType {
	case "ollama":
		if baseURL == "" {
			baseURL = "http://localhost:11434" // Default
		}
		return ollama.NewOllamaProvider(baseURL, modelName), nil
	case "openai", "dashscope", "ark", "deepseek":
		return openai.NewOpenAIProvider(apiKey, baseURL, modelName), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", providerType)
	}
}
