package factory

import (
	"fmt"

	"issue-agent-be/pkg/llm"
	"issue-agent-be/pkg/llm/huggingface"
	"issue-agent-be/pkg/llm/ollama"
)

func NewLLMProvider(providerType, modelName, baseURL, hfKey string) (llm.LLMProvider, error) {
	switch providerType {
	case "ollama":
		if baseURL == "" {
			baseURL = "http://localhost:11434" // Default
		}
		return ollama.NewOllamaProvider(baseURL, modelName), nil
	case "huggingface":
		if hfKey == "" {
			return nil, fmt.Errorf("huggingface provider requires an API key")
		}
		return huggingface.NewHuggingFaceProvider(hfKey, "", modelName), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", providerType)
	}
}
