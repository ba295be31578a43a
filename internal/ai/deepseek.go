package ai

import (
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"edu-chatbot-backend/internal/config"
)

// NewDeepSeekProvider builds a provider for DeepSeek, which exposes an
// OpenAI-compatible API behind its own base URL.
func NewDeepSeekProvider(cfg *config.Config) (*OpenAIProvider, error) {
	if cfg.DeepSeekAPIKey == "" {
		return nil, fmt.Errorf("missing DEEPSEEK_API_KEY")
	}
	clientConfig := openai.DefaultConfig(cfg.DeepSeekAPIKey)
	clientConfig.BaseURL = cfg.DeepSeekBaseURL
	return &OpenAIProvider{
		client: openai.NewClientWithConfig(clientConfig),
		model:  cfg.DeepSeekModel,
		name:   ProviderDeepSeek,
	}, nil
}
