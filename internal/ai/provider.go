package ai

import "context"

// Provider generates an answer for an assembled prompt. Implementations
// perform exactly one attempt per call; retries belong to the caller's
// request layer, not here.
type Provider interface {
	Name() string
	Generate(ctx context.Context, prompt string) (string, error)
}

// The fixed provider enum. An unrecognized selector is a validation
// error, not a provider error.
const (
	ProviderGemini   = "gemini"
	ProviderOpenAI   = "openai"
	ProviderDeepSeek = "deepseek"
)
