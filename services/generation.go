package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"edu-chatbot-backend/internal/ai"
	"edu-chatbot-backend/internal/telemetry"
	"edu-chatbot-backend/models"
	"edu-chatbot-backend/utils"
)

const promptInstructions = `You are a helpful assistant. Answer the user's question based on the provided document context and the ongoing chat history. If the answer is not in the context or history, say "I'm sorry, I don't have enough information to answer that."`

// Router dispatches generation to the provider the client selected.
type Router struct {
	providers map[string]ai.Provider
	timeout   time.Duration
	metrics   *telemetry.Metrics
}

func NewRouter(timeout time.Duration, metrics *telemetry.Metrics, providers ...ai.Provider) *Router {
	byName := make(map[string]ai.Provider, len(providers))
	for _, p := range providers {
		byName[p.Name()] = p
	}
	return &Router{providers: byName, timeout: timeout, metrics: metrics}
}

// Resolve validates the client's model selector before any retrieval
// work happens.
func (r *Router) Resolve(name string) (ai.Provider, error) {
	p, ok := r.providers[name]
	if !ok {
		return nil, utils.NewValidationError(fmt.Sprintf("unknown model %q", name))
	}
	return p, nil
}

// Generate answers the prompt under a bounded timeout, normalizing
// provider errors to service failures.
func (r *Router) Generate(ctx context.Context, p ai.Provider, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	answer, err := p.Generate(ctx, prompt)
	if err != nil {
		r.metrics.RecordProviderFailure(ctx, p.Name())
		return "", utils.NewServiceFailure(fmt.Sprintf("%s generation failed: %v", p.Name(), err))
	}
	return answer, nil
}

// BuildPrompt assembles the grounding passages, the conversation so
// far and the new question into a single generation prompt. Passages
// stay in retrieval order; history runs oldest to newest.
func BuildPrompt(passages []string, history []models.Message, question string) string {
	var b strings.Builder
	b.WriteString(promptInstructions)
	b.WriteString("\n\nDocument Context:\n")
	for _, p := range passages {
		b.WriteString(p)
		b.WriteString("\n\n")
	}
	b.WriteString("Chat History:\n")
	for _, m := range history {
		switch m.Role {
		case models.RoleUser:
			b.WriteString("Human: ")
		case models.RoleAssistant:
			b.WriteString("AI: ")
		default:
			continue
		}
		b.WriteString(m.Content)
		b.WriteString("\n")
	}
	b.WriteString("\nHuman: ")
	b.WriteString(question)
	b.WriteString("\nAI:")
	return b.String()
}
