package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"edu-chatbot-backend/models"
	"edu-chatbot-backend/utils"
)

func TestRouterResolveUnknownModel(t *testing.T) {
	r := NewRouter(time.Second, nil, &fakeProvider{name: "gemini"})

	if _, err := r.Resolve("gemini"); err != nil {
		t.Fatalf("known model rejected: %v", err)
	}

	_, err := r.Resolve("gpt-99")
	if err == nil {
		t.Fatal("expected error for unknown model")
	}
	var ve *utils.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %T", err)
	}
}

func TestRouterGenerateFailure(t *testing.T) {
	p := &fakeProvider{name: "gemini", err: errors.New("upstream 500")}
	r := NewRouter(time.Second, nil, p)

	_, err := r.Generate(context.Background(), p, "prompt")
	if err == nil {
		t.Fatal("expected error")
	}
	var sf *utils.ServiceFailure
	if !errors.As(err, &sf) {
		t.Fatalf("expected ServiceFailure, got %T", err)
	}
	if !strings.Contains(sf.Cause, "gemini") {
		t.Fatalf("failure should name the provider: %q", sf.Cause)
	}
}

func TestRouterGenerateTimeout(t *testing.T) {
	p := &blockingProvider{name: "gemini"}
	r := NewRouter(20*time.Millisecond, nil, p)

	start := time.Now()
	_, err := r.Generate(context.Background(), p, "prompt")
	elapsed := time.Since(start)

	if err == nil {
		t.Fatal("expected error from hung provider")
	}
	var sf *utils.ServiceFailure
	if !errors.As(err, &sf) {
		t.Fatalf("expected ServiceFailure, got %T", err)
	}
	if elapsed > time.Second {
		t.Fatalf("timeout did not bound the call, took %v", elapsed)
	}
}

func TestBuildPrompt(t *testing.T) {
	passages := []string{"The mitochondria is the powerhouse of the cell.", "Cells divide by mitosis."}
	history := []models.Message{
		{Role: models.RoleUser, Content: "What is a cell?"},
		{Role: models.RoleAssistant, Content: "The basic unit of life."},
	}

	prompt := BuildPrompt(passages, history, "How do cells divide?")

	for _, want := range []string{
		"Document Context:",
		"Chat History:",
		passages[0],
		passages[1],
		"Human: What is a cell?",
		"AI: The basic unit of life.",
		"Human: How do cells divide?",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
	if !strings.HasSuffix(prompt, "AI:") {
		t.Fatalf("prompt should end with the AI cue, got %q", prompt[len(prompt)-20:])
	}

	// passages must appear in retrieval order
	if strings.Index(prompt, passages[0]) > strings.Index(prompt, passages[1]) {
		t.Fatal("passages out of retrieval order")
	}
}

func TestBuildPromptSkipsUnknownRoles(t *testing.T) {
	history := []models.Message{{Role: "system", Content: "should not appear"}}
	prompt := BuildPrompt(nil, history, "question")
	if strings.Contains(prompt, "should not appear") {
		t.Fatal("unknown role leaked into prompt")
	}
}
