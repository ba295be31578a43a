package services

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"edu-chatbot-backend/internal/logger"
	"edu-chatbot-backend/internal/telemetry"
	"edu-chatbot-backend/models"
)

// ChatService answers questions grounded in a category-scoped document,
// carrying per-session conversation history into the prompt.
type ChatService struct {
	retrieval    *RetrievalEngine
	router       *Router
	messages     ConversationStore
	historyLimit int
	metrics      *telemetry.Metrics
}

func NewChatService(
	retrieval *RetrievalEngine,
	router *Router,
	messages ConversationStore,
	historyLimit int,
	metrics *telemetry.Metrics,
) *ChatService {
	if historyLimit <= 0 {
		historyLimit = 10
	}
	return &ChatService{
		retrieval:    retrieval,
		router:       router,
		messages:     messages,
		historyLimit: historyLimit,
		metrics:      metrics,
	}
}

// Ask runs one chat turn. The model selector is validated before any
// retrieval work, and the exchange is recorded only after generation
// succeeds, so a failed turn leaves the history untouched.
func (s *ChatService) Ask(ctx context.Context, req models.ChatRequest) (string, error) {
	tracer := otel.Tracer("chat-service")
	ctx, span := tracer.Start(ctx, "chat.ask")
	defer span.End()
	span.SetAttributes(
		attribute.String("chat.session_id", req.SessionID),
		attribute.String("chat.model", req.Model),
	)

	provider, err := s.router.Resolve(req.Model)
	if err != nil {
		s.metrics.RecordChat(ctx, req.Model, "invalid_model")
		return "", err
	}

	passages, err := s.retrieval.Retrieve(ctx, req.Syllabus, req.Class, req.Subject, req.Question)
	if err != nil {
		s.metrics.RecordChat(ctx, req.Model, "retrieval_failed")
		return "", err
	}

	history, err := s.messages.Recent(ctx, req.SessionID, s.historyLimit)
	if err != nil {
		// History is an enhancement; an empty window still produces a
		// grounded answer.
		logger.Warn("Failed to load chat history", "session_id", req.SessionID, "error", err)
		history = nil
	}

	prompt := BuildPrompt(passages, history, req.Question)
	answer, err := s.router.Generate(ctx, provider, prompt)
	if err != nil {
		s.metrics.RecordChat(ctx, req.Model, "generation_failed")
		return "", err
	}

	now := time.Now()
	if err := s.messages.Append(ctx, models.Message{
		SessionID: req.SessionID,
		Role:      models.RoleUser,
		Content:   req.Question,
		Timestamp: now,
	}); err != nil {
		logger.Warn("Failed to record user message", "session_id", req.SessionID, "error", err)
	}
	if err := s.messages.Append(ctx, models.Message{
		SessionID: req.SessionID,
		Role:      models.RoleAssistant,
		Content:   answer,
		Timestamp: now.Add(time.Millisecond),
	}); err != nil {
		logger.Warn("Failed to record assistant message", "session_id", req.SessionID, "error", err)
	}

	s.metrics.RecordChat(ctx, req.Model, "ok")
	return answer, nil
}

// ClearSession deletes the conversation history for a session and
// reports how many messages were removed.
func (s *ChatService) ClearSession(ctx context.Context, sessionID string) (int64, error) {
	return s.messages.Clear(ctx, sessionID)
}
