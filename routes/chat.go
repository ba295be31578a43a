package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"edu-chatbot-backend/models"
	"edu-chatbot-backend/services"
	"edu-chatbot-backend/utils"
)

// ChatHandler exposes the chat turn and session endpoints.
type ChatHandler struct {
	chat *services.ChatService
}

func NewChatHandler(chat *services.ChatService) *ChatHandler {
	return &ChatHandler{chat: chat}
}

// HandleChat handles POST /api/chat.
func (h *ChatHandler) HandleChat(c *gin.Context) {
	var req models.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithBadRequest(c, "Invalid request", err.Error())
		return
	}

	answer, err := h.chat.Ask(c.Request.Context(), req)
	if err != nil {
		utils.WriteError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.ChatResponse{Answer: answer})
}

// HandleClearSession handles POST /api/clear_session.
func (h *ChatHandler) HandleClearSession(c *gin.Context) {
	var req models.ClearSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithBadRequest(c, "Invalid request", err.Error())
		return
	}

	deleted, err := h.chat.ClearSession(c.Request.Context(), req.SessionID)
	if err != nil {
		utils.WriteError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.ClearSessionResponse{DeletedCount: deleted})
}
