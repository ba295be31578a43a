package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one turn of a chat session. Append-only; deleted only in
// bulk when a session is cleared.
type Message struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	SessionID string             `bson:"session_id" json:"session_id"`
	Role      string             `bson:"role" json:"role"`
	Content   string             `bson:"content" json:"content"`
	Timestamp time.Time          `bson:"timestamp" json:"timestamp"`
}

type ChatRequest struct {
	SessionID string `json:"session_id" binding:"required"`
	Question  string `json:"question" binding:"required,min=1,max=2000"`
	Syllabus  string `json:"syllabus" binding:"required"`
	Class     string `json:"class" binding:"required"`
	Subject   string `json:"subject" binding:"required"`
	Model     string `json:"model" binding:"required"`
}

type ChatResponse struct {
	Answer string `json:"answer"`
}

type ClearSessionRequest struct {
	SessionID string `json:"session_id" binding:"required"`
}

type ClearSessionResponse struct {
	DeletedCount int64 `json:"deleted_count"`
}
