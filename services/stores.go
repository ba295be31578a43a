package services

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"edu-chatbot-backend/models"
)

// Collaborator contracts consumed by the pipeline, retrieval engine and
// generation router. The mongo implementations live in
// internal/database; tests substitute in-memory fakes.

type DocumentStore interface {
	Get(ctx context.Context, id primitive.ObjectID) (*models.Document, error)
	SetStatus(ctx context.Context, id primitive.ObjectID, status, reason string) error
	Commit(ctx context.Context, id primitive.ObjectID, generation string, elapsed time.Duration) error
	FindByCategories(ctx context.Context, syllabus, class, subject string) ([]models.Document, error)
}

type ChunkStore interface {
	InsertGeneration(ctx context.Context, chunks []models.Chunk) error
	PruneGenerations(ctx context.Context, documentID primitive.ObjectID, keep string) error
	Search(ctx context.Context, documentID primitive.ObjectID, generation string, query []float32, k int) ([]models.ScoredChunk, error)
}

type ConversationStore interface {
	Append(ctx context.Context, msg models.Message) error
	Recent(ctx context.Context, sessionID string, n int) ([]models.Message, error)
	Clear(ctx context.Context, sessionID string) (int64, error)
}

// Extractor fetches a source document and returns its plain text.
type Extractor interface {
	Extract(ctx context.Context, url string) (string, error)
}

// Locker grants short-lived exclusive leases, used to serialize
// ingestion per document across the worker pool.
type Locker interface {
	Acquire(ctx context.Context, key string) (release func(), ok bool, err error)
}
