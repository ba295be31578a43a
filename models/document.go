package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Document ingestion status constants. A document moves
// pending -> fetching -> chunking -> embedding -> ready, with failed
// reachable from any non-terminal state. An admin updating the source
// URL moves it back to pending.
const (
	StatusPending   = "pending"
	StatusFetching  = "fetching"
	StatusChunking  = "chunking"
	StatusEmbedding = "embedding"
	StatusReady     = "ready"
	StatusFailed    = "failed"
)

// Document is a PDF knowledge source scoped by a category triple.
// Only the ingestion pipeline mutates status, active_generation and the
// timing fields.
type Document struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	SourceURL        string             `bson:"source_url" json:"source_url"`
	Syllabus         string             `bson:"syllabus" json:"syllabus"`
	Class            string             `bson:"class" json:"class"`
	Subject          string             `bson:"subject" json:"subject"`
	Status           string             `bson:"status" json:"status"`
	StatusReason     string             `bson:"status_reason,omitempty" json:"status_reason,omitempty"`
	ActiveGeneration string             `bson:"active_generation,omitempty" json:"-"`
	ProcessingMs     int64              `bson:"processing_ms,omitempty" json:"processing_ms,omitempty"`
	CreatedAt        time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt        time.Time          `bson:"updated_at" json:"updated_at"`
}

// IngestionInFlight reports whether an ingestion attempt is currently
// running for the document. In-flight documents must not be deleted.
func (d *Document) IngestionInFlight() bool {
	switch d.Status {
	case StatusFetching, StatusChunking, StatusEmbedding:
		return true
	}
	return false
}

// CreateDocumentRequest is the admin payload for registering a source.
type CreateDocumentRequest struct {
	SourceURL string `json:"source_url" binding:"required,url"`
	Syllabus  string `json:"syllabus" binding:"required"`
	Class     string `json:"class" binding:"required"`
	Subject   string `json:"subject" binding:"required"`
}

// UpdateDocumentRequest updates a document's source URL. A changed URL
// re-triggers ingestion.
type UpdateDocumentRequest struct {
	SourceURL string `json:"source_url" binding:"required,url"`
}

// CategoryLists is the read-only taxonomy projection.
type CategoryLists struct {
	Syllabuses []string `json:"syllabuses"`
	Classes    []string `json:"classes"`
	Subjects   []string `json:"subjects"`
}
