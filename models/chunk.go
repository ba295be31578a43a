package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Chunk is one embedded passage of a document. Chunks are immutable;
// re-ingestion writes a new generation and the document flips to it in
// a single update, so readers see either the old set or the new one.
type Chunk struct {
	ID         primitive.ObjectID `bson:"_id,omitempty"`
	DocumentID primitive.ObjectID `bson:"document_id"`
	Generation string             `bson:"generation"`
	Ordinal    int                `bson:"ordinal"`
	Text       string             `bson:"text"`
	Vector     []float32          `bson:"vector"`
}

// ScoredChunk is a search hit with its similarity score.
type ScoredChunk struct {
	Chunk
	Score float64
}
