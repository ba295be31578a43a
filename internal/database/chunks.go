package database

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"edu-chatbot-backend/models"
)

// ChunkStore persists embedded chunks. Each ingestion attempt writes a
// fresh generation; the document flips to it on commit, and the next
// attempt prunes whatever the flip superseded. A crash between chunk
// write and commit leaves only unreferenced chunks that the same prune
// cleans up.
type ChunkStore struct {
	col *mongo.Collection
}

func NewChunkStore(db *mongo.Database) *ChunkStore {
	return &ChunkStore{col: db.Collection("chunks")}
}

// InsertGeneration writes one ingestion attempt's chunks.
func (s *ChunkStore) InsertGeneration(ctx context.Context, chunks []models.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	docs := make([]interface{}, len(chunks))
	for i := range chunks {
		docs[i] = chunks[i]
	}
	_, err := s.col.InsertMany(ctx, docs)
	return err
}

// PruneGenerations removes every generation of a document except the
// one to keep. Called before an ingestion attempt writes its chunks;
// generations superseded by a commit are left in place until then so
// in-flight readers of the old generation still find their chunks.
func (s *ChunkStore) PruneGenerations(ctx context.Context, documentID primitive.ObjectID, keep string) error {
	_, err := s.col.DeleteMany(ctx, bson.M{
		"document_id": documentID,
		"generation":  bson.M{"$ne": keep},
	})
	return err
}

// DeleteAll removes every chunk of a document, for document deletion.
func (s *ChunkStore) DeleteAll(ctx context.Context, documentID primitive.ObjectID) (int64, error) {
	res, err := s.col.DeleteMany(ctx, bson.M{"document_id": documentID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// Search runs a brute-force cosine similarity search over one
// document's active generation and returns the best k chunks,
// descending by score with ties broken by ascending ordinal.
func (s *ChunkStore) Search(ctx context.Context, documentID primitive.ObjectID, generation string, query []float32, k int) ([]models.ScoredChunk, error) {
	cursor, err := s.col.Find(ctx, bson.M{
		"document_id": documentID,
		"generation":  generation,
	})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var chunks []models.Chunk
	if err := cursor.All(ctx, &chunks); err != nil {
		return nil, err
	}

	return rankTopK(chunks, query, k), nil
}
