package database

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"edu-chatbot-backend/models"
)

// MessageStore persists per-session conversation history. Operations on
// one session id serialize through a striped mutex; different sessions
// proceed in parallel.
type MessageStore struct {
	col   *mongo.Collection
	locks [64]sync.Mutex
}

func NewMessageStore(db *mongo.Database) *MessageStore {
	return &MessageStore{col: db.Collection("messages")}
}

func (s *MessageStore) lock(sessionID string) *sync.Mutex {
	h := fnv.New32a()
	h.Write([]byte(sessionID))
	return &s.locks[h.Sum32()%uint32(len(s.locks))]
}

// Append adds one message to a session.
func (s *MessageStore) Append(ctx context.Context, msg models.Message) error {
	mu := s.lock(msg.SessionID)
	mu.Lock()
	defer mu.Unlock()

	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}
	_, err := s.col.InsertOne(ctx, msg)
	return err
}

// Recent returns up to n most recent messages of a session in
// chronological order.
func (s *MessageStore) Recent(ctx context.Context, sessionID string, n int) ([]models.Message, error) {
	mu := s.lock(sessionID)
	mu.Lock()
	defer mu.Unlock()

	cursor, err := s.col.Find(ctx,
		bson.M{"session_id": sessionID},
		options.Find().SetSort(bson.M{"timestamp": -1}).SetLimit(int64(n)),
	)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	messages := make([]models.Message, 0, n)
	if err := cursor.All(ctx, &messages); err != nil {
		return nil, err
	}

	// Reverse into chronological order
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

// Clear deletes all messages of a session in one bulk operation and
// returns the count removed.
func (s *MessageStore) Clear(ctx context.Context, sessionID string) (int64, error) {
	mu := s.lock(sessionID)
	mu.Lock()
	defer mu.Unlock()

	res, err := s.col.DeleteMany(ctx, bson.M{"session_id": sessionID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
