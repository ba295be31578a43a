package database

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"edu-chatbot-backend/models"
)

// DocumentStore persists documents and their ingestion status.
type DocumentStore struct {
	col *mongo.Collection
}

func NewDocumentStore(db *mongo.Database) *DocumentStore {
	return &DocumentStore{col: db.Collection("documents")}
}

// Create inserts a new document in the pending state. The unique index
// on the category triple rejects duplicates that race past the
// application-level check.
func (s *DocumentStore) Create(ctx context.Context, doc *models.Document) error {
	now := time.Now()
	doc.Status = models.StatusPending
	doc.CreatedAt = now
	doc.UpdatedAt = now

	res, err := s.col.InsertOne(ctx, doc)
	if err != nil {
		return err
	}
	doc.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

func (s *DocumentStore) Get(ctx context.Context, id primitive.ObjectID) (*models.Document, error) {
	var doc models.Document
	err := s.col.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (s *DocumentStore) List(ctx context.Context) ([]models.Document, error) {
	cursor, err := s.col.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	docs := make([]models.Document, 0)
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

func (s *DocumentStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	_, err := s.col.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

// UpdateSourceURL records a new source location and resets the document
// to pending ahead of re-ingestion.
func (s *DocumentStore) UpdateSourceURL(ctx context.Context, id primitive.ObjectID, url string) error {
	_, err := s.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{
			"source_url":    url,
			"status":        models.StatusPending,
			"status_reason": "",
			"updated_at":    time.Now(),
		},
	})
	return err
}

// SetStatus moves a document through the ingestion state machine.
// reason is recorded only for failed; other states clear it.
func (s *DocumentStore) SetStatus(ctx context.Context, id primitive.ObjectID, status, reason string) error {
	_, err := s.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{
			"status":        status,
			"status_reason": reason,
			"updated_at":    time.Now(),
		},
	})
	return err
}

// Commit flips a document to ready and activates the given chunk
// generation in a single update. Readers that key off
// active_generation therefore see either the previous chunk set or the
// fully written new one, never a mix.
func (s *DocumentStore) Commit(ctx context.Context, id primitive.ObjectID, generation string, elapsed time.Duration) error {
	_, err := s.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{
			"status":            models.StatusReady,
			"status_reason":     "",
			"active_generation": generation,
			"processing_ms":     elapsed.Milliseconds(),
			"updated_at":        time.Now(),
		},
	})
	return err
}

// FindByCategories matches all three category names exactly,
// case-sensitive, no normalization.
func (s *DocumentStore) FindByCategories(ctx context.Context, syllabus, class, subject string) ([]models.Document, error) {
	cursor, err := s.col.Find(ctx, bson.M{
		"syllabus": syllabus,
		"class":    class,
		"subject":  subject,
	})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	docs := make([]models.Document, 0)
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

// ExistsByTriple reports whether another document already claims the
// category triple.
func (s *DocumentStore) ExistsByTriple(ctx context.Context, syllabus, class, subject string, exclude primitive.ObjectID) (bool, error) {
	filter := bson.M{
		"syllabus": syllabus,
		"class":    class,
		"subject":  subject,
	}
	if !exclude.IsZero() {
		filter["_id"] = bson.M{"$ne": exclude}
	}
	count, err := s.col.CountDocuments(ctx, filter)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Categories returns the distinct known names per taxonomy level.
func (s *DocumentStore) Categories(ctx context.Context) (*models.CategoryLists, error) {
	lists := &models.CategoryLists{
		Syllabuses: []string{},
		Classes:    []string{},
		Subjects:   []string{},
	}

	for field, dst := range map[string]*[]string{
		"syllabus": &lists.Syllabuses,
		"class":    &lists.Classes,
		"subject":  &lists.Subjects,
	} {
		values, err := s.col.Distinct(ctx, field, bson.M{})
		if err != nil {
			return nil, err
		}
		for _, v := range values {
			if name, ok := v.(string); ok {
				*dst = append(*dst, name)
			}
		}
	}

	return lists, nil
}
