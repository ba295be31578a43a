package services

import (
	"context"
	"fmt"

	"edu-chatbot-backend/internal/ai"
	"edu-chatbot-backend/models"
	"edu-chatbot-backend/utils"
)

// RetrievalEngine resolves a category triple to its single ready
// document and returns the passages most similar to the question.
type RetrievalEngine struct {
	docs     DocumentStore
	chunks   ChunkStore
	embedder ai.Embedder
	topK     int
}

func NewRetrievalEngine(docs DocumentStore, chunks ChunkStore, embedder ai.Embedder, topK int) *RetrievalEngine {
	if topK <= 0 {
		topK = 5
	}
	return &RetrievalEngine{docs: docs, chunks: chunks, embedder: embedder, topK: topK}
}

// Retrieve matches the triple exactly, case-sensitively. Zero or more
// than one matching document means the caller's categories don't
// identify retrievable material, which surfaces as not found rather
// than a server error.
func (r *RetrievalEngine) Retrieve(ctx context.Context, syllabus, class, subject, question string) ([]string, error) {
	docs, err := r.docs.FindByCategories(ctx, syllabus, class, subject)
	if err != nil {
		return nil, utils.NewServiceFailure(fmt.Sprintf("looking up document: %v", err))
	}
	if len(docs) != 1 {
		return nil, utils.NewNotFound("no document available for the given syllabus, class and subject")
	}

	doc := docs[0]
	if doc.Status != models.StatusReady || doc.ActiveGeneration == "" {
		return nil, utils.NewNotFound("document for the given categories is not ready yet")
	}

	query, err := r.embedder.EmbedQuery(ctx, question)
	if err != nil {
		return nil, utils.NewServiceFailure(fmt.Sprintf("embedding question: %v", err))
	}

	scored, err := r.chunks.Search(ctx, doc.ID, doc.ActiveGeneration, query, r.topK)
	if err != nil {
		return nil, utils.NewServiceFailure(fmt.Sprintf("searching chunks: %v", err))
	}

	passages := make([]string, len(scored))
	for i, s := range scored {
		passages[i] = s.Text
	}
	return passages, nil
}
