package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"edu-chatbot-backend/models"
)

// In-memory fakes for the collaborator contracts in stores.go.

type fakeDocs struct {
	mu       sync.Mutex
	docs     map[primitive.ObjectID]*models.Document
	statuses []string
	reasons  []string
	commits  []string
}

func newFakeDocs(docs ...*models.Document) *fakeDocs {
	f := &fakeDocs{docs: make(map[primitive.ObjectID]*models.Document)}
	for _, d := range docs {
		f.docs[d.ID] = d
	}
	return f
}

func (f *fakeDocs) Get(ctx context.Context, id primitive.ObjectID) (*models.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, ok := f.docs[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	dup := *doc
	return &dup, nil
}

func (f *fakeDocs) SetStatus(ctx context.Context, id primitive.ObjectID, status, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, ok := f.docs[id]
	if !ok {
		return mongo.ErrNoDocuments
	}
	doc.Status = status
	doc.StatusReason = reason
	f.statuses = append(f.statuses, status)
	f.reasons = append(f.reasons, reason)
	return nil
}

func (f *fakeDocs) Commit(ctx context.Context, id primitive.ObjectID, generation string, elapsed time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, ok := f.docs[id]
	if !ok {
		return mongo.ErrNoDocuments
	}
	doc.Status = models.StatusReady
	doc.ActiveGeneration = generation
	doc.ProcessingMs = elapsed.Milliseconds()
	f.commits = append(f.commits, generation)
	return nil
}

func (f *fakeDocs) FindByCategories(ctx context.Context, syllabus, class, subject string) ([]models.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Document
	for _, d := range f.docs {
		if d.Syllabus == syllabus && d.Class == class && d.Subject == subject {
			out = append(out, *d)
		}
	}
	return out, nil
}

type fakeChunks struct {
	mu        sync.Mutex
	inserted  []models.Chunk
	pruned    []string
	results   []models.ScoredChunk
	searchErr error
}

func (f *fakeChunks) InsertGeneration(ctx context.Context, chunks []models.Chunk) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inserted = append(f.inserted, chunks...)
	return nil
}

func (f *fakeChunks) PruneGenerations(ctx context.Context, documentID primitive.ObjectID, keep string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pruned = append(f.pruned, keep)
	return nil
}

func (f *fakeChunks) Search(ctx context.Context, documentID primitive.ObjectID, generation string, query []float32, k int) ([]models.ScoredChunk, error) {
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	if k > 0 && len(f.results) > k {
		return f.results[:k], nil
	}
	return f.results, nil
}

type fakeMessages struct {
	mu       sync.Mutex
	appended []models.Message
	history  []models.Message
	cleared  int64
}

func (f *fakeMessages) Append(ctx context.Context, msg models.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.appended = append(f.appended, msg)
	return nil
}

func (f *fakeMessages) Recent(ctx context.Context, sessionID string, n int) ([]models.Message, error) {
	if len(f.history) > n {
		return f.history[len(f.history)-n:], nil
	}
	return f.history, nil
}

func (f *fakeMessages) Clear(ctx context.Context, sessionID string) (int64, error) {
	return f.cleared, nil
}

type fakeExtractor struct {
	text string
	err  error
}

func (f *fakeExtractor) Extract(ctx context.Context, url string) (string, error) {
	return f.text, f.err
}

// fakeEmbedder returns a constant-dimension vector per text, encoding
// the text's index so tests can tell vectors apart.
type fakeEmbedder struct {
	dim int
	err error
}

func (f *fakeEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		v := make([]float32, f.dim)
		v[0] = float32(i + 1)
		out[i] = v
	}
	return out, nil
}

func (f *fakeEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	return make([]float32, f.dim), nil
}

func (f *fakeEmbedder) Dimension() int { return f.dim }

type fakeLocker struct {
	busy     bool
	acquired []string
	released int
}

func (f *fakeLocker) Acquire(ctx context.Context, key string) (func(), bool, error) {
	if f.busy {
		return nil, false, nil
	}
	f.acquired = append(f.acquired, key)
	return func() { f.released++ }, true, nil
}

// blockingProvider hangs until the call's context expires, standing in
// for a provider that stops responding.
type blockingProvider struct {
	name string
}

func (b *blockingProvider) Name() string { return b.name }

func (b *blockingProvider) Generate(ctx context.Context, prompt string) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

// fakeProvider satisfies ai.Provider for router tests.
type fakeProvider struct {
	name   string
	answer string
	err    error
	calls  int
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Generate(ctx context.Context, prompt string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	if f.answer == "" {
		return fmt.Sprintf("answer to: %s", prompt), nil
	}
	return f.answer, nil
}
