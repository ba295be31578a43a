package services

import (
	"context"
	"strings"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"edu-chatbot-backend/models"
)

func pipelineFixture(docs *fakeDocs, chunks *fakeChunks, extractor *fakeExtractor, locker *fakeLocker) *IngestionPipeline {
	return NewIngestionPipeline(
		docs,
		chunks,
		extractor,
		&fakeEmbedder{dim: 4},
		NewChunker(10, 2),
		locker,
		nil,
	)
}

func TestIngestHappyPath(t *testing.T) {
	doc := &models.Document{
		ID:        primitive.NewObjectID(),
		SourceURL: "https://example.com/chapter1.pdf",
		Status:    models.StatusPending,
	}
	docs := newFakeDocs(doc)
	chunks := &fakeChunks{}
	locker := &fakeLocker{}
	p := pipelineFixture(docs, chunks, &fakeExtractor{text: strings.Repeat("cell biology ", 10)}, locker)

	if err := p.Ingest(context.Background(), doc.ID.Hex()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantStatuses := []string{models.StatusFetching, models.StatusChunking, models.StatusEmbedding}
	if len(docs.statuses) != len(wantStatuses) {
		t.Fatalf("statuses = %v", docs.statuses)
	}
	for i, want := range wantStatuses {
		if docs.statuses[i] != want {
			t.Fatalf("status %d = %q, want %q", i, docs.statuses[i], want)
		}
	}

	if len(docs.commits) != 1 {
		t.Fatalf("expected 1 commit, got %d", len(docs.commits))
	}
	generation := docs.commits[0]
	if len(chunks.inserted) == 0 {
		t.Fatal("no chunks written")
	}
	for i, c := range chunks.inserted {
		if c.Generation != generation {
			t.Fatalf("chunk %d generation %q, committed %q", i, c.Generation, generation)
		}
		if c.Ordinal != i {
			t.Fatalf("chunk %d ordinal = %d", i, c.Ordinal)
		}
		if c.DocumentID != doc.ID {
			t.Fatalf("chunk %d document id mismatch", i)
		}
	}

	// the only prune runs before the insert and keeps the generation
	// that was active going in
	if len(chunks.pruned) != 1 || chunks.pruned[0] != "" {
		t.Fatalf("prune calls = %v", chunks.pruned)
	}

	final, _ := docs.Get(context.Background(), doc.ID)
	if final.Status != models.StatusReady || final.ActiveGeneration != generation {
		t.Fatalf("document not committed: %+v", final)
	}
	if locker.released != 1 {
		t.Fatalf("lease released %d times", locker.released)
	}
}

func TestIngestKeepsSupersededGenerationUntilNextAttempt(t *testing.T) {
	doc := &models.Document{
		ID:               primitive.NewObjectID(),
		SourceURL:        "https://example.com/chapter1.pdf",
		Status:           models.StatusReady,
		ActiveGeneration: "old-gen",
	}
	docs := newFakeDocs(doc)
	chunks := &fakeChunks{}
	p := pipelineFixture(docs, chunks, &fakeExtractor{text: "fresh content for reingestion"}, &fakeLocker{})

	if err := p.Ingest(context.Background(), doc.ID.Hex()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// a reader that resolved old-gen just before the commit must still
	// find its chunks; only the pre-insert prune runs, keeping old-gen
	if len(chunks.pruned) != 1 || chunks.pruned[0] != "old-gen" {
		t.Fatalf("prune calls = %v, want only a pre-insert prune keeping old-gen", chunks.pruned)
	}

	final, _ := docs.Get(context.Background(), doc.ID)
	if final.ActiveGeneration == "old-gen" || final.ActiveGeneration == "" {
		t.Fatalf("commit did not flip the generation: %q", final.ActiveGeneration)
	}
}

func TestIngestDuplicateTriggerDropped(t *testing.T) {
	doc := &models.Document{ID: primitive.NewObjectID(), Status: models.StatusFetching}
	docs := newFakeDocs(doc)
	p := pipelineFixture(docs, &fakeChunks{}, &fakeExtractor{text: "text"}, &fakeLocker{busy: true})

	if err := p.Ingest(context.Background(), doc.ID.Hex()); err != nil {
		t.Fatalf("duplicate trigger should be dropped silently, got %v", err)
	}
	if len(docs.statuses) != 0 {
		t.Fatalf("dropped trigger must not touch the document, statuses = %v", docs.statuses)
	}
}

func TestIngestFetchFailurePermanent(t *testing.T) {
	doc := &models.Document{ID: primitive.NewObjectID(), SourceURL: "https://example.com/x.pdf", Status: models.StatusPending}
	docs := newFakeDocs(doc)
	p := pipelineFixture(docs, &fakeChunks{}, &fakeExtractor{err: permanentf("fetching document: HTTP 404")}, &fakeLocker{})

	err := p.Ingest(context.Background(), doc.ID.Hex())
	if err == nil {
		t.Fatal("expected error")
	}
	if !IsPermanent(err) {
		t.Fatalf("404 must be permanent, got %v", err)
	}

	final, _ := docs.Get(context.Background(), doc.ID)
	if final.Status != models.StatusFailed {
		t.Fatalf("status = %q, want failed", final.Status)
	}
	if !strings.Contains(final.StatusReason, "404") {
		t.Fatalf("failure reason should carry the cause: %q", final.StatusReason)
	}
}

func TestIngestTransientFetchFailureRetryable(t *testing.T) {
	doc := &models.Document{ID: primitive.NewObjectID(), SourceURL: "https://example.com/x.pdf", Status: models.StatusPending}
	docs := newFakeDocs(doc)
	p := pipelineFixture(docs, &fakeChunks{}, &fakeExtractor{err: context.DeadlineExceeded}, &fakeLocker{})

	err := p.Ingest(context.Background(), doc.ID.Hex())
	if err == nil {
		t.Fatal("expected error")
	}
	if IsPermanent(err) {
		t.Fatalf("timeout must stay retryable, got %v", err)
	}

	// the document is mid-flight, not failed; retries or the error
	// handler settle it
	final, _ := docs.Get(context.Background(), doc.ID)
	if final.Status == models.StatusFailed {
		t.Fatal("transient failure must not mark the document failed")
	}
}

func TestIngestEmptyTextFails(t *testing.T) {
	doc := &models.Document{ID: primitive.NewObjectID(), SourceURL: "https://example.com/x.pdf", Status: models.StatusPending}
	docs := newFakeDocs(doc)
	p := pipelineFixture(docs, &fakeChunks{}, &fakeExtractor{text: "   "}, &fakeLocker{})

	err := p.Ingest(context.Background(), doc.ID.Hex())
	if !IsPermanent(err) {
		t.Fatalf("empty document must fail permanently, got %v", err)
	}
	final, _ := docs.Get(context.Background(), doc.ID)
	if final.Status != models.StatusFailed {
		t.Fatalf("status = %q, want failed", final.Status)
	}
}

func TestIngestUnknownDocumentPermanent(t *testing.T) {
	docs := newFakeDocs()
	p := pipelineFixture(docs, &fakeChunks{}, &fakeExtractor{text: "text"}, &fakeLocker{})

	err := p.Ingest(context.Background(), primitive.NewObjectID().Hex())
	if !IsPermanent(err) {
		t.Fatalf("missing document must be permanent, got %v", err)
	}
}

func TestIngestInvalidIDPermanent(t *testing.T) {
	p := pipelineFixture(newFakeDocs(), &fakeChunks{}, &fakeExtractor{}, &fakeLocker{})
	if err := p.Ingest(context.Background(), "not-an-object-id"); !IsPermanent(err) {
		t.Fatalf("malformed id must be permanent, got %v", err)
	}
}

func TestMarkFailed(t *testing.T) {
	doc := &models.Document{ID: primitive.NewObjectID(), Status: models.StatusEmbedding}
	docs := newFakeDocs(doc)
	p := pipelineFixture(docs, &fakeChunks{}, &fakeExtractor{}, &fakeLocker{})

	p.MarkFailed(context.Background(), doc.ID.Hex(), "retries exhausted: connection reset")

	final, _ := docs.Get(context.Background(), doc.ID)
	if final.Status != models.StatusFailed {
		t.Fatalf("status = %q, want failed", final.Status)
	}
	if final.StatusReason != "retries exhausted: connection reset" {
		t.Fatalf("reason = %q", final.StatusReason)
	}
}
