package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"edu-chatbot-backend/internal/ai"
	"edu-chatbot-backend/internal/logger"
	"edu-chatbot-backend/internal/telemetry"
	"edu-chatbot-backend/models"
)

// IngestionPipeline turns a source document into searchable vector
// chunks: pending -> fetching -> chunking -> embedding -> ready, with
// failed terminal from any state. The queue re-delivers on transient
// errors; a fresh generation per attempt plus the single commit update
// makes re-delivery idempotent.
type IngestionPipeline struct {
	docs      DocumentStore
	chunks    ChunkStore
	extractor Extractor
	embedder  ai.Embedder
	chunker   *Chunker
	locks     Locker
	metrics   *telemetry.Metrics
}

func NewIngestionPipeline(
	docs DocumentStore,
	chunks ChunkStore,
	extractor Extractor,
	embedder ai.Embedder,
	chunker *Chunker,
	locks Locker,
	metrics *telemetry.Metrics,
) *IngestionPipeline {
	return &IngestionPipeline{
		docs:      docs,
		chunks:    chunks,
		extractor: extractor,
		embedder:  embedder,
		chunker:   chunker,
		locks:     locks,
		metrics:   metrics,
	}
}

// IngestLeaseKey is the lock key serializing work on one document.
// Anything that must not interleave with a running ingestion (the
// pipeline itself, document deletion) contends on this key.
func IngestLeaseKey(documentID string) string {
	return "ingest:doc:" + documentID
}

// Ingest runs one ingestion attempt for the document. A permanent
// error means the document was marked failed and the job must not be
// retried; any other error is transient and safe to re-deliver.
func (p *IngestionPipeline) Ingest(ctx context.Context, documentID string) error {
	tracer := otel.Tracer("ingestion-pipeline")
	ctx, span := tracer.Start(ctx, "document.ingest")
	defer span.End()
	span.SetAttributes(attribute.String("document.id", documentID))

	id, err := primitive.ObjectIDFromHex(documentID)
	if err != nil {
		return permanentf("invalid document id %q: %v", documentID, err)
	}

	// One ingestion per document at a time; a duplicate trigger while
	// the lease is held is dropped, and the queue's at-least-once
	// delivery plus replace-on-commit makes the drop safe.
	release, ok, err := p.locks.Acquire(ctx, IngestLeaseKey(documentID))
	if err != nil {
		return fmt.Errorf("acquiring ingestion lease: %w", err)
	}
	if !ok {
		logger.Info("Ingestion already in flight, dropping duplicate trigger", "document_id", documentID)
		return nil
	}
	defer release()

	start := time.Now()

	doc, err := p.docs.Get(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return permanentf("document %s not found", documentID)
		}
		return fmt.Errorf("loading document: %w", err)
	}

	fail := func(reason string, cause error) error {
		full := reason
		if cause != nil {
			full = fmt.Sprintf("%s: %v", reason, cause)
		}
		if setErr := p.docs.SetStatus(ctx, id, models.StatusFailed, full); setErr != nil {
			logger.Error("Failed to record ingestion failure", "document_id", documentID, "error", setErr)
		}
		p.metrics.RecordIngestion(ctx, models.StatusFailed, time.Since(start), 0)
		span.SetAttributes(attribute.String("ingest.status", models.StatusFailed))
		logger.Error("Ingestion failed", "document_id", documentID, "reason", full)
		return permanentf("%s", full)
	}

	if err := p.docs.SetStatus(ctx, id, models.StatusFetching, ""); err != nil {
		return fmt.Errorf("updating status: %w", err)
	}
	text, err := p.extractor.Extract(ctx, doc.SourceURL)
	if err != nil {
		if IsPermanent(err) {
			return fail("fetch failed", err)
		}
		return fmt.Errorf("fetching source: %w", err)
	}

	if err := p.docs.SetStatus(ctx, id, models.StatusChunking, ""); err != nil {
		return fmt.Errorf("updating status: %w", err)
	}
	texts := p.chunker.Split(text)
	if len(texts) == 0 {
		return fail("no extractable text in document", nil)
	}

	if err := p.docs.SetStatus(ctx, id, models.StatusEmbedding, ""); err != nil {
		return fmt.Errorf("updating status: %w", err)
	}
	vectors, err := p.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		// Rate limits and network errors go back to the queue for
		// backoff; no partial chunk set has been written yet.
		return fmt.Errorf("embedding chunks: %w", err)
	}
	if len(vectors) != len(texts) {
		return fail(fmt.Sprintf("embedder returned %d vectors for %d chunks", len(vectors), len(texts)), nil)
	}

	generation := uuid.NewString()
	chunks := make([]models.Chunk, len(texts))
	for i := range texts {
		chunks[i] = models.Chunk{
			DocumentID: id,
			Generation: generation,
			Ordinal:    i,
			Text:       texts[i],
			Vector:     vectors[i],
		}
	}

	// Discard generations superseded by earlier commits and orphans
	// from crashed attempts. The currently active generation stays
	// visible to readers until the commit below flips it; it is not
	// pruned here even after the commit, so a reader that resolved it
	// just before the flip still finds its chunks. The next attempt
	// disposes of it.
	if err := p.chunks.PruneGenerations(ctx, id, doc.ActiveGeneration); err != nil {
		return fmt.Errorf("pruning stale chunks: %w", err)
	}
	if err := p.chunks.InsertGeneration(ctx, chunks); err != nil {
		return fmt.Errorf("writing chunks: %w", err)
	}
	if err := p.docs.Commit(ctx, id, generation, time.Since(start)); err != nil {
		return fmt.Errorf("committing ingestion: %w", err)
	}

	elapsed := time.Since(start)
	p.metrics.RecordIngestion(ctx, models.StatusReady, elapsed, len(chunks))
	span.SetAttributes(
		attribute.String("ingest.status", models.StatusReady),
		attribute.Int("ingest.chunks", len(chunks)),
	)
	logger.Info("Document ingested",
		"document_id", documentID,
		"chunks", len(chunks),
		"elapsed_ms", elapsed.Milliseconds(),
	)
	return nil
}

// MarkFailed finalizes a document whose ingestion retries are
// exhausted.
func (p *IngestionPipeline) MarkFailed(ctx context.Context, documentID, reason string) {
	id, err := primitive.ObjectIDFromHex(documentID)
	if err != nil {
		return
	}
	if err := p.docs.SetStatus(ctx, id, models.StatusFailed, reason); err != nil {
		logger.Error("Failed to finalize document", "document_id", documentID, "error", err)
	}
}
