package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"edu-chatbot-backend/services"
)

const TaskIngestDocument = "document:ingest"

// IngestMaxRetry caps retries of transient ingestion failures; asynq
// spaces attempts with its exponential backoff.
const IngestMaxRetry = 5

type IngestPayload struct {
	DocumentID string `json:"document_id"`
}

// NewIngestTask builds the fire-and-forget ingestion job for one
// document.
func NewIngestTask(documentID string) (*asynq.Task, error) {
	payload, err := json.Marshal(IngestPayload{DocumentID: documentID})
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(
		TaskIngestDocument,
		payload,
		asynq.MaxRetry(IngestMaxRetry),
		asynq.Timeout(10*time.Minute),
		asynq.Queue("critical"),
	), nil
}

// EnqueueIngest enqueues ingestion for a document id.
func EnqueueIngest(client *asynq.Client, documentID string) error {
	task, err := NewIngestTask(documentID)
	if err != nil {
		return err
	}
	_, err = client.Enqueue(task)
	return err
}

// IngestQueue is the enqueue surface handed to the HTTP layer.
type IngestQueue struct {
	client *asynq.Client
}

func NewIngestQueue(client *asynq.Client) *IngestQueue {
	return &IngestQueue{client: client}
}

func (q *IngestQueue) EnqueueIngest(documentID string) error {
	return EnqueueIngest(q.client, documentID)
}

// TaskProcessor binds queue deliveries to the ingestion pipeline.
type TaskProcessor struct {
	pipeline *services.IngestionPipeline
}

func NewTaskProcessor(pipeline *services.IngestionPipeline) *TaskProcessor {
	return &TaskProcessor{pipeline: pipeline}
}

func (p *TaskProcessor) HandleIngest(ctx context.Context, t *asynq.Task) error {
	var payload IngestPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal failed: %w", asynq.SkipRetry)
	}
	if err := p.pipeline.Ingest(ctx, payload.DocumentID); err != nil {
		if services.IsPermanent(err) {
			// The document is already marked failed; retrying cannot
			// change the outcome.
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}
		return err
	}
	return nil
}

// HandleError finalizes a document once its retry budget is exhausted,
// so a string of transient failures still ends in a recorded failed
// state rather than a silently stuck one.
func (p *TaskProcessor) HandleError(ctx context.Context, task *asynq.Task, err error) {
	if task.Type() != TaskIngestDocument {
		return
	}
	retried, _ := asynq.GetRetryCount(ctx)
	maxRetry, _ := asynq.GetMaxRetry(ctx)
	if retried < maxRetry {
		return
	}

	var payload IngestPayload
	if jsonErr := json.Unmarshal(task.Payload(), &payload); jsonErr != nil {
		return
	}
	p.pipeline.MarkFailed(context.Background(), payload.DocumentID, fmt.Sprintf("retries exhausted: %v", err))
}
