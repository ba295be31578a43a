package ai

import (
	"context"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"golang.org/x/time/rate"
	"google.golang.org/api/option"

	"edu-chatbot-backend/internal/config"
)

// Embedder converts text into fixed-dimension vectors. One pinned
// implementation serves both ingestion and query embedding; mixing
// providers across the two corrupts similarity scores silently.
type Embedder interface {
	// EmbedDocuments embeds passages for indexing, one vector per text.
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
	// EmbedQuery embeds a question for retrieval.
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
	// Dimension is the fixed output vector size.
	Dimension() int
}

// embedBatchSize is the Gemini API's per-request batch limit.
const embedBatchSize = 100

// GeminiEmbedder embeds with Google Generative AI (text-embedding-004
// by default). Document and query embedding use the provider's distinct
// task types so scores match what the model was trained for.
type GeminiEmbedder struct {
	client     *genai.Client
	docModel   *genai.EmbeddingModel
	queryModel *genai.EmbeddingModel
	limiter    *rate.Limiter
	dim        int
}

func NewGeminiEmbedder(ctx context.Context, cfg *config.Config) (*GeminiEmbedder, error) {
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("missing GEMINI_API_KEY for embeddings")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.GeminiAPIKey))
	if err != nil {
		return nil, err
	}

	docModel := client.EmbeddingModel(cfg.EmbeddingsModel)
	docModel.TaskType = genai.TaskTypeRetrievalDocument

	queryModel := client.EmbeddingModel(cfg.EmbeddingsModel)
	queryModel.TaskType = genai.TaskTypeRetrievalQuery

	return &GeminiEmbedder{
		client:     client,
		docModel:   docModel,
		queryModel: queryModel,
		// Stay under the free-tier RPM with some buffer.
		limiter: rate.NewLimiter(rate.Limit(1.5), 3),
		dim:     cfg.VectorDim,
	}, nil
}

func (e *GeminiEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, 0, len(texts))

	for start := 0; start < len(texts); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(texts) {
			end = len(texts)
		}

		if err := e.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		batch := e.docModel.NewBatch()
		for _, text := range texts[start:end] {
			batch.AddContent(genai.Text(text))
		}

		resp, err := e.docModel.BatchEmbedContents(ctx, batch)
		if err != nil {
			return nil, fmt.Errorf("batch embedding failed: %w", err)
		}
		if len(resp.Embeddings) != end-start {
			return nil, fmt.Errorf("embedding count mismatch: sent %d, got %d", end-start, len(resp.Embeddings))
		}

		for _, emb := range resp.Embeddings {
			if len(emb.Values) != e.dim {
				return nil, fmt.Errorf("embedding dimension mismatch: want %d, got %d", e.dim, len(emb.Values))
			}
			vectors = append(vectors, emb.Values)
		}
	}

	return vectors, nil
}

func (e *GeminiEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if err := e.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	resp, err := e.queryModel.EmbedContent(ctx, genai.Text(text))
	if err != nil {
		return nil, err
	}
	if resp.Embedding == nil {
		return nil, fmt.Errorf("no embedding returned")
	}
	return resp.Embedding.Values, nil
}

func (e *GeminiEmbedder) Dimension() int { return e.dim }

func (e *GeminiEmbedder) Close() error { return e.client.Close() }
