package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds the application's instruments.
type Metrics struct {
	ChatRequests      metric.Int64Counter
	ProviderFailures  metric.Int64Counter
	IngestionDuration metric.Float64Histogram
	IngestionOutcomes metric.Int64Counter
	ChunksWritten     metric.Int64Counter
}

// InitMetrics registers the application metrics.
func InitMetrics() (*Metrics, error) {
	meter := otel.Meter("edu-chatbot-backend")

	chatRequests, err := meter.Int64Counter(
		"chat.requests.total",
		metric.WithDescription("Total chat requests by provider and outcome"),
	)
	if err != nil {
		return nil, err
	}

	providerFailures, err := meter.Int64Counter(
		"provider.failures.total",
		metric.WithDescription("Generation/embedding provider failures"),
	)
	if err != nil {
		return nil, err
	}

	ingestionDuration, err := meter.Float64Histogram(
		"ingestion.duration",
		metric.WithDescription("End-to-end document ingestion time in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	ingestionOutcomes, err := meter.Int64Counter(
		"ingestion.outcomes.total",
		metric.WithDescription("Ingestion attempts by terminal status"),
	)
	if err != nil {
		return nil, err
	}

	chunksWritten, err := meter.Int64Counter(
		"ingestion.chunks.total",
		metric.WithDescription("Chunks committed to the vector store"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		ChatRequests:      chatRequests,
		ProviderFailures:  providerFailures,
		IngestionDuration: ingestionDuration,
		IngestionOutcomes: ingestionOutcomes,
		ChunksWritten:     chunksWritten,
	}, nil
}

// RecordIngestion records one finished ingestion attempt.
func (m *Metrics) RecordIngestion(ctx context.Context, status string, elapsed time.Duration, chunks int) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("status", status))
	m.IngestionOutcomes.Add(ctx, 1, attrs)
	m.IngestionDuration.Record(ctx, elapsed.Seconds(), attrs)
	if chunks > 0 {
		m.ChunksWritten.Add(ctx, int64(chunks))
	}
}

// RecordChat records one chat request.
func (m *Metrics) RecordChat(ctx context.Context, provider, outcome string) {
	if m == nil {
		return
	}
	m.ChatRequests.Add(ctx, 1, metric.WithAttributes(
		attribute.String("provider", provider),
		attribute.String("outcome", outcome),
	))
}

// RecordProviderFailure records a downstream provider failure.
func (m *Metrics) RecordProviderFailure(ctx context.Context, provider string) {
	if m == nil {
		return
	}
	m.ProviderFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("provider", provider)))
}
