package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds all application metrics
type Metrics struct {
	RequestCounter    metric.Int64Counter
	RequestDuration   metric.Float64Histogram
	QueriesAnswered   metric.Int64Counter
	DocumentsIngested metric.Int64Counter
	ChunksIndexed     metric.Int64Counter
	GenerationErrors  metric.Int64Counter
}

// InitMetrics initializes all application metrics
func InitMetrics() (*Metrics, error) {
	meter := otel.Meter("rag-assistant-platform")

	requestCounter, err := meter.Int64Counter(
		"http.requests.total",
		metric.WithDescription("Total HTTP requests"),
	)
	if err != nil {
		return nil, err
	}

	requestDuration, err := meter.Float64Histogram(
		"http.request.duration",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	queriesAnswered, err := meter.Int64Counter(
		"rag.queries.total",
		metric.WithDescription("Total answered queries"),
	)
	if err != nil {
		return nil, err
	}

	documentsIngested, err := meter.Int64Counter(
		"ingest.documents.total",
		metric.WithDescription("Total documents ingested"),
	)
	if err != nil {
		return nil, err
	}

	chunksIndexed, err := meter.Int64Counter(
		"ingest.chunks.total",
		metric.WithDescription("Total chunks written to the index"),
	)
	if err != nil {
		return nil, err
	}

	generationErrors, err := meter.Int64Counter(
		"rag.generation.errors",
		metric.WithDescription("Generation failures by kind"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		RequestCounter:    requestCounter,
		RequestDuration:   requestDuration,
		QueriesAnswered:   queriesAnswered,
		DocumentsIngested: documentsIngested,
		ChunksIndexed:     chunksIndexed,
		GenerationErrors:  generationErrors,
	}, nil
}

// RecordRequest records HTTP request metrics
func (m *Metrics) RecordRequest(method, path, status string, duration float64) {
	attrs := []attribute.KeyValue{
		attribute.String("http.method", method),
		attribute.String("http.path", path),
		attribute.String("http.status", status),
	}

	m.RequestCounter.Add(context.Background(), 1, metric.WithAttributes(attrs...))
	m.RequestDuration.Record(context.Background(), duration, metric.WithAttributes(attrs...))
}

// RecordQuery records one answered query
func (m *Metrics) RecordQuery(language string, grounded bool) {
	attrs := []attribute.KeyValue{
		attribute.String("rag.language", language),
		attribute.Bool("rag.grounded", grounded),
	}

	m.QueriesAnswered.Add(context.Background(), 1, metric.WithAttributes(attrs...))
}

// RecordIngest records a completed ingestion
func (m *Metrics) RecordIngest(format string, chunks int64) {
	attrs := []attribute.KeyValue{
		attribute.String("ingest.format", format),
	}

	m.DocumentsIngested.Add(context.Background(), 1, metric.WithAttributes(attrs...))
	m.ChunksIndexed.Add(context.Background(), chunks, metric.WithAttributes(attrs...))
}

// RecordGenerationError records a generation failure
func (m *Metrics) RecordGenerationError(kind string) {
	attrs := []attribute.KeyValue{
		attribute.String("error.kind", kind),
	}

	m.GenerationErrors.Add(context.Background(), 1, metric.WithAttributes(attrs...))
}
