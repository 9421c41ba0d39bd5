package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/hibiken/asynq"

	"rag-assistant-platform/internal/logger"
	"rag-assistant-platform/services"
)

const TaskIngestDocument = "document:ingest"

// IngestPayload carries everything the worker needs to process an
// upload that was too large for synchronous handling. The file sits in
// the shared storage dir until the worker consumes it.
type IngestPayload struct {
	FilePath   string `json:"file_path"`
	SourceName string `json:"source_name"`
	TenantID   string `json:"tenant_id,omitempty"`
}

// NewIngestTask creates the queued form of a document ingestion.
func NewIngestTask(filePath, sourceName, tenantID string) (*asynq.Task, error) {
	payload, err := json.Marshal(IngestPayload{
		FilePath:   filePath,
		SourceName: sourceName,
		TenantID:   tenantID,
	})
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(
		TaskIngestDocument,
		payload,
		asynq.MaxRetry(3),
		asynq.Timeout(10*time.Minute),
		asynq.Queue("critical"),
	), nil
}

// IngestProcessor handles queued ingestion tasks using the same
// pipeline the synchronous path uses.
type IngestProcessor struct {
	ingest *services.IngestService
}

func NewIngestProcessor(ingest *services.IngestService) *IngestProcessor {
	return &IngestProcessor{ingest: ingest}
}

func (p *IngestProcessor) HandleIngest(ctx context.Context, t *asynq.Task) error {
	var payload IngestPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal failed: %v: %w", err, asynq.SkipRetry)
	}

	logger.Info("processing queued upload", "source", payload.SourceName, "tenant", payload.TenantID)

	chunks, err := p.ingest.IngestFile(ctx, payload.FilePath, payload.SourceName, payload.TenantID)
	if err != nil {
		// Malformed input will not get better on retry.
		if isInputError(err) {
			logger.Error("queued upload rejected", "source", payload.SourceName, "error", err)
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}
		return err
	}

	if err := os.Remove(payload.FilePath); err != nil {
		logger.Warn("failed to remove processed upload", "path", payload.FilePath, "error", err)
	}

	logger.Info("queued upload indexed", "source", payload.SourceName, "chunks", chunks)
	return nil
}

// isInputError reports whether the failure is inherent to the uploaded
// content. Anything else (store, provider, contention) may succeed on
// a later attempt and must stay retryable.
func isInputError(err error) bool {
	return errors.Is(err, services.ErrUnsupportedFormat) ||
		errors.Is(err, services.ErrEmptyDocument)
}
