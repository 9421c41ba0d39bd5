package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rag-assistant-platform/services"
)

func TestNewIngestTaskPayload(t *testing.T) {
	task, err := NewIngestTask("/tmp/abc_report.pdf", "report.pdf", "tenant-1")
	require.NoError(t, err)

	assert.Equal(t, TaskIngestDocument, task.Type())

	var payload IngestPayload
	require.NoError(t, json.Unmarshal(task.Payload(), &payload))
	assert.Equal(t, "/tmp/abc_report.pdf", payload.FilePath)
	assert.Equal(t, "report.pdf", payload.SourceName)
	assert.Equal(t, "tenant-1", payload.TenantID)
}

func TestInputErrorClassification(t *testing.T) {
	assert.True(t, isInputError(fmt.Errorf("%w: .png", services.ErrUnsupportedFormat)))
	assert.True(t, isInputError(fmt.Errorf("%w: blank.txt", services.ErrEmptyDocument)))

	// Losing the bootstrap race to a concurrent upload resolves as an
	// append on retry; dropping the task here would lose the document.
	assert.False(t, isInputError(fmt.Errorf("%w: documents", services.ErrIndexAlreadyExists)))
	assert.False(t, isInputError(services.ErrTimeout))
	assert.False(t, isInputError(fmt.Errorf("connection reset")))
}

func TestHandleIngestMalformedPayloadSkipsRetry(t *testing.T) {
	processor := NewIngestProcessor(nil)
	task := asynq.NewTask(TaskIngestDocument, []byte("not json"))

	err := processor.HandleIngest(context.Background(), task)
	require.Error(t, err)
	assert.ErrorIs(t, err, asynq.SkipRetry, "a payload that cannot be decoded must never be retried")
}
