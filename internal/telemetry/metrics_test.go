package telemetry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitMetricsCreatesAllInstruments(t *testing.T) {
	m, err := InitMetrics()
	require.NoError(t, err)

	assert.NotNil(t, m.RequestCounter)
	assert.NotNil(t, m.RequestDuration)
	assert.NotNil(t, m.QueriesAnswered)
	assert.NotNil(t, m.DocumentsIngested)
	assert.NotNil(t, m.ChunksIndexed)
	assert.NotNil(t, m.GenerationErrors)

	// Against the default no-op meter provider every recorder is a
	// safe no-op; none may panic.
	m.RecordRequest("POST", "/query", "success", 0.2)
	m.RecordQuery("Auto", true)
	m.RecordIngest(".pdf", 12)
	m.RecordGenerationError("timeout")
}
