package routes

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"rag-assistant-platform/services"
)

func TestGenerationErrorKind(t *testing.T) {
	assert.Equal(t, "timeout", generationErrorKind(fmt.Errorf("%w: generation call exceeded 60s", services.ErrTimeout)))
	assert.Equal(t, "provider", generationErrorKind(fmt.Errorf("%w: circuit breaker open", services.ErrGenerationProvider)))

	// Non-provider failures are not generation errors.
	assert.Empty(t, generationErrorKind(services.ErrNoDocumentsIndexed))
	assert.Empty(t, generationErrorKind(fmt.Errorf("connection reset")))
	assert.Empty(t, generationErrorKind(nil))
}
