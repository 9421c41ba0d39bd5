package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rag-assistant-platform/internal/config"
	"rag-assistant-platform/models"
)

type stubIndexStore struct {
	state       models.CollectionState
	createErr   error
	createCalls int
	addCalls    int
	added       []models.Chunk
	deleted     models.EntryFilter
}

func (s *stubIndexStore) Inspect(ctx context.Context, collection string) (models.CollectionState, error) {
	return s.state, nil
}

func (s *stubIndexStore) Create(ctx context.Context, collection string, chunks []models.Chunk) error {
	s.createCalls++
	return s.createErr
}

func (s *stubIndexStore) Add(ctx context.Context, collection string, chunks []models.Chunk) error {
	s.addCalls++
	s.added = chunks
	return nil
}

func (s *stubIndexStore) Delete(ctx context.Context, collection string, filter models.EntryFilter) (int64, error) {
	s.deleted = filter
	return 2, nil
}

func newTestIngestService(t *testing.T, index IndexStore) *IngestService {
	t.Helper()
	chunker, err := NewChunker(500, 50)
	require.NoError(t, err)
	cfg := &config.Config{CollectionName: "documents"}
	return NewIngestService(cfg, NewDocumentNormalizer(), chunker, index)
}

func TestIngestFileBootstrapsAbsentCollection(t *testing.T) {
	index := &stubIndexStore{state: models.CollectionAbsent}
	svc := newTestIngestService(t, index)
	path := writeTempFile(t, "doc.txt", "some document text")

	chunks, err := svc.IngestFile(context.Background(), path, "doc.txt", "")
	require.NoError(t, err)

	assert.Equal(t, 1, chunks)
	assert.Equal(t, 1, index.createCalls)
	assert.Zero(t, index.addCalls)
}

func TestIngestFileAppendsToPopulatedCollection(t *testing.T) {
	index := &stubIndexStore{state: models.CollectionPopulated}
	svc := newTestIngestService(t, index)
	path := writeTempFile(t, "doc.txt", "some document text")

	_, err := svc.IngestFile(context.Background(), path, "doc.txt", "")
	require.NoError(t, err)

	assert.Zero(t, index.createCalls)
	assert.Equal(t, 1, index.addCalls)
}

func TestIngestFileLosingBootstrapRaceFallsBackToAdd(t *testing.T) {
	// The probe saw an absent collection, but a concurrent upload
	// populated it before Create ran. The upload must append, not fail.
	index := &stubIndexStore{
		state:     models.CollectionAbsent,
		createErr: fmt.Errorf("%w: documents", ErrIndexAlreadyExists),
	}
	svc := newTestIngestService(t, index)
	path := writeTempFile(t, "doc.txt", "some document text")

	chunks, err := svc.IngestFile(context.Background(), path, "doc.txt", "")
	require.NoError(t, err)

	assert.Equal(t, 1, chunks)
	assert.Equal(t, 1, index.createCalls)
	assert.Equal(t, 1, index.addCalls)
	require.Len(t, index.added, 1)
	assert.Equal(t, "doc.txt", index.added[0].Metadata.SourceID)
}

func TestIngestFileOtherCreateErrorsPropagate(t *testing.T) {
	index := &stubIndexStore{
		state:     models.CollectionAbsent,
		createErr: fmt.Errorf("connection reset"),
	}
	svc := newTestIngestService(t, index)
	path := writeTempFile(t, "doc.txt", "some document text")

	_, err := svc.IngestFile(context.Background(), path, "doc.txt", "")
	require.Error(t, err)
	assert.Zero(t, index.addCalls, "only the already-exists race falls back to Add")
}

func TestIngestFileDefaultsTenant(t *testing.T) {
	index := &stubIndexStore{state: models.CollectionPopulated}
	svc := newTestIngestService(t, index)
	path := writeTempFile(t, "doc.txt", "some document text")

	_, err := svc.IngestFile(context.Background(), path, "doc.txt", "")
	require.NoError(t, err)
	require.Len(t, index.added, 1)
	assert.Equal(t, DefaultTenant, index.added[0].Metadata.TenantID)
}

func TestClearDefaultsTenant(t *testing.T) {
	index := &stubIndexStore{}
	svc := newTestIngestService(t, index)

	deleted, err := svc.Clear(context.Background(), "")
	require.NoError(t, err)

	assert.Equal(t, int64(2), deleted)
	assert.Equal(t, DefaultTenant, index.deleted.TenantID)
}
