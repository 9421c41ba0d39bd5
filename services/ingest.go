package services

import (
	"context"
	"errors"
	"fmt"

	"rag-assistant-platform/internal/config"
	"rag-assistant-platform/internal/logger"
	"rag-assistant-platform/models"
)

// DefaultTenant tags entries uploaded without an explicit tenant, so
// the clear operation has a well-defined target when none is given.
const DefaultTenant = "default"

// IndexStore is the slice of the index manager the ingest pipeline
// writes through. Tests substitute stubs.
type IndexStore interface {
	Inspect(ctx context.Context, collection string) (models.CollectionState, error)
	Create(ctx context.Context, collection string, chunks []models.Chunk) error
	Add(ctx context.Context, collection string, chunks []models.Chunk) error
	Delete(ctx context.Context, collection string, filter models.EntryFilter) (int64, error)
}

// IngestService drives the write path: normalize, chunk, then create
// or extend the vector index depending on its current state.
type IngestService struct {
	cfg        *config.Config
	normalizer *DocumentNormalizer
	chunker    *Chunker
	index      IndexStore
}

func NewIngestService(cfg *config.Config, normalizer *DocumentNormalizer, chunker *Chunker, index IndexStore) *IngestService {
	return &IngestService{
		cfg:        cfg,
		normalizer: normalizer,
		chunker:    chunker,
		index:      index,
	}
}

// IngestFile loads the file at path, chunks it and writes the chunks
// into the configured collection, returning the number of chunks
// produced. The first upload bootstraps the index: an absent or empty
// collection is created, a populated one is extended. The state probe
// is explicit, so a transient backend error aborts the upload instead
// of masquerading as "collection absent" and clobbering existing data.
func (s *IngestService) IngestFile(ctx context.Context, path, sourceName, tenantID string) (int, error) {
	if tenantID == "" {
		tenantID = DefaultTenant
	}

	docs, err := s.normalizer.Load(path, sourceName, tenantID)
	if err != nil {
		return 0, err
	}

	chunks, err := s.chunker.Split(docs)
	if err != nil {
		return 0, err
	}
	if len(chunks) == 0 {
		return 0, fmt.Errorf("%w: %s", ErrEmptyDocument, sourceName)
	}

	state, err := s.index.Inspect(ctx, s.cfg.CollectionName)
	if err != nil {
		return 0, err
	}

	switch state {
	case models.CollectionPopulated:
		err = s.index.Add(ctx, s.cfg.CollectionName, chunks)
	default:
		// Absent or empty-but-present: both bootstrap via Create.
		err = s.index.Create(ctx, s.cfg.CollectionName, chunks)
		if errors.Is(err, ErrIndexAlreadyExists) {
			// A concurrent upload populated the collection between our
			// probe and Create's locked re-check. The loser appends.
			err = s.index.Add(ctx, s.cfg.CollectionName, chunks)
		}
	}
	if err != nil {
		return 0, err
	}

	logger.Info("document ingested",
		"source", sourceName,
		"tenant", tenantID,
		"documents", len(docs),
		"chunks", len(chunks),
		"collection_state", state.String())

	return len(chunks), nil
}

// Clear deletes all index entries for the given tenant, defaulting to
// the tenant used for untagged uploads. Clearing a tenant that has no
// entries, or an index that does not exist, succeeds with zero.
func (s *IngestService) Clear(ctx context.Context, tenantID string) (int64, error) {
	if tenantID == "" {
		tenantID = DefaultTenant
	}

	deleted, err := s.index.Delete(ctx, s.cfg.CollectionName, models.EntryFilter{TenantID: tenantID})
	if err != nil {
		return 0, err
	}

	logger.Info("tenant entries cleared", "tenant", tenantID, "deleted", deleted)
	return deleted, nil
}
