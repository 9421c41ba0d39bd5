package services

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"rag-assistant-platform/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// Embedder converts text into a vector representation. Implementations
// live in internal/ai; tests substitute deterministic stubs.
type Embedder interface {
	EmbedText(ctx context.Context, text string) ([]float32, error)
}

// VectorIndexManager owns the persistent vector index. Each named
// collection maps to a MongoDB collection of IndexEntry documents.
// Every mutation is a completed MongoDB write before the call returns,
// so callers can treat each operation as durable at collection level.
//
// Writes to a given collection are serialized through a per-collection
// mutex. Reads are not blocked by writes: a similarity search running
// concurrently with an Add sees whatever prefix of the batch the
// server has applied, which is harmless at chunk granularity.
type VectorIndexManager struct {
	db       *mongo.Database
	embedder Embedder
	locks    sync.Map // collection name -> *sync.Mutex
}

func NewVectorIndexManager(db *mongo.Database, embedder Embedder) *VectorIndexManager {
	return &VectorIndexManager{db: db, embedder: embedder}
}

func (m *VectorIndexManager) lock(collection string) *sync.Mutex {
	mu, _ := m.locks.LoadOrStore(collection, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// Inspect reports whether the named collection is absent, present but
// empty, or populated. It is the single probe behind the upload
// bootstrap branch: genuine absence and transient backend errors are
// kept distinct because backend errors surface as err, never as a
// state value.
func (m *VectorIndexManager) Inspect(ctx context.Context, collection string) (models.CollectionState, error) {
	names, err := m.db.ListCollectionNames(ctx, bson.M{"name": collection})
	if err != nil {
		return models.CollectionAbsent, fmt.Errorf("failed to list collections: %w", err)
	}
	if len(names) == 0 {
		return models.CollectionAbsent, nil
	}

	count, err := m.db.Collection(collection).EstimatedDocumentCount(ctx)
	if err != nil {
		return models.CollectionAbsent, fmt.Errorf("failed to count entries: %w", err)
	}
	if count == 0 {
		return models.CollectionEmpty, nil
	}
	return models.CollectionPopulated, nil
}

// Create builds a new index from chunks. It accepts an absent or an
// existing-but-empty collection; a populated one fails with
// ErrIndexAlreadyExists so callers cannot silently clobber content.
func (m *VectorIndexManager) Create(ctx context.Context, collection string, chunks []models.Chunk) error {
	mu := m.lock(collection)
	mu.Lock()
	defer mu.Unlock()

	state, err := m.Inspect(ctx, collection)
	if err != nil {
		return err
	}
	switch state {
	case models.CollectionPopulated:
		return fmt.Errorf("%w: %s", ErrIndexAlreadyExists, collection)
	case models.CollectionAbsent:
		if err := m.db.CreateCollection(ctx, collection); err != nil {
			return fmt.Errorf("failed to create collection: %w", err)
		}
		if err := m.ensureIndexes(ctx, collection); err != nil {
			return err
		}
	}

	return m.insertChunks(ctx, collection, chunks)
}

// Load verifies that the named collection exists. It fails with
// ErrIndexNotFound for an absent collection; an empty one loads fine.
func (m *VectorIndexManager) Load(ctx context.Context, collection string) error {
	state, err := m.Inspect(ctx, collection)
	if err != nil {
		return err
	}
	if state == models.CollectionAbsent {
		return fmt.Errorf("%w: %s", ErrIndexNotFound, collection)
	}
	return nil
}

// Add embeds and appends chunks to an existing collection. Re-uploading
// identical content produces duplicate entries; deduplication is the
// caller's responsibility.
func (m *VectorIndexManager) Add(ctx context.Context, collection string, chunks []models.Chunk) error {
	mu := m.lock(collection)
	mu.Lock()
	defer mu.Unlock()

	state, err := m.Inspect(ctx, collection)
	if err != nil {
		return err
	}
	if state == models.CollectionAbsent {
		return fmt.Errorf("%w: %s", ErrIndexNotFound, collection)
	}

	return m.insertChunks(ctx, collection, chunks)
}

// Delete removes all entries matching the filter. Deleting from an
// absent collection, or with a filter nothing matches, is a no-op.
func (m *VectorIndexManager) Delete(ctx context.Context, collection string, filter models.EntryFilter) (int64, error) {
	mu := m.lock(collection)
	mu.Lock()
	defer mu.Unlock()

	state, err := m.Inspect(ctx, collection)
	if err != nil {
		return 0, err
	}
	if state == models.CollectionAbsent {
		return 0, nil
	}

	res, err := m.db.Collection(collection).DeleteMany(ctx, filter.ToBSON())
	if err != nil {
		return 0, fmt.Errorf("failed to delete entries: %w", err)
	}
	return res.DeletedCount, nil
}

// SimilaritySearch embeds the query and returns up to k entries by
// descending cosine similarity, optionally restricted by filter.
func (m *VectorIndexManager) SimilaritySearch(ctx context.Context, collection, query string, k int, filter models.EntryFilter) ([]models.ScoredChunk, error) {
	queryVec, err := m.embedder.EmbedText(ctx, query)
	if err != nil {
		return nil, err
	}

	cursor, err := m.db.Collection(collection).Find(ctx, filter.ToBSON())
	if err != nil {
		return nil, fmt.Errorf("failed to query index: %w", err)
	}
	defer cursor.Close(ctx)

	var scored []models.ScoredChunk
	for cursor.Next(ctx) {
		var entry models.IndexEntry
		if err := cursor.Decode(&entry); err != nil {
			return nil, fmt.Errorf("failed to decode entry: %w", err)
		}
		scored = append(scored, models.ScoredChunk{
			Chunk: models.Chunk{
				Text: entry.Text,
				Metadata: models.ChunkMetadata{
					SourceID:   entry.SourceID,
					TenantID:   entry.TenantID,
					ChunkIndex: entry.ChunkIndex,
				},
			},
			Score: CosineSimilarity(queryVec, entry.Vector),
		})
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("index cursor error: %w", err)
	}

	return TopK(scored, k), nil
}

func (m *VectorIndexManager) insertChunks(ctx context.Context, collection string, chunks []models.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	now := time.Now().UTC()
	entries := make([]interface{}, 0, len(chunks))
	for _, chunk := range chunks {
		vec, err := m.embedder.EmbedText(ctx, chunk.Text)
		if err != nil {
			return fmt.Errorf("failed to embed chunk %d of %s: %w", chunk.Metadata.ChunkIndex, chunk.Metadata.SourceID, err)
		}
		entries = append(entries, models.IndexEntry{
			ChunkID:    uuid.NewString(),
			SourceID:   chunk.Metadata.SourceID,
			TenantID:   chunk.Metadata.TenantID,
			ChunkIndex: chunk.Metadata.ChunkIndex,
			Text:       chunk.Text,
			Vector:     vec,
			IndexedAt:  now,
		})
	}

	if _, err := m.db.Collection(collection).InsertMany(ctx, entries); err != nil {
		return fmt.Errorf("failed to insert entries: %w", err)
	}
	return nil
}

func (m *VectorIndexManager) ensureIndexes(ctx context.Context, collection string) error {
	col := m.db.Collection(collection)
	_, err := col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "tenant_id", Value: 1}}},
		{Keys: bson.D{{Key: "source_id", Value: 1}}},
		{Keys: bson.D{{Key: "chunk_id", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

// CosineSimilarity computes the cosine of the angle between two
// vectors. Mismatched lengths compare over the shorter prefix; a zero
// vector scores 0.
func CosineSimilarity(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// TopK sorts scored chunks by descending score and truncates to k.
// The sort is stable so equal scores keep insertion order.
func TopK(scored []models.ScoredChunk, k int) []models.ScoredChunk {
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	if k > 0 && len(scored) > k {
		scored = scored[:k]
	}
	return scored
}
