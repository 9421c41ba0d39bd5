package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// IndexEntry is the persisted form of a chunk plus its embedding
// vector. Entries are append-only; updates are insert-then-delete-old,
// never in-place mutation.
type IndexEntry struct {
	ID         primitive.ObjectID `bson:"_id,omitempty"`
	ChunkID    string             `bson:"chunk_id"`
	SourceID   string             `bson:"source_id"`
	TenantID   string             `bson:"tenant_id,omitempty"`
	ChunkIndex int                `bson:"chunk_index"`
	Text       string             `bson:"text"`
	Vector     []float32          `bson:"vector"`
	IndexedAt  time.Time          `bson:"indexed_at"`
}

// CollectionState reports whether a collection exists and whether it
// holds any entries. Backend failures are reported as errors by the
// probe, never encoded as a state.
type CollectionState int

const (
	CollectionAbsent CollectionState = iota
	CollectionEmpty
	CollectionPopulated
)

func (s CollectionState) String() string {
	switch s {
	case CollectionAbsent:
		return "absent"
	case CollectionEmpty:
		return "empty"
	case CollectionPopulated:
		return "populated"
	}
	return "unknown"
}

// EntryFilter selects index entries by metadata. Zero-value fields
// match everything, so the zero filter matches the whole collection.
type EntryFilter struct {
	TenantID string
	SourceID string
}

// ToBSON renders the filter as a MongoDB query document.
func (f EntryFilter) ToBSON() bson.M {
	query := bson.M{}
	if f.TenantID != "" {
		query["tenant_id"] = f.TenantID
	}
	if f.SourceID != "" {
		query["source_id"] = f.SourceID
	}
	return query
}

// IsZero reports whether the filter matches all entries.
func (f EntryFilter) IsZero() bool {
	return f.TenantID == "" && f.SourceID == ""
}
