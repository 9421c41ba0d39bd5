package models

// Document is one logical unit of text produced by the normalizer.
// A plain-text upload yields a single Document; a PDF yields one
// Document per page so citations can point at a sub-part of the file.
// Documents are transient: they exist between loading and chunking and
// are never persisted themselves.
type Document struct {
	Text     string `json:"text"`
	SourceID string `json:"source_id"`
	TenantID string `json:"tenant_id,omitempty"`
}

// ChunkMetadata is the provenance carried by every chunk. SourceID
// always traces back to exactly one Document; ChunkIndex is assigned
// per document starting at 0.
type ChunkMetadata struct {
	SourceID   string `bson:"source_id" json:"source_id"`
	TenantID   string `bson:"tenant_id,omitempty" json:"tenant_id,omitempty"`
	ChunkIndex int    `bson:"chunk_index" json:"chunk_index"`
}

// Chunk is the atomic unit of indexing and retrieval.
type Chunk struct {
	Text     string        `json:"text"`
	Metadata ChunkMetadata `json:"metadata"`
}

// ScoredChunk pairs a retrieved chunk with its similarity score.
// Retrieval results are ordered by descending score and live only for
// the duration of one query.
type ScoredChunk struct {
	Chunk Chunk   `json:"chunk"`
	Score float64 `json:"score"`
}
