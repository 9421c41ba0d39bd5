package services

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"

	"rag-assistant-platform/models"
)

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, CosineSimilarity([]float32{1, 0, 0}, []float32{1, 0, 0}), 1e-9)
	assert.InDelta(t, 0.0, CosineSimilarity([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.InDelta(t, -1.0, CosineSimilarity([]float32{1, 2}, []float32{-1, -2}), 1e-9)

	// Magnitude does not matter, only direction.
	assert.InDelta(t, 1.0, CosineSimilarity([]float32{1, 1}, []float32{10, 10}), 1e-9)

	// Zero vectors never divide by zero.
	assert.Equal(t, 0.0, CosineSimilarity([]float32{0, 0}, []float32{1, 2}))
	assert.Equal(t, 0.0, CosineSimilarity(nil, []float32{1}))
}

func TestCosineSimilarityKnownAngle(t *testing.T) {
	// 45 degrees between (1,0) and (1,1).
	got := CosineSimilarity([]float32{1, 0}, []float32{1, 1})
	assert.InDelta(t, math.Sqrt2/2, got, 1e-6)
}

func TestTopKOrdersByScoreDescending(t *testing.T) {
	scored := []models.ScoredChunk{
		{Chunk: models.Chunk{Text: "low"}, Score: 0.1},
		{Chunk: models.Chunk{Text: "high"}, Score: 0.9},
		{Chunk: models.Chunk{Text: "mid"}, Score: 0.5},
	}

	top := TopK(scored, 2)

	assert.Len(t, top, 2)
	assert.Equal(t, "high", top[0].Chunk.Text)
	assert.Equal(t, "mid", top[1].Chunk.Text)
}

func TestTopKStableForEqualScores(t *testing.T) {
	scored := []models.ScoredChunk{
		{Chunk: models.Chunk{Text: "first"}, Score: 0.5},
		{Chunk: models.Chunk{Text: "second"}, Score: 0.5},
	}

	top := TopK(scored, 2)
	assert.Equal(t, "first", top[0].Chunk.Text)
	assert.Equal(t, "second", top[1].Chunk.Text)
}

func TestTopKFewerResultsThanK(t *testing.T) {
	scored := []models.ScoredChunk{{Score: 0.3}}
	assert.Len(t, TopK(scored, 5), 1)
}

func TestEntryFilterToBSON(t *testing.T) {
	assert.Equal(t, bson.M{}, models.EntryFilter{}.ToBSON())
	assert.True(t, models.EntryFilter{}.IsZero())

	f := models.EntryFilter{TenantID: "t1"}
	assert.Equal(t, bson.M{"tenant_id": "t1"}, f.ToBSON())
	assert.False(t, f.IsZero())

	f = models.EntryFilter{TenantID: "t1", SourceID: "a.txt"}
	assert.Equal(t, bson.M{"tenant_id": "t1", "source_id": "a.txt"}, f.ToBSON())
}
