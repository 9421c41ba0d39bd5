package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rag-assistant-platform/models"
)

type stubRetriever struct {
	state   models.CollectionState
	results []models.ScoredChunk
	calls   int
}

func (s *stubRetriever) Inspect(ctx context.Context, collection string) (models.CollectionState, error) {
	return s.state, nil
}

func (s *stubRetriever) SimilaritySearch(ctx context.Context, collection, query string, k int, filter models.EntryFilter) ([]models.ScoredChunk, error) {
	s.calls++
	return s.results, nil
}

type stubGenerator struct {
	output string
	calls  int
	system string
	user   string
}

func (s *stubGenerator) Generate(ctx context.Context, system, user string) (string, error) {
	s.calls++
	s.system = system
	s.user = user
	return s.output, nil
}

func scored(source, text string, score float64) models.ScoredChunk {
	return models.ScoredChunk{
		Chunk: models.Chunk{
			Text:     text,
			Metadata: models.ChunkMetadata{SourceID: source},
		},
		Score: score,
	}
}

func TestAskRequiresPopulatedIndex(t *testing.T) {
	for _, state := range []models.CollectionState{models.CollectionAbsent, models.CollectionEmpty} {
		retriever := &stubRetriever{state: state}
		generator := &stubGenerator{}
		chain := NewRAGChain(retriever, generator, "documents", 3)

		_, err := chain.Ask(context.Background(), "what?", "", "")
		assert.ErrorIs(t, err, ErrNoDocumentsIndexed)
		assert.Zero(t, retriever.calls, "retrieval must not run against a missing index")
		assert.Zero(t, generator.calls)
	}
}

func TestAskEmptyRetrievalSkipsGenerator(t *testing.T) {
	retriever := &stubRetriever{state: models.CollectionPopulated}
	generator := &stubGenerator{output: "should never appear"}
	chain := NewRAGChain(retriever, generator, "documents", 3)

	answer, err := chain.Ask(context.Background(), "what?", "", "")
	require.NoError(t, err)

	assert.Equal(t, NoRelevantInformation, answer.Text)
	assert.Empty(t, answer.Sources)
	assert.Equal(t, 1, retriever.calls)
	assert.Zero(t, generator.calls, "generator must not run on empty retrieval")
}

func TestAskDeduplicatesSourcesWithConsistentIDs(t *testing.T) {
	retriever := &stubRetriever{
		state: models.CollectionPopulated,
		results: []models.ScoredChunk{
			scored("guide.pdf#page=2", "chunk one", 0.9),
			scored("notes.txt", "chunk two", 0.8),
			scored("guide.pdf#page=2", "chunk three", 0.7),
		},
	}
	generator := &stubGenerator{output: "  answer text  "}
	chain := NewRAGChain(retriever, generator, "documents", 3)

	answer, err := chain.Ask(context.Background(), "what?", "", "")
	require.NoError(t, err)

	assert.Equal(t, "answer text", answer.Text)

	require.Len(t, answer.Sources, 2)
	assert.Equal(t, 1, answer.Sources[0].ID)
	assert.Equal(t, "guide.pdf#page=2", answer.Sources[0].Source)
	assert.Equal(t, "chunk one", answer.Sources[0].Preview)
	assert.Equal(t, 2, answer.Sources[1].ID)
	assert.Equal(t, "notes.txt", answer.Sources[1].Source)

	// Both chunks of the duplicated source carry the same citation id,
	// so any [1] in the model output resolves to guide.pdf#page=2.
	assert.Contains(t, generator.user, "[1] Source: guide.pdf#page=2\nchunk one")
	assert.Contains(t, generator.user, "[2] Source: notes.txt\nchunk two")
	assert.Contains(t, generator.user, "[1] Source: guide.pdf#page=2\nchunk three")
	assert.NotContains(t, generator.user, "[3]")
}

func TestAskPromptContainsQuestion(t *testing.T) {
	retriever := &stubRetriever{
		state:   models.CollectionPopulated,
		results: []models.ScoredChunk{scored("a.txt", "context text", 0.5)},
	}
	generator := &stubGenerator{output: "ok"}
	chain := NewRAGChain(retriever, generator, "documents", 3)

	_, err := chain.Ask(context.Background(), "Why is the sky blue?", "", "")
	require.NoError(t, err)

	assert.Contains(t, generator.user, "Question:\nWhy is the sky blue?")
	assert.True(t, strings.HasSuffix(generator.user, "Answer:"))
}

func TestLanguageDirectives(t *testing.T) {
	auto := languageDirective("")
	assert.Contains(t, auto, "same language")
	assert.Equal(t, auto, languageDirective(LanguageAuto))

	assert.Equal(t, "Answer strictly in English.", languageDirective("English"))
	assert.Equal(t, "Отвечай строго на русском языке.", languageDirective("Русский"))
	assert.Equal(t, "Answer strictly in Deutsch.", languageDirective("Deutsch"))
}

func TestAskAppliesLanguageDirective(t *testing.T) {
	retriever := &stubRetriever{
		state:   models.CollectionPopulated,
		results: []models.ScoredChunk{scored("a.txt", "context", 0.5)},
	}
	generator := &stubGenerator{output: "ok"}
	chain := NewRAGChain(retriever, generator, "documents", 3)

	_, err := chain.Ask(context.Background(), "вопрос?", "Русский", "")
	require.NoError(t, err)
	assert.Contains(t, generator.system, "Отвечай строго на русском языке.")
}

func TestSourcePreviewTruncatesRunes(t *testing.T) {
	long := strings.Repeat("ъ", sourcePreviewLimit+50)
	retriever := &stubRetriever{
		state:   models.CollectionPopulated,
		results: []models.ScoredChunk{scored("a.txt", long, 0.5)},
	}
	generator := &stubGenerator{output: "ok"}
	chain := NewRAGChain(retriever, generator, "documents", 3)

	answer, err := chain.Ask(context.Background(), "q", "", "")
	require.NoError(t, err)

	preview := []rune(answer.Sources[0].Preview)
	assert.Len(t, preview, sourcePreviewLimit)
	assert.Equal(t, strings.Repeat("ъ", sourcePreviewLimit), string(preview))
}
