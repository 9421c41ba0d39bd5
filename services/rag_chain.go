package services

import (
	"context"
	"fmt"
	"strings"

	"rag-assistant-platform/models"
)

// Generator produces a completion for a system+user prompt pair.
// Implementations live in internal/ai; tests substitute stubs.
type Generator interface {
	Generate(ctx context.Context, system, user string) (string, error)
}

// Retriever is the read-only slice of the index manager the chain
// depends on. The chain never mutates the index.
type Retriever interface {
	Inspect(ctx context.Context, collection string) (models.CollectionState, error)
	SimilaritySearch(ctx context.Context, collection, query string, k int, filter models.EntryFilter) ([]models.ScoredChunk, error)
}

const (
	// LanguageAuto instructs the model to mirror the question's
	// language instead of forcing a fixed one.
	LanguageAuto = "Auto"

	// NoRelevantInformation is returned verbatim when retrieval comes
	// back empty. The generator is deliberately not invoked in that
	// case, both to save quota and to avoid fabricated answers.
	NoRelevantInformation = "No relevant information found."

	// sourcePreviewLimit bounds preview length in runes so multibyte
	// text is never truncated mid-character.
	sourcePreviewLimit = 200
)

const systemPromptTemplate = `You are a professional RAG assistant.

Rules:
- Answer ONLY using the provided context
- If the answer is not in the context, say that you don't know
- Do NOT hallucinate
- Cite sources using the bracketed [number] of the context entries
- %s`

// RAGChain answers questions by conditioning the generative model on
// passages retrieved from the vector index.
type RAGChain struct {
	retriever  Retriever
	generator  Generator
	collection string
	topK       int
}

func NewRAGChain(retriever Retriever, generator Generator, collection string, topK int) *RAGChain {
	if topK <= 0 {
		topK = 3
	}
	return &RAGChain{
		retriever:  retriever,
		generator:  generator,
		collection: collection,
		topK:       topK,
	}
}

// Ask runs the full retrieve-assemble-generate pipeline for one
// question. language selects the answer language ("Auto" mirrors the
// question); tenantID, when non-empty, scopes retrieval to that
// tenant's documents. Each call is stateless.
func (c *RAGChain) Ask(ctx context.Context, question, language, tenantID string) (*models.Answer, error) {
	state, err := c.retriever.Inspect(ctx, c.collection)
	if err != nil {
		return nil, err
	}
	if state != models.CollectionPopulated {
		return nil, fmt.Errorf("%w: collection %s is %s", ErrNoDocumentsIndexed, c.collection, state)
	}

	results, err := c.retriever.SimilaritySearch(ctx, c.collection, question, c.topK, models.EntryFilter{TenantID: tenantID})
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return &models.Answer{Text: NoRelevantInformation, Sources: []models.Source{}}, nil
	}

	contextBlock, sources := assembleContext(results)
	systemPrompt := fmt.Sprintf(systemPromptTemplate, languageDirective(language))
	userPrompt := fmt.Sprintf("Context:\n%s\n\nQuestion:\n%s\n\nAnswer:", contextBlock, question)

	output, err := c.generator.Generate(ctx, systemPrompt, userPrompt)
	if err != nil {
		return nil, err
	}

	return &models.Answer{
		Text:    strings.TrimSpace(output),
		Sources: sources,
	}, nil
}

// assembleContext renders retrieved chunks as a tagged list in
// retrieval order and builds the deduplicated source list alongside.
// Citation ids are assigned per source in first-seen order and shared
// by every chunk of that source, so a bracketed number in the context
// always resolves to the source entry with the same id. A document
// retrieved as several chunks is listed once, with the first
// occurrence's preview.
func assembleContext(results []models.ScoredChunk) (string, []models.Source) {
	ids := make(map[string]int, len(results))
	sources := make([]models.Source, 0, len(results))
	parts := make([]string, 0, len(results))

	for _, r := range results {
		src := r.Chunk.Metadata.SourceID
		id, ok := ids[src]
		if !ok {
			id = len(sources) + 1
			ids[src] = id
			sources = append(sources, models.Source{
				ID:      id,
				Source:  src,
				Preview: truncateRunes(r.Chunk.Text, sourcePreviewLimit),
			})
		}
		parts = append(parts, fmt.Sprintf("[%d] Source: %s\n%s", id, src, r.Chunk.Text))
	}
	return strings.Join(parts, "\n\n"), sources
}

// languageDirective turns the language parameter into an explicit
// instruction. The model never infers the target language on its own.
func languageDirective(language string) string {
	switch language {
	case "", LanguageAuto:
		return "Answer in the same language as the user's question. If the context is in another language, translate."
	case "English":
		return "Answer strictly in English."
	case "Русский":
		return "Отвечай строго на русском языке."
	default:
		return fmt.Sprintf("Answer strictly in %s.", language)
	}
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
