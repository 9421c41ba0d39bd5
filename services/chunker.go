package services

import (
	"fmt"
	"unicode"

	"rag-assistant-platform/models"
)

// Chunker splits normalized documents into overlapping segments small
// enough for embedding and prompt assembly. Sizes are measured in
// runes so multibyte text never gets cut mid-character.
type Chunker struct {
	chunkSize    int
	chunkOverlap int
}

func NewChunker(chunkSize, chunkOverlap int) (*Chunker, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", chunkSize)
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		return nil, fmt.Errorf("chunk overlap must be in [0, %d), got %d", chunkSize, chunkOverlap)
	}
	return &Chunker{chunkSize: chunkSize, chunkOverlap: chunkOverlap}, nil
}

// Split chunks every document, propagating provenance metadata and
// assigning a monotonically increasing chunk index per document.
func (c *Chunker) Split(docs []models.Document) ([]models.Chunk, error) {
	var chunks []models.Chunk
	for _, doc := range docs {
		for i, text := range c.splitText(doc.Text) {
			chunks = append(chunks, models.Chunk{
				Text: text,
				Metadata: models.ChunkMetadata{
					SourceID:   doc.SourceID,
					TenantID:   doc.TenantID,
					ChunkIndex: i,
				},
			})
		}
	}
	return chunks, nil
}

// splitText greedily accumulates text up to chunkSize runes, cutting
// at the softest boundary available (paragraph, then sentence, then
// whitespace, then a hard cut). Each following chunk starts
// chunkOverlap runes before the previous cut, so consecutive chunks
// share exactly that many runes. Concatenating the non-overlap
// regions reproduces the input unchanged.
func (c *Chunker) splitText(text string) []string {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}
	if len(runes) <= c.chunkSize {
		return []string{text}
	}

	var out []string
	start := 0
	for start < len(runes) {
		end := start + c.chunkSize
		if end >= len(runes) {
			out = append(out, string(runes[start:]))
			break
		}

		cut := c.findCut(runes, start, end)
		if cut < 0 {
			// No boundary inside the window: the window is part of a
			// single oversized token. Extend to the token's end and
			// emit it whole rather than dropping or splitting it.
			cut = end
			for cut < len(runes) && !unicode.IsSpace(runes[cut]) {
				cut++
			}
			if cut >= len(runes) {
				out = append(out, string(runes[start:]))
				break
			}
		}

		out = append(out, string(runes[start:cut]))
		start = cut - c.chunkOverlap
	}
	return out
}

// findCut returns the cut position in (start+overlap, end], preferring
// a paragraph break, then a sentence end, then any whitespace. The
// lower bound guarantees forward progress once the overlap is applied.
// Returns -1 when the window contains no usable boundary.
func (c *Chunker) findCut(runes []rune, start, end int) int {
	min := start + c.chunkOverlap + 1

	// Paragraph boundary: cut just after the blank line.
	for i := end - 1; i >= min; i-- {
		if runes[i] == '\n' && i > 0 && runes[i-1] == '\n' {
			return i + 1
		}
	}

	// Sentence boundary: terminator followed by whitespace.
	for i := end - 1; i >= min; i-- {
		if isSentenceEnd(runes[i-1]) && unicode.IsSpace(runes[i]) {
			return i
		}
	}

	// Any whitespace.
	for i := end - 1; i >= min; i-- {
		if unicode.IsSpace(runes[i]) {
			return i + 1
		}
	}

	return -1
}

func isSentenceEnd(r rune) bool {
	switch r {
	case '.', '!', '?':
		return true
	}
	return false
}
