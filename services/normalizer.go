package services

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"rag-assistant-platform/models"

	"github.com/PuerkitoBio/goquery"
	"github.com/ledongthuc/pdf"
	"github.com/xuri/excelize/v2"
)

// DocumentNormalizer converts raw uploaded files into logical
// documents with extracted text and provenance metadata. It owns no
// state and has no side effects beyond reading the input file.
type DocumentNormalizer struct{}

func NewDocumentNormalizer() *DocumentNormalizer {
	return &DocumentNormalizer{}
}

// SupportedFormat reports whether the filename's extension maps to a
// known normalizer. Handlers use it to fail fast before persisting the
// upload.
func SupportedFormat(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".txt", ".md", ".pdf", ".html", ".htm", ".xlsx":
		return true
	}
	return false
}

// Load reads the file at path and returns one or more documents.
// sourceName is the caller-facing identifier recorded as provenance
// (usually the original filename, not the storage path). PDFs produce
// one document per page so citations can point at a sub-part of the
// file; every other format produces a single document.
func (n *DocumentNormalizer) Load(path, sourceName, tenantID string) ([]models.Document, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".md":
		return n.loadText(path, sourceName, tenantID)
	case ".pdf":
		return n.loadPDF(path, sourceName, tenantID)
	case ".html", ".htm":
		return n.loadHTML(path, sourceName, tenantID)
	case ".xlsx":
		return n.loadXLSX(path, sourceName, tenantID)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

func (n *DocumentNormalizer) loadText(path, sourceName, tenantID string) ([]models.Document, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if strings.TrimSpace(string(content)) == "" {
		return nil, fmt.Errorf("%w: %s", ErrEmptyDocument, sourceName)
	}
	return []models.Document{{
		Text:     string(content),
		SourceID: sourceName,
		TenantID: tenantID,
	}}, nil
}

func (n *DocumentNormalizer) loadPDF(path, sourceName, tenantID string) ([]models.Document, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}

	var docs []models.Document
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		fonts := make(map[string]*pdf.Font)
		text, err := page.GetPlainText(fonts)
		if err != nil {
			// Unreadable pages are skipped, not fatal; emptiness is
			// checked across the whole file below.
			continue
		}
		if strings.TrimSpace(text) == "" {
			continue
		}

		docs = append(docs, models.Document{
			Text:     text,
			SourceID: fmt.Sprintf("%s#page=%d", sourceName, i),
			TenantID: tenantID,
		})
	}

	if len(docs) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyDocument, sourceName)
	}
	return docs, nil
}

func (n *DocumentNormalizer) loadHTML(path, sourceName, tenantID string) ([]models.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	doc, err := goquery.NewDocumentFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}

	doc.Find("script, style, noscript").Remove()

	var parts []string
	doc.Find("h1, h2, h3, h4, h5, h6, p, li, td, pre, blockquote").Each(func(_ int, s *goquery.Selection) {
		if text := strings.TrimSpace(s.Text()); text != "" {
			parts = append(parts, text)
		}
	})
	if len(parts) == 0 {
		// Fall back to the whole body for pages without block markup
		if text := strings.TrimSpace(doc.Find("body").Text()); text != "" {
			parts = append(parts, text)
		}
	}

	if len(parts) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyDocument, sourceName)
	}
	return []models.Document{{
		Text:     strings.Join(parts, "\n\n"),
		SourceID: sourceName,
		TenantID: tenantID,
	}}, nil
}

func (n *DocumentNormalizer) loadXLSX(path, sourceName, tenantID string) ([]models.Document, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}
	defer f.Close()

	var docs []models.Document
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			continue
		}

		var lines []string
		for _, row := range rows {
			line := strings.TrimSpace(strings.Join(row, "\t"))
			if line != "" {
				lines = append(lines, line)
			}
		}
		if len(lines) == 0 {
			continue
		}

		// One document per sheet, mirroring the per-page PDF split
		docs = append(docs, models.Document{
			Text:     strings.Join(lines, "\n"),
			SourceID: fmt.Sprintf("%s#sheet=%s", sourceName, sheet),
			TenantID: tenantID,
		})
	}

	if len(docs) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyDocument, sourceName)
	}
	return docs, nil
}
