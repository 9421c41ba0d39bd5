package services

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoadTextFile(t *testing.T) {
	n := NewDocumentNormalizer()
	path := writeTempFile(t, "notes.txt", "hello world\nsecond line")

	docs, err := n.Load(path, "notes.txt", "tenant-a")
	require.NoError(t, err)

	require.Len(t, docs, 1)
	assert.Equal(t, "hello world\nsecond line", docs[0].Text)
	assert.Equal(t, "notes.txt", docs[0].SourceID)
	assert.Equal(t, "tenant-a", docs[0].TenantID)
}

func TestLoadMarkdownUsesTextLoader(t *testing.T) {
	n := NewDocumentNormalizer()
	path := writeTempFile(t, "readme.md", "# Title\n\nBody text")

	docs, err := n.Load(path, "readme.md", "")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Contains(t, docs[0].Text, "Body text")
}

func TestLoadEmptyTextFile(t *testing.T) {
	n := NewDocumentNormalizer()
	path := writeTempFile(t, "blank.txt", "   \n\t\n")

	_, err := n.Load(path, "blank.txt", "")
	assert.ErrorIs(t, err, ErrEmptyDocument)
}

func TestLoadUnsupportedExtension(t *testing.T) {
	n := NewDocumentNormalizer()
	path := writeTempFile(t, "image.png", "not really an image")

	_, err := n.Load(path, "image.png", "")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestLoadHTMLExtractsBlockText(t *testing.T) {
	n := NewDocumentNormalizer()
	html := `<html><head><style>p{color:red}</style>
<script>alert("hi")</script></head>
<body><h1>Heading</h1><p>First paragraph.</p><ul><li>Item one</li></ul></body></html>`
	path := writeTempFile(t, "page.html", html)

	docs, err := n.Load(path, "page.html", "")
	require.NoError(t, err)
	require.Len(t, docs, 1)

	assert.Contains(t, docs[0].Text, "Heading")
	assert.Contains(t, docs[0].Text, "First paragraph.")
	assert.Contains(t, docs[0].Text, "Item one")
	assert.NotContains(t, docs[0].Text, "alert")
	assert.NotContains(t, docs[0].Text, "color:red")
}

func TestLoadHTMLBodyFallback(t *testing.T) {
	n := NewDocumentNormalizer()
	path := writeTempFile(t, "bare.html", "<html><body>just some raw text</body></html>")

	docs, err := n.Load(path, "bare.html", "")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Contains(t, docs[0].Text, "just some raw text")
}

func TestSupportedFormat(t *testing.T) {
	assert.True(t, SupportedFormat("a.txt"))
	assert.True(t, SupportedFormat("a.PDF"))
	assert.True(t, SupportedFormat("report.xlsx"))
	assert.True(t, SupportedFormat("page.htm"))
	assert.False(t, SupportedFormat("archive.zip"))
	assert.False(t, SupportedFormat("noext"))
}
