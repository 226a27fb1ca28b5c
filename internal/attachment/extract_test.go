package attachment

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func writeDocx(t *testing.T, dir, name string, paragraphs []string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	zw := zip.NewWriter(f)
	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)

	doc := `<?xml version="1.0"?><w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`
	for _, p := range paragraphs {
		doc += `<w:p><w:r><w:t>` + p + `</w:t></w:r></w:p>`
	}
	doc += `</w:body></w:document>`

	_, err = w.Write([]byte(doc))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return path
}

func TestExtractPlainText(t *testing.T) {
	path := writeFile(t, t.TempDir(), "notes.txt", "Hello from the attachment")

	res, err := ExtractFile(path, 1024)
	require.NoError(t, err)
	assert.Equal(t, "Hello from the attachment", res.Text)
	assert.False(t, res.Truncated)
}

func TestExtractSourceAndDataFormats(t *testing.T) {
	dir := t.TempDir()

	for name, content := range map[string]string{
		"main.go":     "package main",
		"data.json":   `{"k": 1}`,
		"readme.md":   "# Title",
		"config.yaml": "key: value",
	} {
		res, err := ExtractFile(writeFile(t, dir, name, content), 1024)
		require.NoError(t, err, name)
		assert.Equal(t, content, res.Text, name)
	}
}

func TestExtractTruncatesAtCap(t *testing.T) {
	path := writeFile(t, t.TempDir(), "big.txt", "0123456789")

	res, err := ExtractFile(path, 4)
	require.NoError(t, err)
	assert.Equal(t, "0123", res.Text)
	assert.True(t, res.Truncated)
}

func TestExtractExactlyAtCapNotTruncated(t *testing.T) {
	path := writeFile(t, t.TempDir(), "fit.txt", "0123")

	res, err := ExtractFile(path, 4)
	require.NoError(t, err)
	assert.Equal(t, "0123", res.Text)
	assert.False(t, res.Truncated)
}

func TestExtractDocx(t *testing.T) {
	path := writeDocx(t, t.TempDir(), "report.docx", []string{"First paragraph", "Second paragraph"})

	res, err := ExtractFile(path, 4096)
	require.NoError(t, err)
	assert.Equal(t, "First paragraph\nSecond paragraph", res.Text)
}

func TestExtractUnsupportedFormat(t *testing.T) {
	path := writeFile(t, t.TempDir(), "photo.jpg", "\xff\xd8\xff\xe0")

	_, err := ExtractFile(path, 1024)
	require.Error(t, err)
	assert.True(t, IsUnsupportedFormat(err))
	assert.Contains(t, err.Error(), ".jpg")
}

func TestExtractMissingFile(t *testing.T) {
	_, err := ExtractFile("/nonexistent/file.txt", 1024)
	require.Error(t, err)
	assert.False(t, IsUnsupportedFormat(err))
}

func TestExtractInvalidPDF(t *testing.T) {
	path := writeFile(t, t.TempDir(), "broken.pdf", "%PDF-1.4\nnot really a pdf")

	_, err := ExtractFile(path, 1024)
	assert.Error(t, err)
}
