// Package attachment saves message attachments into scoped temporary
// directories and extracts readable text from them by file type.
package attachment

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

// UnsupportedFormatError reports a file extension with no extractor.
type UnsupportedFormatError struct {
	Ext string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported format: %s", e.Ext)
}

// IsUnsupportedFormat reports whether err is an unsupported-format
// failure.
func IsUnsupportedFormat(err error) bool {
	var ue *UnsupportedFormatError
	return errors.As(err, &ue)
}

// Result is extracted attachment text. Truncated is set when the
// source held more than the configured cap.
type Result struct {
	Text      string
	Truncated bool
}

type extractor func(path string) (string, error)

// extractors maps each supported extension to its extractor. The set
// is closed: anything absent fails as unsupported rather than being
// decoded best-effort.
var extractors = map[string]extractor{
	".pdf":  extractPDF,
	".docx": extractDocx,
}

// textExtensions are read verbatim as UTF-8 text.
var textExtensions = []string{
	".txt", ".text", ".log",
	".md", ".markdown", ".rst",
	".csv", ".tsv", ".json", ".xml", ".yaml", ".yml", ".toml", ".ini",
	".html", ".htm",
	".go", ".py", ".js", ".ts", ".rb", ".sh", ".sql", ".c", ".h", ".java",
}

func init() {
	for _, ext := range textExtensions {
		extractors[ext] = extractText
	}
}

// ExtractFile reads the file at path and returns its text content.
// Content over maxBytes is cut at the cap and flagged as truncated.
func ExtractFile(path string, maxBytes int64) (Result, error) {
	if _, err := os.Stat(path); err != nil {
		return Result{}, fmt.Errorf("attachment file: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	fn, ok := extractors[ext]
	if !ok {
		return Result{}, &UnsupportedFormatError{Ext: ext}
	}

	text, err := fn(path)
	if err != nil {
		return Result{}, err
	}
	return truncate(text, maxBytes), nil
}

// SupportedExtensions returns the extensions ExtractFile accepts,
// unordered.
func SupportedExtensions() []string {
	exts := make([]string, 0, len(extractors))
	for ext := range extractors {
		exts = append(exts, ext)
	}
	return exts
}

func truncate(text string, maxBytes int64) Result {
	if maxBytes <= 0 || int64(len(text)) <= maxBytes {
		return Result{Text: text}
	}
	return Result{Text: text[:maxBytes], Truncated: true}
}

func extractText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading text file: %w", err)
	}
	return string(data), nil
}

// extractPDF recovers from panics because the pdf package panics on
// some malformed files instead of returning an error.
func extractPDF(path string) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("extracting pdf text: %v", r)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening pdf: %w", err)
	}
	defer f.Close()

	reader, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extracting pdf text: %w", err)
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, reader); err != nil {
		return "", fmt.Errorf("reading pdf text: %w", err)
	}
	return buf.String(), nil
}

// extractDocx pulls the visible text out of word/document.xml, one
// line per paragraph.
func extractDocx(path string) (string, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return "", fmt.Errorf("opening docx: %w", err)
	}
	defer zr.Close()

	var doc *zip.File
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			doc = f
			break
		}
	}
	if doc == nil {
		return "", fmt.Errorf("invalid docx: missing word/document.xml")
	}

	rc, err := doc.Open()
	if err != nil {
		return "", fmt.Errorf("reading docx document: %w", err)
	}
	defer rc.Close()

	var b strings.Builder
	dec := xml.NewDecoder(rc)
	inText := false
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("parsing docx document: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "t" {
				inText = true
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				b.WriteString("\n")
			}
		case xml.CharData:
			if inText {
				b.Write(t)
			}
		}
	}
	return strings.TrimRight(b.String(), "\n"), nil
}
