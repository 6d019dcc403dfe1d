// Package extract turns document files into searchable text plus the properties
// the index facets on (file type, title, author).
package extract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Result is the text and properties extracted from one file.
type Result struct {
	Text string
	// Title and Author come from the document's own properties when it has them.
	Title    string
	Author   string
	FileType string
}

// Extractor extracts plain text from document files.
type Extractor struct{}

// NewExtractor returns a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// SupportedExtensions lists the extensions with a dedicated reader. Anything else is read as plain text.
var SupportedExtensions = []string{".txt", ".md", ".rst", ".pdf", ".docx", ".pptx", ".xlsx"}

// FileType returns the lowercase extension of path without the dot, e.g. "docx".
func FileType(path string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
}

// Extract reads the file at path. A document without a title property is titled after its file name.
func (e *Extractor) Extract(path string) (*Result, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	res, err := e.ExtractBytes(content, filepath.Ext(path))
	if err != nil {
		return nil, err
	}
	if res.Title == "" {
		base := filepath.Base(path)
		res.Title = strings.TrimSuffix(base, filepath.Ext(base))
	}
	return res, nil
}

// ExtractBytes extracts text from content based on the given extension, which includes the leading dot.
func (e *Extractor) ExtractBytes(content []byte, ext string) (*Result, error) {
	ext = strings.ToLower(ext)
	res := &Result{FileType: strings.TrimPrefix(ext, ".")}
	var err error
	switch ext {
	case ".pdf":
		err = extractPDF(content, res)
	case ".docx":
		err = extractDOCX(content, res)
	case ".xlsx":
		err = extractExcel(content, res)
	case ".pptx":
		err = extractPPTX(content, res)
	default:
		res.Text = extractPlain(content)
	}
	if err != nil {
		return nil, err
	}
	return res, nil
}
