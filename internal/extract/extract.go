// Package extract converts stored resume documents into plain text.
//
// Extraction is a plug point, not a correctness guarantee: formats without
// a registered extractor yield a deterministic placeholder so the analysis
// pipeline never crashes on an exotic document. Placeholder output is
// flagged so callers and tests can tell it apart from real extraction.
package extract

import (
	"path/filepath"
	"strings"
)

// PlaceholderText is the deterministic text substituted for document
// formats without a registered extractor.
const PlaceholderText = "No text extractor is available for this document format. " +
	"The resume content could not be read."

// Result carries extracted text along with its provenance.
type Result struct {
	Text string
	// Placeholder is true when no real extractor handled the format and
	// Text is PlaceholderText.
	Placeholder bool
}

// Extractor converts document bytes of one format into plain text.
type Extractor interface {
	Extract(data []byte) (string, error)
}

// Registry dispatches extraction by file extension.
type Registry struct {
	byExt map[string]Extractor
	plain Extractor
}

// NewRegistry returns a Registry with the built-in extractors: real PDF
// and DOCX parsing, literal-bytes for everything plain-text-compatible,
// and the placeholder for legacy .doc.
func NewRegistry() *Registry {
	return &Registry{
		byExt: map[string]Extractor{
			".pdf":  pdfExtractor{},
			".docx": docxExtractor{},
			// Legacy Word has no extractor wired in; keep it pluggable.
			".doc": nil,
		},
		plain: plainExtractor{},
	}
}

// Register wires an extractor for a file extension (including the dot),
// replacing any built-in handling.
func (r *Registry) Register(ext string, e Extractor) {
	r.byExt[strings.ToLower(ext)] = e
}

// Extract converts document bytes to text based on the file name's
// extension. Unknown extensions are decoded as literal text. A nil
// registered extractor yields the placeholder result.
func (r *Registry) Extract(filename string, data []byte) (Result, error) {
	ext := strings.ToLower(filepath.Ext(filename))

	e, known := r.byExt[ext]
	if !known {
		e = r.plain
	}
	if e == nil {
		return Result{Text: PlaceholderText, Placeholder: true}, nil
	}

	text, err := e.Extract(data)
	if err != nil {
		return Result{}, err
	}

	return Result{Text: text}, nil
}

// plainExtractor decodes the document bytes as literal text.
type plainExtractor struct{}

func (plainExtractor) Extract(data []byte) (string, error) {
	return string(data), nil
}
