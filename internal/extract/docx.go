package extract

import (
	"bytes"
	"fmt"

	"github.com/nguyenthenguyen/docx"
)

// docxExtractor pulls plain text out of an OOXML Word document.
type docxExtractor struct{}

func (docxExtractor) Extract(data []byte) (string, error) {
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("parse docx: %w", err)
	}
	defer doc.Close()

	return doc.Editable().GetContent(), nil
}
