// Package extractor turns PDF bytes into ordered, page-scoped text.
package extractor

import (
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/pdfchat/backend/internal/models"
)

// Page holds the extracted text of one PDF page.
type Page struct {
	Number int // 1-based
	Text   string
}

// Source is the input the extractor reads. It combines seeking (for
// structural validation) with random access (for page text).
type Source interface {
	io.ReadSeeker
	io.ReaderAt
}

// Extractor produces page text from PDF files. It is a pure transform
// over already-persisted bytes, with no side effects.
type Extractor struct {
	conf *model.Configuration
}

// New creates an Extractor with pdfcpu's relaxed default configuration.
func New() *Extractor {
	return &Extractor{conf: model.NewDefaultConfiguration()}
}

// Extract validates the PDF structure and returns the text of every page
// in order, starting at page 1. Corrupt or encrypted input yields a
// models.ErrExtraction, which the pipeline treats as permanent.
func (e *Extractor) Extract(src Source, size int64) ([]Page, error) {
	if err := api.Validate(src, e.conf); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrExtraction, err)
	}
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("%w: rewinding input: %v", models.ErrExtraction, err)
	}

	reader, err := pdf.NewReader(src, size)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrExtraction, err)
	}

	pages := make([]Page, 0, reader.NumPage())
	for n := 1; n <= reader.NumPage(); n++ {
		p := reader.Page(n)
		if p.V.IsNull() {
			pages = append(pages, Page{Number: n})
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("%w: page %d: %v", models.ErrExtraction, n, err)
		}
		pages = append(pages, Page{Number: n, Text: strings.TrimSpace(text)})
	}
	return pages, nil
}
