// Package extract adapts external document parsing for the analysis engine.
// Failures of any kind (corrupt file, password-locked document, zero pages)
// convert to an error the aggregator turns into an ExtractionFailure issue;
// they never cross the boundary as a panic or as an empty success.
package extract

import (
	"bytes"
	"context"
	"errors"
	"unicode/utf8"

	"github.com/ZivTalyas/huggingface-secure-proxy/pkg/analysis"
)

// ErrExtractionFailed wraps every extraction failure so callers can treat
// them uniformly.
var ErrExtractionFailed = errors.New("document extraction failed")

// Extractor converts a binary payload into plain text plus structural
// metadata the text scan cannot see.
type Extractor interface {
	Extract(ctx context.Context, data []byte) (string, *analysis.StructuralFlags, error)
}

var pdfMagic = []byte("%PDF-")

// DocumentExtractor routes payloads by format: PDFs go through the PDF
// parser, anything else that decodes as UTF-8 is treated as a plain-text
// document, and undecodable payloads are extraction failures.
type DocumentExtractor struct {
	pdf *PDFExtractor
}

// NewDocumentExtractor creates the default document extractor.
func NewDocumentExtractor() *DocumentExtractor {
	return &DocumentExtractor{pdf: NewPDFExtractor()}
}

// Extract implements Extractor.
func (e *DocumentExtractor) Extract(ctx context.Context, data []byte) (string, *analysis.StructuralFlags, error) {
	if len(data) == 0 {
		return "", nil, errors.Join(ErrExtractionFailed, errors.New("empty document"))
	}

	if bytes.HasPrefix(data, pdfMagic) {
		return e.pdf.Extract(ctx, data)
	}

	if !utf8.Valid(data) {
		return "", nil, errors.Join(ErrExtractionFailed, errors.New("unsupported document format"))
	}

	// Plain-text documents carry no structural metadata.
	return string(data), &analysis.StructuralFlags{}, nil
}
