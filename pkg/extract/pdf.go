package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/ZivTalyas/huggingface-secure-proxy/pkg/analysis"
	"github.com/ZivTalyas/huggingface-secure-proxy/pkg/observability/logging"
)

// PDFExtractor extracts page text and structural flags from PDF payloads.
type PDFExtractor struct{}

// NewPDFExtractor creates a PDF extractor.
func NewPDFExtractor() *PDFExtractor {
	return &PDFExtractor{}
}

// Structural markers scanned on the raw bytes: object dictionaries survive
// even when page parsing fails, and the text layer never exposes them.
var (
	embeddedMarkers = [][]byte{
		[]byte("/EmbeddedFile"),
		[]byte("/EmbeddedFiles"),
		[]byte("/FileAttachment"),
	}
	scriptMarkers = [][]byte{
		[]byte("/JavaScript"),
		[]byte("/JS"),
		[]byte("/OpenAction"),
		[]byte("/AA"),
		[]byte("/Launch"),
	}
)

// Extract implements Extractor for PDF payloads.
func (e *PDFExtractor) Extract(ctx context.Context, data []byte) (text string, flags *analysis.StructuralFlags, err error) {
	// The underlying parser panics on some malformed files; convert that to
	// an extraction failure instead of letting it cross the boundary.
	defer func() {
		if r := recover(); r != nil {
			logging.Warnf("PDF parser panic recovered: %v", r)
			text, flags = "", nil
			err = errors.Join(ErrExtractionFailed, fmt.Errorf("malformed PDF: %v", r))
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", nil, errors.Join(ErrExtractionFailed, fmt.Errorf("failed to open PDF: %w", err))
	}

	totalPages := reader.NumPage()
	if totalPages == 0 {
		return "", nil, errors.Join(ErrExtractionFailed, errors.New("PDF has no pages"))
	}

	var sb strings.Builder
	for i := 1; i <= totalPages; i++ {
		if err := ctx.Err(); err != nil {
			return "", nil, errors.Join(ErrExtractionFailed, err)
		}

		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		content, err := page.GetPlainText(nil)
		if err != nil {
			logging.Debugf("Skipping unreadable PDF page %d/%d: %v", i, totalPages, err)
			continue
		}
		sb.WriteString(content)
	}

	return sb.String(), scanStructure(data), nil
}

// scanStructure reports structural flags from the raw PDF bytes.
func scanStructure(data []byte) *analysis.StructuralFlags {
	flags := &analysis.StructuralFlags{}
	for _, marker := range embeddedMarkers {
		if bytes.Contains(data, marker) {
			flags.HasEmbeddedFiles = true
			break
		}
	}
	for _, marker := range scriptMarkers {
		if bytes.Contains(data, marker) {
			flags.HasActiveScripts = true
			break
		}
	}
	return flags
}
