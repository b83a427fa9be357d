// Package extractor turns uploaded PDF bytes into plain text.
package extractor

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
)

// TextExtractor extracts the full plain text of a document.
type TextExtractor interface {
	// Extract reads a PDF and returns its concatenated page text in file order.
	// Pages that are empty after trimming are skipped; surviving pages are joined
	// with a blank line. The result is empty if no page yielded text.
	Extract(ctx context.Context, r io.ReaderAt, size int64) (string, error)
}

// PDFExtractor is the ledongthuc/pdf-backed TextExtractor. It is stateless and
// safe for concurrent use.
type PDFExtractor struct{}

func NewPDFExtractor() *PDFExtractor {
	return &PDFExtractor{}
}

var _ TextExtractor = (*PDFExtractor)(nil)

// Extract implements TextExtractor. Any parse failure is returned as an error
// so the caller can abort the upload; nothing is swallowed page-by-page.
func (e *PDFExtractor) Extract(ctx context.Context, r io.ReaderAt, size int64) (text string, err error) {
	// The parser panics on some malformed files instead of returning an error.
	defer func() {
		if rec := recover(); rec != nil {
			text = ""
			err = fmt.Errorf("parse pdf: %v", rec)
		}
	}()

	reader, err := pdf.NewReader(r, size)
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}

	totalPages := reader.NumPage()
	pages := make([]string, 0, totalPages)
	for i := 1; i <= totalPages; i++ {
		if cerr := ctx.Err(); cerr != nil {
			return "", cerr
		}
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("extract page %d: %w", i, err)
		}
		content = strings.TrimSpace(content)
		if content == "" {
			continue
		}
		pages = append(pages, content)
	}

	return strings.Join(pages, "\n\n"), nil
}
