package upload

import (
	"bytes"
	"context"
	"fmt"
	"image/png"

	"github.com/gen2brain/go-fitz"
)

// FitzRenderer rasterizes PDF pages with the MuPDF engine
type FitzRenderer struct{}

// NewFitzRenderer creates the default PDF renderer
func NewFitzRenderer() *FitzRenderer {
	return &FitzRenderer{}
}

// RenderPages renders every page to PNG at the given resolution.
// Rendering stops at the first failure and returns no images, so a
// partial page set is never exposed. The context is checked between
// pages to let callers abandon large documents.
func (r *FitzRenderer) RenderPages(ctx context.Context, pdf []byte, dpi float64) ([][]byte, error) {
	doc, err := fitz.NewFromMemory(pdf)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF document: %w", err)
	}
	defer doc.Close()

	total := doc.NumPage()
	if total == 0 {
		return nil, fmt.Errorf("document has no pages")
	}

	pages := make([][]byte, 0, total)
	for i := 0; i < total; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		img, err := doc.ImageDPI(i, dpi)
		if err != nil {
			return nil, fmt.Errorf("failed to render page %d: %w", i+1, err)
		}

		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("failed to encode page %d: %w", i+1, err)
		}
		pages = append(pages, buf.Bytes())
	}

	return pages, nil
}
