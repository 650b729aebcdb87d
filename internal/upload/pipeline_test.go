package upload

import (
	"context"
	"fmt"
	"testing"

	"resumind/internal/errors"
)

// stubRenderer returns a fixed number of fake pages and records calls
type stubRenderer struct {
	pages int
	err   error
	calls int
}

func (s *stubRenderer) RenderPages(ctx context.Context, pdf []byte, dpi float64) ([][]byte, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	out := make([][]byte, s.pages)
	for i := range out {
		out[i] = []byte{0x89, 0x50, 0x4e, 0x47}
	}
	return out, nil
}

func pdfBytes(size int) []byte {
	b := make([]byte, size)
	copy(b, "%PDF-1.4")
	return b
}

func TestValidateRejectsNonPDF(t *testing.T) {
	p := NewPipeline(&stubRenderer{}, nil)

	tests := []struct {
		name     string
		fileName string
		size     int64
		wantErr  bool
		wantCode string
	}{
		{"valid pdf", "resume.pdf", 1024, false, ""},
		{"uppercase extension", "resume.PDF", 1024, false, ""},
		{"word document", "resume.docx", 1024, true, errors.ErrCodeNotAPDF},
		{"no extension", "resume", 1024, true, errors.ErrCodeNotAPDF},
		{"empty file", "resume.pdf", 0, true, errors.ErrCodeInvalidRequest},
		{"at the limit", "resume.pdf", MaxUploadBytes, false, ""},
		{"over the limit", "resume.pdf", 25 * 1024 * 1024, true, errors.ErrCodeFileTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := p.Validate(tt.fileName, tt.size)
			if tt.wantErr {
				if err == nil {
					t.Fatal("Expected validation error, got nil")
				}
				appErr, ok := err.(*errors.AppError)
				if !ok {
					t.Fatalf("Expected *errors.AppError, got %T", err)
				}
				if appErr.Type != errors.ErrorTypeValidation {
					t.Errorf("Expected validation error type, got %s", appErr.Type)
				}
				if appErr.Code != tt.wantCode {
					t.Errorf("Expected code %s, got %s", tt.wantCode, appErr.Code)
				}
			} else if err != nil {
				t.Errorf("Expected no error, got %v", err)
			}
		})
	}
}

func TestRasterizeRejectsOversizedBeforeRendering(t *testing.T) {
	renderer := &stubRenderer{pages: 1}
	p := NewPipeline(renderer, nil)

	_, err := p.Rasterize(context.Background(), "resume.pdf", pdfBytes(25*1024*1024))
	if err == nil {
		t.Fatal("Expected oversized upload to be rejected")
	}
	if renderer.calls != 0 {
		t.Errorf("Renderer must not run for rejected uploads, got %d calls", renderer.calls)
	}
}

func TestRasterizePageNaming(t *testing.T) {
	p := NewPipeline(&stubRenderer{pages: 3}, nil)

	pages, err := p.Rasterize(context.Background(), "jane-doe-resume.pdf", pdfBytes(2048))
	if err != nil {
		t.Fatalf("Rasterize failed: %v", err)
	}

	if len(pages) != 3 {
		t.Fatalf("Expected 3 pages, got %d", len(pages))
	}
	for i, page := range pages {
		wantName := fmt.Sprintf("jane-doe-resume-page-%d.png", i+1)
		if page.Name != wantName {
			t.Errorf("Page %d: expected name %q, got %q", i, wantName, page.Name)
		}
		if page.Number != i+1 {
			t.Errorf("Page %d: expected number %d, got %d", i, i+1, page.Number)
		}
		if len(page.PNG) == 0 {
			t.Errorf("Page %d: expected PNG bytes", i)
		}
	}
}

func TestRasterizeFailsAsAUnit(t *testing.T) {
	p := NewPipeline(&stubRenderer{err: fmt.Errorf("page 2 render failed")}, nil)

	pages, err := p.Rasterize(context.Background(), "resume.pdf", pdfBytes(2048))
	if err == nil {
		t.Fatal("Expected rasterization error")
	}
	if pages != nil {
		t.Errorf("Expected no partial page set on failure, got %d pages", len(pages))
	}

	appErr, ok := err.(*errors.AppError)
	if !ok {
		t.Fatalf("Expected *errors.AppError, got %T", err)
	}
	if appErr.Code != errors.ErrCodeRasterFailed {
		t.Errorf("Expected code %s, got %s", errors.ErrCodeRasterFailed, appErr.Code)
	}
}

func TestRasterizeRejectsNonPDFContent(t *testing.T) {
	renderer := &stubRenderer{pages: 1}
	p := NewPipeline(renderer, nil)

	_, err := p.Rasterize(context.Background(), "resume.pdf", []byte("plain text pretending to be a pdf"))
	if err == nil {
		t.Fatal("Expected content sniffing to reject non-PDF bytes")
	}
	if renderer.calls != 0 {
		t.Errorf("Renderer must not run for non-PDF content, got %d calls", renderer.calls)
	}
}
