package upload

import (
	"bytes"
	"context"
	"fmt"

	"resumind/internal/errors"
	"resumind/internal/types"
	"resumind/internal/utils"
)

// MaxUploadBytes is the resume upload ceiling (20 MiB)
const MaxUploadBytes int64 = 20 * 1024 * 1024

// DefaultDPI renders pages at 4x the 72dpi nominal scale
const DefaultDPI = 288

var pdfMagic = []byte("%PDF-")

// Renderer rasterizes every page of a PDF document into PNG bytes.
// Implementations must either return one image per page or an error
// with no images at all.
type Renderer interface {
	RenderPages(ctx context.Context, pdf []byte, dpi float64) ([][]byte, error)
}

// Pipeline validates resume uploads and turns them into page images
type Pipeline struct {
	renderer Renderer
	maxBytes int64
	dpi      float64
	logger   *errors.Logger
}

// Option configures a Pipeline
type Option func(*Pipeline)

// WithMaxBytes overrides the upload size ceiling
func WithMaxBytes(n int64) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.maxBytes = n
		}
	}
}

// WithDPI overrides the rasterization resolution
func WithDPI(dpi float64) Option {
	return func(p *Pipeline) {
		if dpi > 0 {
			p.dpi = dpi
		}
	}
}

// NewPipeline creates a pipeline around the given renderer
func NewPipeline(renderer Renderer, logger *errors.Logger, opts ...Option) *Pipeline {
	p := &Pipeline{
		renderer: renderer,
		maxBytes: MaxUploadBytes,
		dpi:      DefaultDPI,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// MaxBytes returns the configured upload ceiling
func (p *Pipeline) MaxBytes() int64 {
	return p.maxBytes
}

// Validate rejects non-PDF or oversized uploads. It runs before any
// rasterization work so oversized files never reach the renderer.
func (p *Pipeline) Validate(fileName string, size int64) error {
	if !utils.IsPDFFile(fileName) {
		return errors.NewValidationError(errors.ErrCodeNotAPDF,
			"only PDF files are accepted", nil).
			WithContext("file_name", fileName)
	}
	if size <= 0 {
		return errors.NewValidationError(errors.ErrCodeInvalidRequest,
			"uploaded file is empty", nil).
			WithContext("file_name", fileName)
	}
	if size > p.maxBytes {
		return errors.NewValidationError(errors.ErrCodeFileTooLarge,
			fmt.Sprintf("file exceeds the %s upload limit", utils.FormatFileSize(p.maxBytes)), nil).
			WithContext("file_name", fileName).
			WithContext("file_size", utils.FormatFileSize(size))
	}
	return nil
}

// Rasterize renders every page of the resume to a PNG artifact named
// <basename>-page-N.png with 1-based page numbers. The operation is
// atomic: if any page fails, no artifacts are returned.
func (p *Pipeline) Rasterize(ctx context.Context, fileName string, pdf []byte) ([]types.PageImage, error) {
	if err := p.Validate(fileName, int64(len(pdf))); err != nil {
		return nil, err
	}
	if !bytes.HasPrefix(pdf, pdfMagic) {
		return nil, errors.NewValidationError(errors.ErrCodeNotAPDF,
			"file content is not a PDF document", nil).
			WithContext("file_name", fileName)
	}

	pngs, err := p.renderer.RenderPages(ctx, pdf, p.dpi)
	if err != nil {
		return nil, errors.NewIOError(errors.ErrCodeRasterFailed,
			"failed to rasterize resume pages", err).
			WithContext("file_name", fileName)
	}

	base := utils.BaseName(fileName)
	pages := make([]types.PageImage, 0, len(pngs))
	for i, png := range pngs {
		pages = append(pages, types.PageImage{
			Name:   fmt.Sprintf("%s-page-%d.png", base, i+1),
			Number: i + 1,
			PNG:    png,
		})
	}

	if p.logger != nil {
		p.logger.Debug("Rasterized resume",
			"file_name", fileName,
			"pages", len(pages),
			"dpi", p.dpi)
	}

	return pages, nil
}
