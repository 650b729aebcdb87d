package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	resumindErrors "resumind/internal/errors"
	"resumind/internal/observability"
	"resumind/internal/types"
)

// reviewResponse is the payload returned after a successful review
type reviewResponse struct {
	Record *types.ResumeRecord `json:"record"`
	Report any                 `json:"report"`
}

// createReviewHandler wraps the resume review handler with observability.
// The flow is upload, validate, rasterize, review, persist.
func (s *Server) createReviewHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		tracer := om.Tracer("resumind.api")
		ctx, span := tracer.Start(ctx, "api.review")
		defer span.End()

		metrics := om.GetMetrics()

		file, header, err := r.FormFile("resume")
		if err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "validation"))
			writeErrorResponse(w, "Missing resume file", "multipart field 'resume' is required", http.StatusBadRequest)
			return
		}
		defer func() {
			if err := file.Close(); err != nil {
				s.Logger.Warn("Failed to close uploaded file", "error", err)
			}
		}()

		// Extension and size gates run before any bytes are decoded
		if err := s.Pipeline.Validate(header.Filename, header.Size); err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "validation"))
			metrics.RecordBusinessMetric(ctx, "upload_rejected", false, om,
				attribute.String("file_name", header.Filename))
			writeAppError(w, s.Logger, err)
			return
		}

		data, err := io.ReadAll(file)
		if err != nil {
			span.RecordError(err)
			writeErrorResponse(w, "Failed to read resume file", err.Error(), http.StatusBadRequest)
			return
		}

		span.SetAttributes(
			attribute.String("upload.file_name", header.Filename),
			attribute.Int64("upload.size_bytes", header.Size),
			attribute.String("operation", "review"),
		)

		pages, err := s.Pipeline.Rasterize(ctx, header.Filename, data)
		if err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "raster"))
			metrics.RecordBusinessMetric(ctx, "upload_rejected", false, om,
				attribute.String("file_name", header.Filename))
			writeAppError(w, s.Logger, err)
			return
		}
		metrics.RecordPagesRasterized(ctx, len(pages), om)

		input := types.AnalyzeResumeInput{
			Resume:         data,
			FileName:       header.Filename,
			CompanyName:    strings.TrimSpace(r.FormValue("companyName")),
			JobTitle:       strings.TrimSpace(r.FormValue("jobTitle")),
			JobDescription: strings.TrimSpace(r.FormValue("jobDescription")),
		}

		var result types.Feedback
		err = metrics.TrackAIOperationWithTokens(ctx, "review", func(ctx context.Context) *observability.AIOperationResult {
			output, tokenUsage, aiErr := s.AI.AnalyzeResume(ctx, input)
			result = output
			return &observability.AIOperationResult{
				Error:      aiErr,
				TokenUsage: tokenUsage,
			}
		}, om)
		if err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "ai_processing"))
			metrics.RecordBusinessMetric(ctx, "resume_reviewed", false, om,
				attribute.String("error", err.Error()))
			writeAppError(w, s.Logger, err)
			return
		}

		rec, err := s.persistReview(ctx, header.Filename, data, pages, input, result)
		if err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "storage"))
			writeAppError(w, s.Logger, err)
			return
		}

		report := s.Normalizer.Normalize(result)

		metrics.RecordBusinessMetric(ctx, "resume_reviewed", true, om,
			attribute.Int("overall_score", report.Overall),
			attribute.Int("page_count", len(pages)))

		span.SetAttributes(
			attribute.Bool("success", true),
			attribute.String("record.id", rec.ID),
			attribute.Int("overall_score", report.Overall),
		)

		writeJSONStatus(w, s.Logger, http.StatusCreated, reviewResponse{Record: rec, Report: report})
	}
}

// persistReview stores the resume file, the rasterized pages, and the record
func (s *Server) persistReview(ctx context.Context, fileName string, data []byte, pages []types.PageImage, input types.AnalyzeResumeInput, fb types.Feedback) (*types.ResumeRecord, error) {
	resumePath, err := s.Files.Save(fileName, data)
	if err != nil {
		return nil, err
	}

	imagePaths := make([]string, 0, len(pages))
	for _, page := range pages {
		path, err := s.Files.Save(page.Name, page.PNG)
		if err != nil {
			return nil, err
		}
		imagePaths = append(imagePaths, path)
	}

	rec := &types.ResumeRecord{
		ID:             uuid.NewString(),
		CompanyName:    input.CompanyName,
		JobTitle:       input.JobTitle,
		JobDescription: input.JobDescription,
		ResumePath:     resumePath,
		ImagePaths:     imagePaths,
		Feedback:       fb,
		CreatedAt:      time.Now().UTC(),
	}

	if err := s.Records.Save(ctx, rec); err != nil {
		return nil, err
	}

	return rec, nil
}

// createExportPDFHandler wraps the PDF export handler with observability
func (s *Server) createExportPDFHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		tracer := om.Tracer("resumind.api")
		ctx, span := tracer.Start(ctx, "api.export_pdf")
		defer span.End()

		rec, ok := s.lookupRecord(ctx, w, r)
		if !ok {
			span.SetAttributes(attribute.String("error.type", "not_found"))
			return
		}

		data, err := s.exportPDF(rec)
		metrics := om.GetMetrics()
		if err != nil {
			span.RecordError(err)
			metrics.RecordBusinessMetric(ctx, "report_exported", false, om,
				attribute.String("format", "pdf"))
			writeAppError(w, s.Logger, err)
			return
		}

		metrics.RecordBusinessMetric(ctx, "report_exported", true, om,
			attribute.String("format", "pdf"))
		span.SetAttributes(attribute.Bool("success", true), attribute.Int("pdf_bytes", len(data)))

		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", `attachment; filename="resume-report.pdf"`)
		if _, err := w.Write(data); err != nil {
			s.Logger.Warn("Failed to write PDF response", "error", err)
		}
	}
}

// createExportJSONHandler wraps the JSON snapshot export handler with observability
func (s *Server) createExportJSONHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		tracer := om.Tracer("resumind.api")
		ctx, span := tracer.Start(ctx, "api.export_json")
		defer span.End()

		rec, ok := s.lookupRecord(ctx, w, r)
		if !ok {
			span.SetAttributes(attribute.String("error.type", "not_found"))
			return
		}

		data, err := s.exportJSON(rec)
		metrics := om.GetMetrics()
		if err != nil {
			span.RecordError(err)
			metrics.RecordBusinessMetric(ctx, "report_exported", false, om,
				attribute.String("format", "json"))
			writeAppError(w, s.Logger, err)
			return
		}

		metrics.RecordBusinessMetric(ctx, "report_exported", true, om,
			attribute.String("format", "json"))
		span.SetAttributes(attribute.Bool("success", true))

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Content-Disposition", `attachment; filename="resume-feedback.json"`)
		if _, err := w.Write(data); err != nil {
			s.Logger.Warn("Failed to write JSON export response", "error", err)
		}
	}
}

// createRateLimitMiddleware adds observability to rate limiting
func (s *Server) createRateLimitMiddleware(om *observability.ObservabilityManager) func(http.HandlerFunc) http.HandlerFunc {
	originalMiddleware := s.rateLimitMiddleware()

	return func(next http.HandlerFunc) http.HandlerFunc {
		return originalMiddleware(func(w http.ResponseWriter, r *http.Request) {
			// Wrap the ResponseWriter to detect rate limit responses
			wrapper := &responseWrapper{ResponseWriter: w, statusCode: 200}

			next(wrapper, r)

			if wrapper.statusCode == http.StatusTooManyRequests {
				metrics := om.GetMetrics()
				metrics.RecordBusinessMetric(r.Context(), "rate_limit_hit", true, om,
					attribute.String("endpoint", r.URL.Path),
					attribute.String("method", r.Method))
			}
		})
	}
}

// responseWrapper wraps http.ResponseWriter to capture status code
type responseWrapper struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWrapper) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// lookupRecord fetches the record named by the {id} path segment,
// writing the error response itself when the lookup fails
func (s *Server) lookupRecord(ctx context.Context, w http.ResponseWriter, r *http.Request) (*types.ResumeRecord, bool) {
	id := r.PathValue("id")
	if id == "" {
		writeErrorResponse(w, "Missing record id", "record id is required", http.StatusBadRequest)
		return nil, false
	}

	rec, err := s.Records.Get(ctx, id)
	if err != nil {
		writeAppError(w, s.Logger, err)
		return nil, false
	}

	return rec, true
}

// writeAppError maps structured application errors onto HTTP statuses
func writeAppError(w http.ResponseWriter, logger *resumindErrors.Logger, err error) {
	var appErr *resumindErrors.AppError
	if !errors.As(err, &appErr) {
		writeErrorResponse(w, "Internal error", err.Error(), http.StatusInternalServerError)
		return
	}

	status := http.StatusInternalServerError
	switch appErr.Type {
	case resumindErrors.ErrorTypeValidation:
		status = http.StatusBadRequest
		if appErr.Code == resumindErrors.ErrCodeFileTooLarge {
			status = http.StatusRequestEntityTooLarge
		}
	case resumindErrors.ErrorTypeNotFound:
		status = http.StatusNotFound
	case resumindErrors.ErrorTypeAuth:
		status = http.StatusUnauthorized
	case resumindErrors.ErrorTypeAI, resumindErrors.ErrorTypeParse:
		status = http.StatusBadGateway
	}
	if appErr.Code == resumindErrors.ErrCodeEmailNotConfigured {
		status = http.StatusNotImplemented
	}

	if logger != nil && status >= 500 {
		logger.LogError(appErr, "Request failed", "code", appErr.Code)
	}

	writeErrorResponse(w, appErr.Message, appErr.Code, status)
}
