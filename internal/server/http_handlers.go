package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"resumind/internal/errors"
	"resumind/internal/export"
	"resumind/internal/formatters"
	"resumind/internal/types"
)

const healthCheckTimeout = 15 * time.Second

// healthHandler provides a health check endpoint including AI model status
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	response := map[string]any{
		"status":  "healthy",
		"service": "resumind",
		"version": s.Version,
	}

	overallHealthy := true

	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	if s.AI != nil {
		modelInfo := s.AI.GetModelInfo(ctx)
		response["ai_model"] = modelInfo
		if !modelInfo.Available {
			overallHealthy = false
		}
		response["circuit_breakers"] = s.AI.GetCircuitBreakerStats()
	}

	if certStatus := s.checkCertificateHealth(); certStatus != nil {
		response["certificates"] = certStatus
		if healthy, ok := certStatus["healthy"].(bool); ok && !healthy {
			overallHealthy = false
		}
	}

	status := http.StatusOK
	if !overallHealthy {
		response["status"] = "degraded"
		status = http.StatusServiceUnavailable
	}

	writeJSONStatus(w, s.Logger, status, response)
}

// checkCertificateHealth reports TLS certificate status when hot reload is active
func (s *Server) checkCertificateHealth() map[string]any {
	if s.certReloader == nil {
		return nil
	}

	certStatus := make(map[string]any)

	timeToExpiry, err := s.certReloader.TimeToExpiry()
	if err != nil {
		certStatus["healthy"] = false
		certStatus["error"] = err.Error()
		return certStatus
	}

	certStatus["time_to_expiry_hours"] = int(timeToExpiry.Hours())

	switch {
	case timeToExpiry <= 0:
		certStatus["healthy"] = false
		certStatus["status"] = "expired"
	case timeToExpiry <= 24*time.Hour:
		certStatus["healthy"] = false
		certStatus["status"] = "critical"
	case timeToExpiry <= 7*24*time.Hour:
		certStatus["healthy"] = true
		certStatus["status"] = "warning"
	default:
		certStatus["healthy"] = true
		certStatus["status"] = "ok"
	}

	certStatus["reload_count"] = s.certReloader.ReloadCount()
	if s.certWatcher != nil {
		certStatus["watcher_running"] = s.certWatcher.IsRunning()
	}

	return certStatus
}

// statsHandler provides server statistics including rate limiting info
func (s *Server) statsHandler(w http.ResponseWriter, r *http.Request) {
	response := map[string]any{
		"service": "resumind",
		"version": s.Version,
		"server": map[string]any{
			"max_request_size_bytes": s.MaxRequestSize,
			"max_upload_bytes":       s.Pipeline.MaxBytes(),
		},
	}

	if s.RateLimiter != nil {
		response["rate_limiting"] = s.RateLimiter.GetStats()
	} else {
		response["rate_limiting"] = map[string]any{
			"enabled": false,
		}
	}

	writeJSON(w, s.Logger, response)
}

// listResumesHandler returns all stored reviews, newest first
func (s *Server) listResumesHandler(w http.ResponseWriter, r *http.Request) {
	records, err := s.Records.List(r.Context())
	if err != nil {
		writeAppError(w, s.Logger, err)
		return
	}

	writeJSON(w, s.Logger, map[string]any{
		"resumes": records,
		"count":   len(records),
	})
}

// getResumeHandler returns one stored review with its normalized report
func (s *Server) getResumeHandler(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.lookupRecord(r.Context(), w, r)
	if !ok {
		return
	}

	writeJSON(w, s.Logger, reviewResponse{
		Record: rec,
		Report: s.Normalizer.Normalize(rec.Feedback),
	})
}

// reportHandler renders the normalized report in the requested format
func (s *Server) reportHandler(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.lookupRecord(r.Context(), w, r)
	if !ok {
		return
	}

	format := r.URL.Query().Get("format")
	if format == "" {
		format = s.AppConfig.App.DefaultFormat
	}

	report := s.Normalizer.Normalize(rec.Feedback)
	out, err := formatters.GlobalRegistry.Format(report, format)
	if err != nil {
		writeErrorResponse(w, "Unsupported report format", err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", reportContentType(format))
	if _, err := w.Write([]byte(out)); err != nil {
		s.Logger.Warn("Failed to write report response", "error", err)
	}
}

// reportContentType maps render formats onto response content types
func reportContentType(format string) string {
	switch format {
	case "json":
		return "application/json"
	case "html":
		return "text/html; charset=utf-8"
	case "markdown":
		return "text/markdown; charset=utf-8"
	default:
		return "text/plain; charset=utf-8"
	}
}

// pageImageHandler serves one rasterized resume page as PNG
func (s *Server) pageImageHandler(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.lookupRecord(r.Context(), w, r)
	if !ok {
		return
	}

	page, err := strconv.Atoi(r.PathValue("page"))
	if err != nil || page < 1 || page > len(rec.ImagePaths) {
		writeErrorResponse(w, "Invalid page number",
			"page must be between 1 and "+strconv.Itoa(len(rec.ImagePaths)), http.StatusBadRequest)
		return
	}

	data, err := s.Files.Read(rec.ImagePaths[page-1])
	if err != nil {
		writeAppError(w, s.Logger, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	if _, err := w.Write(data); err != nil {
		s.Logger.Warn("Failed to write page image response", "error", err)
	}
}

// emailHandler reports that report delivery by mail is not available
func (s *Server) emailHandler(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.lookupRecord(r.Context(), w, r); !ok {
		return
	}

	writeAppError(w, s.Logger, errors.NewConfigError(errors.ErrCodeEmailNotConfigured,
		"Email delivery is not configured", nil))
}

// usageHandler reports the monthly review allowance. Lookup failures
// degrade to an unavailable gauge instead of an error response.
func (s *Server) usageHandler(w http.ResponseWriter, r *http.Request) {
	allowance := s.AppConfig.Usage.MonthlyAllowance

	records, err := s.Records.List(r.Context())
	if err != nil {
		s.Logger.Warn("Usage lookup failed", "error", err)
		writeJSON(w, s.Logger, map[string]any{
			"available": false,
		})
		return
	}

	used := countCurrentMonth(records, time.Now().UTC())
	remaining := max(allowance-used, 0)

	writeJSON(w, s.Logger, map[string]any{
		"available": true,
		"usage": types.UsageInfo{
			Allowance: allowance,
			Used:      used,
			Remaining: remaining,
		},
	})
}

// countCurrentMonth counts records created in the month containing now
func countCurrentMonth(records []*types.ResumeRecord, now time.Time) int {
	count := 0
	for _, rec := range records {
		created := rec.CreatedAt.UTC()
		if created.Year() == now.Year() && created.Month() == now.Month() {
			count++
		}
	}
	return count
}

// exportPDF renders the review report document for a stored record
func (s *Server) exportPDF(rec *types.ResumeRecord) ([]byte, error) {
	return export.NewPDFExporter(s.Normalizer).Export(rec, time.Now().UTC())
}

// exportJSON renders the feedback snapshot for a stored record
func (s *Server) exportJSON(rec *types.ResumeRecord) ([]byte, error) {
	return export.ExportJSON(rec.Feedback, time.Now().UTC())
}

// writeJSONStatus writes a JSON response body with an explicit status code
func writeJSONStatus(w http.ResponseWriter, logger *errors.Logger, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil && logger != nil {
		logger.Warn("Failed to encode response", "error", err)
	}
}

// writeJSON writes a JSON response body
func writeJSON(w http.ResponseWriter, logger *errors.Logger, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		if logger != nil {
			logger.Warn("Failed to encode response", "error", err)
		}
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// writeErrorResponse writes a standardized error response
func writeErrorResponse(w http.ResponseWriter, error, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	response := ErrorResponse{
		Error:   error,
		Message: message,
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode error response", http.StatusInternalServerError)
	}
}
