package server

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"resumind/internal/ai"
	"resumind/internal/config"
	"resumind/internal/errors"
	"resumind/internal/feedback"
	"resumind/internal/observability"
	"resumind/internal/store"
	"resumind/internal/types"
	"resumind/internal/upload"
)

// stubReviewer returns a canned feedback payload
type stubReviewer struct {
	feedback types.Feedback
	err      error
}

func (s *stubReviewer) AnalyzeResume(ctx context.Context, input types.AnalyzeResumeInput) (types.Feedback, *types.TokenUsage, error) {
	if s.err != nil {
		return types.Feedback{}, nil, s.err
	}
	return s.feedback, &types.TokenUsage{InputTokens: 100, OutputTokens: 50, TotalTokens: 150}, nil
}

func (s *stubReviewer) GetModelInfo(ctx context.Context) *ai.ModelInfo {
	return &ai.ModelInfo{Name: "stub", Available: true}
}

func (s *stubReviewer) GetCircuitBreakerStats() map[string]any {
	return map[string]any{"overall_healthy": true}
}

// stubRenderer emits one fake PNG per configured page
type stubRenderer struct {
	pages int
}

func (r *stubRenderer) RenderPages(ctx context.Context, pdf []byte, dpi float64) ([][]byte, error) {
	out := make([][]byte, r.pages)
	for i := range out {
		out[i] = []byte("png-data")
	}
	return out, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{
			LogLevel:      "info",
			DefaultFormat: "text",
		},
		Server: config.ServerConfig{
			Host:           "127.0.0.1",
			Port:           8080,
			MaxRequestSize: 21 * 1024 * 1024,
		},
		Usage: config.UsageConfig{MonthlyAllowance: 100},
	}
}

func newTestServer(t *testing.T, reviewer Reviewer, records store.RecordStore) (*Server, *observability.ObservabilityManager) {
	t.Helper()

	logger := errors.NewLogger(slog.LevelError)
	files, err := store.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create file store: %v", err)
	}

	cfg := testConfig()
	srv := NewServer(cfg, "test", Deps{
		AI:         reviewer,
		Records:    records,
		Files:      files,
		Pipeline:   upload.NewPipeline(&stubRenderer{pages: 2}, logger),
		Normalizer: feedback.NewNormalizer(feedback.DefaultRules()),
	}, logger)

	om, err := observability.NewObservabilityManager(observability.ObservabilityConfig{Enabled: false}, cfg)
	if err != nil {
		t.Fatalf("Failed to create observability manager: %v", err)
	}

	return srv, om
}

func multipartUpload(t *testing.T, fileName string, content []byte) (*bytes.Buffer, string) {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("resume", fileName)
	if err != nil {
		t.Fatalf("Failed to create form file: %v", err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("Failed to write form file: %v", err)
	}
	if err := writer.WriteField("companyName", "Initech"); err != nil {
		t.Fatalf("Failed to write form field: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("Failed to close multipart writer: %v", err)
	}

	return body, writer.FormDataContentType()
}

func TestReviewHandlerHappyPath(t *testing.T) {
	reviewer := &stubReviewer{
		feedback: types.Feedback{
			OverallRating: 8,
			Content:       types.ContentAnalysis{Formatting: 7},
		},
	}
	srv, om := newTestServer(t, reviewer, store.NewMemoryStore())

	body, contentType := multipartUpload(t, "resume.pdf", []byte("%PDF-1.4 fake document"))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/resumes", body)
	req.Header.Set("Content-Type", contentType)
	rr := httptest.NewRecorder()

	srv.createReviewHandler(om)(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("Expected status %d, got %d: %s", http.StatusCreated, rr.Code, rr.Body.String())
	}

	var resp struct {
		Record types.ResumeRecord `json:"record"`
		Report feedback.Report    `json:"report"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if resp.Record.ID == "" {
		t.Error("Expected a record id, got empty string")
	}
	if resp.Record.CompanyName != "Initech" {
		t.Errorf("Expected company name 'Initech', got '%s'", resp.Record.CompanyName)
	}
	if len(resp.Record.ImagePaths) != 2 {
		t.Errorf("Expected 2 page images, got %d", len(resp.Record.ImagePaths))
	}
	// Legacy 0-10 ratings surface as 0-100 scores
	if resp.Report.Overall != 80 {
		t.Errorf("Expected overall score 80, got %d", resp.Report.Overall)
	}
}

func TestReviewHandlerRejectsNonPDF(t *testing.T) {
	srv, om := newTestServer(t, &stubReviewer{}, store.NewMemoryStore())

	body, contentType := multipartUpload(t, "resume.docx", []byte("not a pdf"))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/resumes", body)
	req.Header.Set("Content-Type", contentType)
	rr := httptest.NewRecorder()

	srv.createReviewHandler(om)(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("Expected status %d, got %d", http.StatusBadRequest, rr.Code)
	}
}

func TestReviewHandlerRejectsOversizedUpload(t *testing.T) {
	srv, om := newTestServer(t, &stubReviewer{}, store.NewMemoryStore())
	srv.Pipeline = upload.NewPipeline(&stubRenderer{pages: 1}, srv.Logger, upload.WithMaxBytes(16))

	body, contentType := multipartUpload(t, "resume.pdf", []byte("%PDF-1.4 this payload is larger than sixteen bytes"))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/resumes", body)
	req.Header.Set("Content-Type", contentType)
	rr := httptest.NewRecorder()

	srv.createReviewHandler(om)(rr, req)

	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("Expected status %d, got %d", http.StatusRequestEntityTooLarge, rr.Code)
	}
}

func TestGetResumeNotFound(t *testing.T) {
	srv, om := newTestServer(t, &stubReviewer{}, store.NewMemoryStore())

	mux := srv.setupRoutes(om)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/resumes/does-not-exist", nil)
	rr := httptest.NewRecorder()

	mux.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Errorf("Expected status %d, got %d", http.StatusNotFound, rr.Code)
	}

	var resp ErrorResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode error response: %v", err)
	}
	if resp.Message != errors.ErrCodeRecordNotFound {
		t.Errorf("Expected error code '%s', got '%s'", errors.ErrCodeRecordNotFound, resp.Message)
	}
}

func TestEmailEndpointNotImplemented(t *testing.T) {
	records := store.NewMemoryStore()
	rec := &types.ResumeRecord{ID: "rec-1", ResumePath: "r.pdf", CreatedAt: time.Now()}
	if err := records.Save(context.Background(), rec); err != nil {
		t.Fatalf("Failed to seed record: %v", err)
	}

	srv, om := newTestServer(t, &stubReviewer{}, records)

	mux := srv.setupRoutes(om)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/resumes/rec-1/email", nil)
	rr := httptest.NewRecorder()

	mux.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotImplemented {
		t.Errorf("Expected status %d, got %d", http.StatusNotImplemented, rr.Code)
	}
}

func TestUsageHandlerCountsCurrentMonth(t *testing.T) {
	records := store.NewMemoryStore()
	now := time.Now().UTC()
	seed := []*types.ResumeRecord{
		{ID: "a", ResumePath: "a.pdf", CreatedAt: now},
		{ID: "b", ResumePath: "b.pdf", CreatedAt: now.Add(-time.Hour)},
		{ID: "c", ResumePath: "c.pdf", CreatedAt: now.AddDate(0, -2, 0)},
	}
	for _, rec := range seed {
		if err := records.Save(context.Background(), rec); err != nil {
			t.Fatalf("Failed to seed record: %v", err)
		}
	}

	srv, om := newTestServer(t, &stubReviewer{}, records)

	mux := srv.setupRoutes(om)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/usage", nil)
	rr := httptest.NewRecorder()

	mux.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d", http.StatusOK, rr.Code)
	}

	var resp struct {
		Available bool            `json:"available"`
		Usage     types.UsageInfo `json:"usage"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if !resp.Available {
		t.Error("Expected usage to be available")
	}
	if resp.Usage.Used != 2 {
		t.Errorf("Expected 2 reviews used this month, got %d", resp.Usage.Used)
	}
	if resp.Usage.Remaining != 98 {
		t.Errorf("Expected 98 reviews remaining, got %d", resp.Usage.Remaining)
	}
}

func TestReportHandlerFormats(t *testing.T) {
	records := store.NewMemoryStore()
	rec := &types.ResumeRecord{
		ID:         "rec-1",
		ResumePath: "r.pdf",
		Feedback:   types.Feedback{OverallRating: 9},
		CreatedAt:  time.Now(),
	}
	if err := records.Save(context.Background(), rec); err != nil {
		t.Fatalf("Failed to seed record: %v", err)
	}

	srv, om := newTestServer(t, &stubReviewer{}, records)
	mux := srv.setupRoutes(om)

	tests := []struct {
		format      string
		status      int
		contentType string
	}{
		{"json", http.StatusOK, "application/json"},
		{"text", http.StatusOK, "text/plain; charset=utf-8"},
		{"html", http.StatusOK, "text/html; charset=utf-8"},
		{"bogus", http.StatusBadRequest, "application/json"},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/resumes/rec-1/report?format="+tt.format, nil)
		rr := httptest.NewRecorder()
		mux.ServeHTTP(rr, req)

		if rr.Code != tt.status {
			t.Errorf("Format %s: expected status %d, got %d", tt.format, tt.status, rr.Code)
		}
		if ct := rr.Header().Get("Content-Type"); ct != tt.contentType {
			t.Errorf("Format %s: expected content type '%s', got '%s'", tt.format, tt.contentType, ct)
		}
	}
}

func TestPageImageHandler(t *testing.T) {
	srv, om := newTestServer(t, &stubReviewer{}, store.NewMemoryStore())

	path, err := srv.Files.Save("resume-page-1.png", []byte("png-data"))
	if err != nil {
		t.Fatalf("Failed to save page image: %v", err)
	}
	rec := &types.ResumeRecord{
		ID:         "rec-1",
		ResumePath: "r.pdf",
		ImagePaths: []string{path},
		CreatedAt:  time.Now(),
	}
	if err := srv.Records.Save(context.Background(), rec); err != nil {
		t.Fatalf("Failed to seed record: %v", err)
	}

	mux := srv.setupRoutes(om)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/resumes/rec-1/pages/1", nil)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d", http.StatusOK, rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("Expected content type 'image/png', got '%s'", ct)
	}

	// Out-of-range page numbers are rejected
	req = httptest.NewRequest(http.MethodGet, "/api/v1/resumes/rec-1/pages/5", nil)
	rr = httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("Expected status %d, got %d", http.StatusBadRequest, rr.Code)
	}
}

func TestRateLimiterAllowsBurstThenBlocks(t *testing.T) {
	logger := errors.NewLogger(slog.LevelError)
	limiter := NewLimiterManager(1.0, 2, time.Minute, logger)
	defer limiter.Close()

	if !limiter.Allow("ip:10.0.0.1") {
		t.Error("First request should be allowed")
	}
	if !limiter.Allow("ip:10.0.0.1") {
		t.Error("Second request should be allowed within burst")
	}
	if limiter.Allow("ip:10.0.0.1") {
		t.Error("Third request should be blocked")
	}

	// Other clients have independent buckets
	if !limiter.Allow("ip:10.0.0.2") {
		t.Error("Different client should be allowed")
	}
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		expected   string
	}{
		{
			name:       "remote addr only",
			remoteAddr: "192.168.1.10:54321",
			expected:   "192.168.1.10",
		},
		{
			name:       "x-forwarded-for",
			remoteAddr: "10.0.0.1:1234",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.5, 10.0.0.1"},
			expected:   "203.0.113.5",
		},
		{
			name:       "x-real-ip",
			remoteAddr: "10.0.0.1:1234",
			headers:    map[string]string{"X-Real-IP": "203.0.113.9"},
			expected:   "203.0.113.9",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}

			if got := getClientIP(req); got != tt.expected {
				t.Errorf("Expected client IP '%s', got '%s'", tt.expected, got)
			}
		})
	}
}
