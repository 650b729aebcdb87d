package cli

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"resumind/internal/common"
	"resumind/internal/config"
	appErrors "resumind/internal/errors"
)

func writeTempJSON(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("Failed to write temp file: %v", err)
	}
	return path
}

func TestLoadExportRecordFromFeedbackFile(t *testing.T) {
	fp := common.NewFileProcessor(appErrors.NewLogger(slog.LevelError))

	path := writeTempJSON(t, "feedback.json", `{
		"overall_rating": 8,
		"ats_compatibility": 6,
		"content_analysis": {"formatting": 7, "experience_relevance": 9, "technical_skills": 5},
		"strengths": ["Strong work experience"]
	}`)

	rec, err := loadExportRecord(context.Background(), &config.Config{}, fp, path)
	if err != nil {
		t.Fatalf("loadExportRecord failed: %v", err)
	}
	if rec.Feedback.OverallRating != 8 {
		t.Errorf("Expected overall rating 8, got %d", rec.Feedback.OverallRating)
	}
	if rec.Feedback.Content.Formatting != 7 {
		t.Errorf("Expected formatting sub-score 7, got %d", rec.Feedback.Content.Formatting)
	}
}

func TestLoadExportRecordRejectsForeignJSON(t *testing.T) {
	fp := common.NewFileProcessor(appErrors.NewLogger(slog.LevelError))

	// A normalized report decodes into Feedback without error but every
	// field stays zero. The loader must refuse it instead of producing
	// an empty export.
	path := writeTempJSON(t, "report.json", `{
		"overall": 80,
		"ats": {"score": 60, "tips": []},
		"categories": [{"id": "content", "title": "Content", "score": 90}]
	}`)

	_, err := loadExportRecord(context.Background(), &config.Config{}, fp, path)
	if err == nil {
		t.Fatal("Expected an error for a file with no feedback fields, got nil")
	}
	var appErr *appErrors.AppError
	if !errors.As(err, &appErr) || appErr.Code != appErrors.ErrCodeInvalidFormat {
		t.Errorf("Expected error code %s, got %v", appErrors.ErrCodeInvalidFormat, err)
	}
}

func TestLoadExportRecordRejectsMalformedJSON(t *testing.T) {
	fp := common.NewFileProcessor(appErrors.NewLogger(slog.LevelError))

	path := writeTempJSON(t, "broken.json", `{"overall_rating": `)

	_, err := loadExportRecord(context.Background(), &config.Config{}, fp, path)
	if err == nil {
		t.Fatal("Expected an error for malformed JSON, got nil")
	}
}

func TestLoadExportRecordMissingFileWithoutDSN(t *testing.T) {
	fp := common.NewFileProcessor(appErrors.NewLogger(slog.LevelError))

	_, err := loadExportRecord(context.Background(), &config.Config{}, fp, "no-such-record")
	if err == nil {
		t.Fatal("Expected an error when the source is neither a file nor a resolvable record id")
	}
}
