package store

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"resumind/internal/errors"
	"resumind/internal/types"
)

func TestMemoryStoreSaveAndGet(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	rec := &types.ResumeRecord{
		ID:          "11111111-2222-3333-4444-555555555555",
		CompanyName: "Acme",
		JobTitle:    "Backend Engineer",
		ResumePath:  "uploads/resume.pdf",
		ImagePaths:  []string{"uploads/resume-page-1.png"},
		Feedback:    types.Feedback{OverallRating: 8},
		CreatedAt:   time.Now(),
	}

	if err := s.Save(ctx, rec); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := s.Get(ctx, rec.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.CompanyName != "Acme" || got.Feedback.OverallRating != 8 {
		t.Errorf("Loaded record does not match: %+v", got)
	}
}

func TestMemoryStoreGetMissing(t *testing.T) {
	s := NewMemoryStore()

	_, err := s.Get(context.Background(), "does-not-exist")
	if err == nil {
		t.Fatal("Expected not-found error")
	}

	appErr, ok := err.(*errors.AppError)
	if !ok {
		t.Fatalf("Expected *errors.AppError, got %T", err)
	}
	if appErr.Type != errors.ErrorTypeNotFound {
		t.Errorf("Expected not_found error type, got %s", appErr.Type)
	}
	if appErr.Code != errors.ErrCodeRecordNotFound {
		t.Errorf("Expected code %s, got %s", errors.ErrCodeRecordNotFound, appErr.Code)
	}
}

func TestMemoryStoreDelete(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	rec := &types.ResumeRecord{ID: "rec-1"}
	if err := s.Save(ctx, rec); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := s.Delete(ctx, "rec-1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := s.Delete(ctx, "rec-1"); err == nil {
		t.Error("Expected not-found error on second delete")
	}
}

func TestFileStoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	fs, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}
	if fs.BaseDir() != dir {
		t.Errorf("Expected base dir %s, got %s", dir, fs.BaseDir())
	}

	path, err := fs.Save("resume.pdf", []byte("%PDF-1.4 test"))
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if !strings.HasSuffix(path, "_resume.pdf") {
		t.Errorf("Expected UUID-prefixed name, got %s", path)
	}

	data, err := fs.Read(path)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if string(data) != "%PDF-1.4 test" {
		t.Errorf("Read returned wrong content: %q", data)
	}

	if err := fs.Delete(path); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("Expected file to be removed")
	}
}

func TestFileStoreRejectsOutsidePaths(t *testing.T) {
	fs, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}

	outside := filepath.Join(os.TempDir(), "other", "secret.txt")
	if _, err := fs.Read(outside); err == nil {
		t.Error("Expected read outside the base directory to be rejected")
	}
	if err := fs.Delete(outside); err == nil {
		t.Error("Expected delete outside the base directory to be rejected")
	}
}

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"resume.pdf", "resume.pdf"},
		{"../../etc/passwd", "passwd"},
		{"my resume (final).pdf", "my-resume--final-.pdf"},
	}

	for _, tt := range tests {
		if got := sanitizeName(tt.in); got != tt.want {
			t.Errorf("sanitizeName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
