package store

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"resumind/internal/errors"
)

// FileStore keeps uploaded resumes and their page images on disk.
// Stored names are prefixed with a fresh UUID so concurrent uploads of
// identically named files never collide.
type FileStore struct {
	baseDir string
}

// NewFileStore creates the base directory if needed
func NewFileStore(baseDir string) (*FileStore, error) {
	if baseDir == "" {
		baseDir = "uploads"
	}
	if err := os.MkdirAll(baseDir, 0750); err != nil {
		return nil, errors.NewIOError(errors.ErrCodeFileNotReadable,
			"failed to create upload directory", err).
			WithContext("dir", baseDir)
	}
	return &FileStore{baseDir: baseDir}, nil
}

// BaseDir returns the storage root
func (fs *FileStore) BaseDir() string {
	return fs.baseDir
}

// Save writes data under a UUID-prefixed version of fileName and
// returns the stored path.
func (fs *FileStore) Save(fileName string, data []byte) (string, error) {
	name := fmt.Sprintf("%s_%s", uuid.New().String(), sanitizeName(fileName))
	path := filepath.Join(fs.baseDir, name)

	if err := os.WriteFile(path, data, 0640); err != nil {
		return "", errors.NewIOError(errors.ErrCodeFileNotReadable,
			"failed to write stored file", err).
			WithContext("path", path)
	}
	return path, nil
}

// Read loads a previously stored file. Paths outside the base
// directory are rejected.
func (fs *FileStore) Read(path string) ([]byte, error) {
	if !fs.contains(path) {
		return nil, errors.NewValidationError(errors.ErrCodeInvalidRequest,
			"path is outside the storage directory", nil).
			WithContext("path", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewNotFoundError(errors.ErrCodeFileNotFound,
				"stored file not found", err).
				WithContext("path", path)
		}
		return nil, errors.NewIOError(errors.ErrCodeFileNotReadable,
			"failed to read stored file", err).
			WithContext("path", path)
	}
	return data, nil
}

// Delete removes a stored file, ignoring files that are already gone
func (fs *FileStore) Delete(path string) error {
	if !fs.contains(path) {
		return errors.NewValidationError(errors.ErrCodeInvalidRequest,
			"path is outside the storage directory", nil).
			WithContext("path", path)
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return errors.NewIOError(errors.ErrCodeFileNotReadable,
			"failed to delete stored file", err).
			WithContext("path", path)
	}
	return nil
}

func (fs *FileStore) contains(path string) bool {
	rel, err := filepath.Rel(fs.baseDir, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func sanitizeName(name string) string {
	base := filepath.Base(name)
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '-'
		}
	}, base)
}
