// Package storage keeps uploaded statement documents on disk under a
// configured directory, with generated unique names. Writes are not
// transactional with job rows; a crash between write and insert can
// leave an orphaned file, which is accepted and not auto-cleaned.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

type FileStore struct {
	baseDir string
}

func NewFileStore(baseDir string) (*FileStore, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("error creating upload directory %s: %w", baseDir, err)
	}
	return &FileStore{baseDir: baseDir}, nil
}

// Write stores the document under a uuid name, preserving only the
// original extension, and returns the stored path.
func (s *FileStore) Write(data []byte, originalFileName string) (string, error) {
	ext := strings.ToLower(filepath.Ext(originalFileName))
	path := filepath.Join(s.baseDir, uuid.NewString()+ext)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("error writing uploaded file %s: %w", path, err)
	}
	return path, nil
}

// Read loads a stored document back for processing.
func (s *FileStore) Read(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading stored file %s: %w", path, err)
	}
	return data, nil
}
