package documents

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/brizzai/mcp-openapi-hub/internal/config"
	"github.com/google/uuid"
)

const defaultUploadName = "uploaded-spec.json"

// Storage persists uploaded document content so it can be parsed like any other location
type Storage interface {
	Save(filename string, content []byte) (string, error)
	Remove(path string) error
}

// FileStorage writes uploads under a single directory
type FileStorage struct {
	dir string
	now func() time.Time
}

// NewFileStorage creates a FileStorage rooted at dir
func NewFileStorage(dir string) *FileStorage {
	if dir == "" {
		dir = "uploads"
	}
	return &FileStorage{dir: dir, now: time.Now}
}

// NewFileStorageFromConfig creates a FileStorage rooted at the configured upload directory
func NewFileStorageFromConfig(cfg *config.Config) *FileStorage {
	return NewFileStorage(cfg.Storage.UploadDir)
}

// Save writes content to a unique file derived from filename and returns its absolute path
func (s *FileStorage) Save(filename string, content []byte) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create upload directory %s: %w", s.dir, err)
	}

	name := fmt.Sprintf("%d_%s_%s", s.now().UnixMilli(), uuid.NewString()[:8], uploadBaseName(filename))
	path, err := filepath.Abs(filepath.Join(s.dir, name))
	if err != nil {
		return "", fmt.Errorf("failed to resolve upload path: %w", err)
	}

	if err := os.WriteFile(path, content, 0o644); err != nil {
		return "", fmt.Errorf("failed to write uploaded document: %w", err)
	}
	return path, nil
}

// Remove deletes a previously saved file, paths outside the upload directory are ignored
func (s *FileStorage) Remove(path string) error {
	dir, err := filepath.Abs(s.dir)
	if err != nil {
		return err
	}
	if filepath.Dir(path) != dir {
		return nil
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove uploaded document: %w", err)
	}
	return nil
}

// uploadBaseName strips any directory part so uploads cannot escape the upload directory
func uploadBaseName(filename string) string {
	base := filepath.Base(strings.ReplaceAll(filename, "\\", "/"))
	if base == "." || base == "/" || base == "" {
		return defaultUploadName
	}
	return base
}
