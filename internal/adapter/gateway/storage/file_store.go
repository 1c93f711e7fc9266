package storage

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/YoshitsuguKoike/loopkit/internal/application/port/output"
	"github.com/YoshitsuguKoike/loopkit/internal/infra/persistence/file"
)

// FileStore implements KeyValueStore on a filesystem.
// Directory structure: <baseDir>/<key>.json, each written atomically.
type FileStore struct {
	fs      afero.Fs
	baseDir string
}

// NewFileStore creates a file store rooted at baseDir, creating it if needed
func NewFileStore(fs afero.Fs, baseDir string) (*FileStore, error) {
	if err := fs.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}
	return &FileStore{fs: fs, baseDir: baseDir}, nil
}

var _ output.KeyValueStore = (*FileStore)(nil)

// Get reads the file for key
func (s *FileStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}
	return file.ReadFileIfExists(s.fs, s.pathFor(key))
}

// Set atomically replaces the file for key
func (s *FileStore) Set(ctx context.Context, key string, value []byte) error {
	if err := validateKey(key); err != nil {
		return err
	}
	return file.WriteFileAtomic(s.fs, s.pathFor(key), value)
}

// Remove deletes the file for key
func (s *FileStore) Remove(ctx context.Context, key string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	return file.RemoveIfExists(s.fs, s.pathFor(key))
}

// RemoveMany deletes every listed key, stopping at the first failure
func (s *FileStore) RemoveMany(ctx context.Context, keys []string) error {
	for _, k := range keys {
		if err := s.Remove(ctx, k); err != nil {
			return err
		}
	}
	return nil
}

// GetStoragePath returns the file backing key
func (s *FileStore) GetStoragePath(key string) string {
	return s.pathFor(key)
}

func (s *FileStore) pathFor(key string) string {
	return filepath.Join(s.baseDir, key+".json")
}
