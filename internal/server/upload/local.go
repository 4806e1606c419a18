package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// DefaultPublicBase is where the server exposes the local upload directory.
const DefaultPublicBase = "/uploads"

// LocalStore keeps blobs in a directory on the local disk.
type LocalStore struct {
	dir        string
	publicBase string
}

// NewLocalStore creates dir if needed and returns a store rooted at it.
func NewLocalStore(dir, publicBase string) (*LocalStore, error) {
	if dir == "" {
		return nil, errors.New("upload directory is required")
	}
	if publicBase == "" {
		publicBase = DefaultPublicBase
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}

	return &LocalStore{dir: dir, publicBase: publicBase}, nil
}

// Dir returns the root directory of the store.
func (s *LocalStore) Dir() string {
	return s.dir
}

// Put writes r to the file for key. A partially written file is removed on failure.
func (s *LocalStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	target, err := s.path(key)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", key, err)
	}

	f, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", key, err)
	}

	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		_ = os.Remove(target)
		return fmt.Errorf("failed to write %s: %w", key, err)
	}

	if err := f.Close(); err != nil {
		_ = os.Remove(target)
		return fmt.Errorf("failed to close %s: %w", key, err)
	}

	return nil
}

// Delete removes the file for key. Missing files are not an error.
func (s *LocalStore) Delete(ctx context.Context, key string) error {
	target, err := s.path(key)
	if err != nil {
		return err
	}

	if err := os.Remove(target); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}

	return nil
}

// URL returns the path the server serves key under.
func (s *LocalStore) URL(key string) string {
	if IsAbsoluteURL(key) {
		return key
	}
	return joinURL(s.publicBase, key)
}

func (s *LocalStore) path(key string) (string, error) {
	cleaned, err := cleanKey(key)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.dir, filepath.FromSlash(cleaned)), nil
}
