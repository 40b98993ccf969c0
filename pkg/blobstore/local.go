package blobstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LocalStore writes blobs under a directory served by the Fiber static
// route.
type LocalStore struct {
	root    string
	baseURL string // e.g. http://localhost:3000/uploads
}

func NewLocalStore(root, baseURL string) (*LocalStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("blobstore: create root: %w", err)
	}
	return &LocalStore{root: root, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

func (s *LocalStore) Put(ctx context.Context, path string, data []byte, contentType string) (string, error) {
	clean := filepath.Clean("/" + path)
	full := filepath.Join(s.root, clean)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return "", err
	}
	return s.baseURL + filepath.ToSlash(clean), nil
}

func (s *LocalStore) Get(ctx context.Context, url string) ([]byte, error) {
	rel := strings.TrimPrefix(url, s.baseURL)
	full := filepath.Join(s.root, filepath.Clean("/"+rel))
	return os.ReadFile(full)
}
