package storage

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// FilesystemImageStore writes images below a base directory and serves them
// from a public base URL
type FilesystemImageStore struct {
	baseDir       string
	publicBaseURL string
}

// NewFilesystemImageStore creates the base directory if needed
func NewFilesystemImageStore(baseDir, publicBaseURL string) (*FilesystemImageStore, error) {
	if baseDir == "" {
		return nil, fmt.Errorf("%w: base directory is required", ErrInvalidKey)
	}
	// Ensure base directory exists
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}

	return &FilesystemImageStore{
		baseDir:       baseDir,
		publicBaseURL: strings.TrimSuffix(publicBaseURL, "/"),
	}, nil
}

// BaseDir returns the directory images are written to
func (fs *FilesystemImageStore) BaseDir() string {
	return fs.baseDir
}

// Put writes data at key and returns its public URL
func (fs *FilesystemImageStore) Put(ctx context.Context, key, _ string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	path, err := fs.resolve(key)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("%w: creating directory: %v", ErrStorageWrite, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("%w: writing %s: %v", ErrStorageWrite, key, err)
	}

	return fs.URL(key), nil
}

// URL returns the public URL for key
func (fs *FilesystemImageStore) URL(key string) string {
	escaped := (&url.URL{Path: key}).EscapedPath()
	if fs.publicBaseURL == "" {
		return "/" + escaped
	}
	return fs.publicBaseURL + "/" + escaped
}

func (fs *FilesystemImageStore) resolve(key string) (string, error) {
	if key == "" || filepath.IsAbs(key) {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	base := filepath.Clean(fs.baseDir)
	path := filepath.Clean(filepath.Join(base, key))

	// Security: prevent directory traversal
	rel, err := filepath.Rel(base, path)
	if err != nil || rel == "." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || rel == ".." {
		return "", fmt.Errorf("%w: path traversal detected", ErrInvalidKey)
	}
	return path, nil
}
