// Package fs serves static content from a directory on the local filesystem.
package fs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/marmos91/dittoweb/pkg/content"
)

// FSContentStore implements content.WritableContentStore on top of a directory.
//
// Store keys map directly onto paths below basePath, so the directory can be
// edited with ordinary tools while the server runs: every read goes to disk.
//
// Thread Safety:
// Safe for concurrent use. Concurrent writes to the same key are last-write-wins
// at the OS level.
type FSContentStore struct {
	basePath string
}

// NewFSContentStore creates a filesystem store rooted at basePath.
//
// When create is true the directory is created (0755) if missing; otherwise a
// missing directory is an error.
//
// Context Cancellation:
// This operation checks the context before touching the filesystem.
//
// Parameters:
//   - ctx: Context for cancellation and timeouts
//   - basePath: Root directory of the static files
//   - create: Whether to create basePath when it does not exist
//
// Returns:
//   - *FSContentStore: Initialized store
//   - error: If basePath is unusable or the context is cancelled
func NewFSContentStore(ctx context.Context, basePath string, create bool) (*FSContentStore, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	abs, err := filepath.Abs(basePath)
	if err != nil {
		return nil, fmt.Errorf("resolve base path %q: %w", basePath, err)
	}

	if create {
		if err := os.MkdirAll(abs, 0755); err != nil {
			return nil, fmt.Errorf("failed to create base directory: %w", err)
		}
	}

	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("static directory %q: %w", abs, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("static path %q is not a directory", abs)
	}

	return &FSContentStore{basePath: abs}, nil
}

// BasePath returns the absolute root directory.
func (s *FSContentStore) BasePath() string {
	return s.basePath
}

// Name implements content.ContentStore.
func (s *FSContentStore) Name() string {
	return "filesystem"
}

// getFilePath maps a key to its location on disk.
func (s *FSContentStore) getFilePath(p string) (string, error) {
	key, err := content.CleanPath(p)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.basePath, filepath.FromSlash(key)), nil
}

// statFile returns the FileInfo of a regular file at p.
func (s *FSContentStore) statFile(p string) (string, fs.FileInfo, error) {
	full, err := s.getFilePath(p)
	if err != nil {
		return "", nil, err
	}

	info, err := os.Stat(full)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil, fmt.Errorf("content %s: %w", p, content.ErrContentNotFound)
		}
		return "", nil, fmt.Errorf("failed to stat content: %w", err)
	}
	if !info.Mode().IsRegular() {
		return "", nil, fmt.Errorf("content %s is not a regular file: %w", p, content.ErrContentNotFound)
	}
	return full, info, nil
}

// ReadContent opens the file at p.
//
// Context Cancellation:
// Checked before opening. The returned file is independent of ctx.
func (s *FSContentStore) ReadContent(ctx context.Context, p string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	full, _, err := s.statFile(p)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(full)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("content %s: %w", p, content.ErrContentNotFound)
		}
		return nil, fmt.Errorf("failed to open content: %w", err)
	}
	return file, nil
}

// GetContentSize stats the file at p.
func (s *FSContentStore) GetContentSize(ctx context.Context, p string) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	_, info, err := s.statFile(p)
	if err != nil {
		return 0, err
	}
	return uint64(info.Size()), nil
}

// ContentExists reports whether p names a regular file.
func (s *FSContentStore) ContentExists(ctx context.Context, p string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	_, _, err := s.statFile(p)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, content.ErrContentNotFound), errors.Is(err, content.ErrInvalidPath):
		return false, nil
	default:
		return false, err
	}
}

// WriteContent writes data to p, creating parent directories as needed.
//
// The file is written to a temporary sibling and renamed into place so readers
// never observe a partial file.
func (s *FSContentStore) WriteContent(ctx context.Context, p string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	full, err := s.getFilePath(p)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		return fmt.Errorf("failed to create parent directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(full), ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to write content: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to close content: %w", err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to chmod content: %w", err)
	}
	if err := os.Rename(tmpName, full); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to rename content: %w", err)
	}
	return nil
}

// Delete removes the file at p. Missing files are not an error.
func (s *FSContentStore) Delete(ctx context.Context, p string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	full, err := s.getFilePath(p)
	if err != nil {
		return err
	}

	if err := os.Remove(full); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete content: %w", err)
	}
	return nil
}
