package content

import (
	"context"
	"fmt"
	"io"
)

// ============================================================================
// ContentStore Interface
// ============================================================================

// ContentStore provides read access to the static files served by the HTTP
// adapter.
//
// Paths are store keys produced by CleanPath: relative, slash-separated and
// free of dot segments. Implementations call CleanPath themselves as well and
// return ErrInvalidPath for anything it rejects, so a store never resolves a
// key outside its root even when a caller skips sanitizing.
//
// Only regular files (or objects) are content. A directory at the requested
// path is reported as ErrContentNotFound.
//
// Thread Safety:
// Implementations must be safe for concurrent use by multiple goroutines. The
// dispatcher reads from the store on every worker.
type ContentStore interface {
	// ReadContent returns a reader for the file at p.
	//
	// The caller must close the reader.
	//
	// Returns:
	//   - ErrContentNotFound if nothing exists at p
	//   - ErrInvalidPath if p is rejected by CleanPath
	//   - context or backend errors otherwise
	ReadContent(ctx context.Context, p string) (io.ReadCloser, error)

	// GetContentSize returns the size in bytes of the file at p.
	GetContentSize(ctx context.Context, p string) (uint64, error)

	// ContentExists reports whether a regular file exists at p.
	//
	// A path rejected by CleanPath does not exist: (false, nil). Errors are
	// reserved for context cancellation and backend failures.
	ContentExists(ctx context.Context, p string) (bool, error)

	// Name identifies the backend in logs and metrics ("filesystem", "memory", "s3").
	Name() string
}

// WritableContentStore is implemented by stores that can be seeded at runtime.
//
// The HTTP adapter never writes; this exists for tests and for tooling that
// populates a memory or S3 store.
type WritableContentStore interface {
	ContentStore

	// WriteContent stores data at p, replacing any previous content.
	WriteContent(ctx context.Context, p string, data []byte) error

	// Delete removes the file at p. Deleting a missing file succeeds.
	Delete(ctx context.Context, p string) error
}

// ReadAll reads the whole file at p.
//
// When limit is greater than zero, files larger than limit fail with
// ErrTooLarge before any data is read.
func ReadAll(ctx context.Context, store ContentStore, p string, limit int64) ([]byte, error) {
	if limit > 0 {
		size, err := store.GetContentSize(ctx, p)
		if err != nil {
			return nil, err
		}
		if size > uint64(limit) {
			return nil, fmt.Errorf("content %s (%d bytes, limit %d): %w", p, size, limit, ErrTooLarge)
		}
	}

	rc, err := store.ReadContent(ctx, p)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read content %s: %w", p, err)
	}
	return data, nil
}
