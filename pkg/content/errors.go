package content

import "errors"

// ============================================================================
// Standard Content Store Errors
// ============================================================================

// Callers check these with errors.Is. Implementations wrap them with the path:
//
//	return nil, fmt.Errorf("content %s: %w", p, content.ErrContentNotFound)

var (
	// ErrContentNotFound indicates no file exists at the requested path.
	//
	// Directories count as not found: only regular files (or objects) are
	// served.
	ErrContentNotFound = errors.New("content not found")

	// ErrInvalidPath indicates the path could escape the store root or is
	// otherwise unusable (empty, NUL byte, backslash, dot segment).
	ErrInvalidPath = errors.New("invalid content path")

	// ErrTooLarge indicates the content exceeds the read limit of the caller.
	ErrTooLarge = errors.New("content too large")
)
