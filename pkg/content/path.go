package content

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"
)

// CleanPath turns a request path or configured file name into a store key.
//
// One leading "/" is stripped (request paths are rooted). What remains must be
// a relative slash-separated path that stays inside the store root:
//   - no NUL bytes and no backslashes
//   - no leading "/" after stripping ("//etc/passwd" is rejected)
//   - no "." or ".." segments, checked before cleaning so they cannot be
//     cleaned away
//   - not empty and not absolute once cleaned
//
// Returns the cleaned key, or ErrInvalidPath (wrapped).
func CleanPath(p string) (string, error) {
	rel := strings.TrimPrefix(p, "/")

	invalid := func(reason string) (string, error) {
		return "", fmt.Errorf("%w: %q: %s", ErrInvalidPath, p, reason)
	}

	switch {
	case rel == "":
		return invalid("empty")
	case strings.IndexByte(rel, 0) != -1:
		return invalid("contains NUL")
	case strings.Contains(rel, "\\"):
		return invalid("contains backslash")
	case strings.HasPrefix(rel, "/"):
		return invalid("absolute")
	}

	for _, seg := range strings.Split(rel, "/") {
		if seg == "." || seg == ".." {
			return invalid("dot segment")
		}
	}

	clean := path.Clean(rel)
	if clean == "." || clean == "" || strings.HasPrefix(clean, "/") {
		return invalid("empty after cleaning")
	}

	osPath := filepath.FromSlash(clean)
	if filepath.IsAbs(osPath) || filepath.VolumeName(osPath) != "" {
		return invalid("absolute")
	}

	return clean, nil
}
