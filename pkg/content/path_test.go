package content

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanPath(t *testing.T) {
	t.Run("Valid", func(t *testing.T) {
		tests := map[string]string{
			"index.html":       "index.html",
			"/index.html":      "index.html",
			"img/logo.png":     "img/logo.png",
			"/img//logo.png":   "img/logo.png",
			"dir/":             "dir",
			"/a/b/c/d.txt":     "a/b/c/d.txt",
			"file.with..dots":  "file.with..dots",
			"/search?q=x":      "search?q=x",
		}
		for in, want := range tests {
			got, err := CleanPath(in)
			require.NoError(t, err, in)
			assert.Equal(t, want, got, in)
		}
	})

	t.Run("Invalid", func(t *testing.T) {
		for _, in := range []string{
			"", "/", "//", "//etc/passwd", "../x", "a/../b", "./a", "a/.",
			"a\\b", "a\x00b",
		} {
			_, err := CleanPath(in)
			assert.True(t, errors.Is(err, ErrInvalidPath), "%q: %v", in, err)
		}
	})
}
