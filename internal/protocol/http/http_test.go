package http

import (
	"bytes"
	"errors"
	"testing"

	"github.com/marmos91/dittoweb/pkg/route"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// Request Line Tests
// ============================================================================

func TestParseRequestLine(t *testing.T) {
	t.Run("FullRequest", func(t *testing.T) {
		rl, err := ParseRequestLine("GET /user/42 HTTP/1.1\r\nHost: localhost\r\n\r\n")
		require.NoError(t, err)
		assert.Equal(t, "GET", rl.Token)
		assert.Equal(t, route.MethodGet, rl.Method)
		assert.Equal(t, "/user/42", rl.Path)
		assert.Equal(t, "HTTP/1.1", rl.Version)
	})

	t.Run("MethodIgnoresCase", func(t *testing.T) {
		rl, err := ParseRequestLine("post /users HTTP/1.1\n")
		require.NoError(t, err)
		assert.Equal(t, route.MethodPost, rl.Method)
	})

	t.Run("UnknownMethodParses", func(t *testing.T) {
		rl, err := ParseRequestLine("DELETE /users HTTP/1.1\r\n")
		require.NoError(t, err)
		assert.Equal(t, "DELETE", rl.Token)
		assert.Equal(t, route.MethodUnrecognized, rl.Method)
	})

	t.Run("QueryStringKept", func(t *testing.T) {
		rl, err := ParseRequestLine("GET /search?q=x HTTP/1.1\r\n")
		require.NoError(t, err)
		assert.Equal(t, "/search?q=x", rl.Path)
	})

	for _, raw := range []string{"", "GET", "\r\n", " /path"} {
		t.Run("Malformed "+raw, func(t *testing.T) {
			_, err := ParseRequestLine(raw)
			assert.True(t, errors.Is(err, ErrMalformedRequest))
		})
	}
}

// ============================================================================
// Header Tests
// ============================================================================

const sampleRequest = "GET / HTTP/1.1\r\n" +
	"Host: localhost:8081\r\n" +
	"User-Agent:  curl/8.0 \r\n" +
	"X-Empty:\r\n" +
	"\r\n" +
	"{\"body\": \"not a header\"}"

func TestParseHeaders(t *testing.T) {
	h := ParseHeaders(sampleRequest)

	assert.Equal(t, "localhost:8081", h.Get("Host"), "split at first colon only")
	assert.Equal(t, "curl/8.0", h.Get("User-Agent"))
	assert.Equal(t, "", h.Get("X-Empty"))
	assert.Len(t, h, 3, "body lines are not headers")
	assert.Equal(t, "", h.Get("host"), "keys are case-sensitive")

	assert.Equal(t, []string{"localhost:8081", ""}, h.Values("Host", "Accept"))
	assert.Equal(t, []string{"Accept"}, h.Missing("Host", "Accept"))
}

func TestExpectHeaders(t *testing.T) {
	h := ParseHeaders(sampleRequest)

	t.Run("AllPresent", func(t *testing.T) {
		var buf bytes.Buffer
		ok, err := ExpectHeaders(&buf, h, "Host", "User-Agent")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Zero(t, buf.Len())
	})

	t.Run("MissingWrites400", func(t *testing.T) {
		var buf bytes.Buffer
		ok, err := ExpectHeaders(&buf, h, "Host", "Accept")
		require.NoError(t, err)
		assert.False(t, ok)

		body := `Missing headers: ["Host" "Accept"]`
		want := "HTTP/1.1 400\r\nContent-Length: 34\r\nContent-Type: text/plain\r\n\r\n" + body
		assert.Equal(t, want, buf.String())
	})
}

// ============================================================================
// Status / Content Type Tests
// ============================================================================

func TestStatusText(t *testing.T) {
	assert.Equal(t, "OK", StatusText(200))
	assert.Equal(t, "I'm a teapot", StatusText(418))
	assert.Equal(t, "Network Authentication Required", StatusText(511))
	assert.Equal(t, "Internal error - Missing status code", StatusText(299))
}

func TestGuessContentType(t *testing.T) {
	tests := map[string]ContentType{
		"index.html":      ContentTypeHTML,
		"INDEX.HTM":       ContentTypeHTML,
		"data.json":       ContentTypeJSON,
		"conf.yml":        ContentTypeJSON,
		"img/logo.PNG":    ContentTypePNG,
		"photo.jpeg":      ContentTypeJPEG,
		"icon.svg":        ContentTypeSVG,
		"readme":          ContentTypeText,
		"archive.tar.gz":  ContentTypeText,
		"dir.with.dots/x": ContentTypeText,
	}
	for p, want := range tests {
		t.Run(p, func(t *testing.T) {
			assert.Equal(t, want, GuessContentType(p))
		})
	}
}

func TestSniffContentType(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

	assert.Equal(t, ContentTypePNG, SniffContentType(ContentTypeText, png))
	assert.Equal(t, ContentTypeHTML, SniffContentType(ContentTypeText, []byte("<!DOCTYPE html><html></html>")))
	assert.Equal(t, ContentTypeText, SniffContentType(ContentTypeText, []byte("plain words")))
	assert.Equal(t, ContentTypeHTML, SniffContentType(ContentTypeHTML, png), "known guesses are kept")
}

// ============================================================================
// Response Tests
// ============================================================================

func TestWriteContent(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteContent(&buf, 200, ContentTypeJSON, []byte(`{"a":"b"}`)))
	assert.Equal(t, "HTTP/1.1 200\r\nContent-Length: 9\r\nContent-Type: application/json\r\n\r\n{\"a\":\"b\"}", buf.String())
}

func TestWriteStatus(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteStatus(&buf, 502))
	assert.Equal(t, "HTTP/1.1 502\r\n\r\n502 Bad Gateway", buf.String())

	buf.Reset()
	require.NoError(t, WriteStatus(&buf, 299))
	assert.Equal(t, "HTTP/1.1 299\r\n\r\n299 Internal error - Missing status code", buf.String())
}

func TestBufferPool(t *testing.T) {
	for _, size := range []int{1, 1024, 4096, 65536, 100000} {
		buf := GetBuffer(size)
		assert.Len(t, buf, size)
		PutBuffer(buf)
	}
}
