package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net"
	nethttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/marmos91/dittoweb/internal/ratelimiter"
	"github.com/marmos91/dittoweb/pkg/route"
	"github.com/marmos91/dittoweb/pkg/store/users"
	"github.com/marmos91/dittoweb/pkg/store/users/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// Test Helpers
// ============================================================================

// serve runs h over a pipe and returns everything it wrote.
func serve(t *testing.T, h route.Handler, request string, params route.Params) string {
	t.Helper()
	server, client := net.Pipe()

	go func() {
		h.Handle(context.Background(), server, request, params)
		_ = server.Close()
	}()

	data, err := io.ReadAll(client)
	require.NoError(t, err)
	return string(data)
}

// splitResponse returns the status line and body of a raw response.
func splitResponse(t *testing.T, raw string) (string, string) {
	t.Helper()
	head, body, ok := strings.Cut(raw, "\r\n\r\n")
	require.True(t, ok, "no header terminator in %q", raw)
	status, _, _ := strings.Cut(head, "\r\n")
	return status, body
}

const getRequest = "GET /x HTTP/1.1\r\nHost: localhost:8081\r\nAccept: */*\r\n\r\n"

// ============================================================================
// Registry Tests
// ============================================================================

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register("a", route.HandlerFunc(Params)))

	assert.Error(t, r.Register("a", route.HandlerFunc(Params)), "duplicate")
	assert.Error(t, r.Register("", route.HandlerFunc(Params)), "empty name")
	assert.Error(t, r.Register("b", nil), "nil handler")

	target, err := r.Target("a", route.MethodPost)
	require.NoError(t, err)
	assert.Equal(t, "handler POST a", route.Describe(target))

	_, err = r.Target("missing", route.MethodGet)
	assert.Error(t, err)
}

func TestDefaultRegistry(t *testing.T) {
	t.Run("WithoutDeps", func(t *testing.T) {
		assert.Equal(t, []string{NameHeaders, NameParams}, Default(Deps{}).Names())
	})

	t.Run("WithDeps", func(t *testing.T) {
		r := Default(Deps{
			Users: NewUsersHandlers(memory.NewMemoryUserStore()),
			Fetch: NewFetchHandler(FetchConfig{}),
		})
		assert.Equal(t, []string{NameFetch, NameHeaders, NameParams, NameUsersInsert, NameUsersList}, r.Names())
	})
}

// ============================================================================
// Echo Handler Tests
// ============================================================================

func TestParamsHandler(t *testing.T) {
	raw := serve(t, route.HandlerFunc(Params), getRequest, route.Params{"a": "1", "b": "two"})

	status, body := splitResponse(t, raw)
	assert.Equal(t, "HTTP/1.1 200", status)
	assert.Contains(t, raw, "Content-Type: application/json")
	assert.JSONEq(t, `{"a":"1","b":"two"}`, body)
}

func TestHeadersHandler(t *testing.T) {
	t.Run("EchoesHeaders", func(t *testing.T) {
		raw := serve(t, route.HandlerFunc(Headers), getRequest, nil)
		status, body := splitResponse(t, raw)
		assert.Equal(t, "HTTP/1.1 200", status)
		assert.JSONEq(t, `{"Host":"localhost:8081","Accept":"*/*"}`, body)
	})

	t.Run("MissingHost", func(t *testing.T) {
		raw := serve(t, route.HandlerFunc(Headers), "GET / HTTP/1.1\r\nAccept: */*\r\n\r\n", nil)
		status, body := splitResponse(t, raw)
		assert.Equal(t, "HTTP/1.1 400", status)
		assert.Equal(t, `Missing headers: ["Host"]`, body)
	})
}

// ============================================================================
// Users Handler Tests
// ============================================================================

func TestUsersHandlers(t *testing.T) {
	store := memory.NewMemoryUserStore()
	h := NewUsersHandlers(store)

	t.Run("EmptyList", func(t *testing.T) {
		_, body := splitResponse(t, serve(t, route.HandlerFunc(h.List), getRequest, nil))
		assert.Equal(t, "[]", body)
	})

	t.Run("InsertDefaultName", func(t *testing.T) {
		raw := serve(t, route.HandlerFunc(h.Insert), getRequest, route.Params{})
		assert.Equal(t, "HTTP/1.1 200\r\n\r\n200 OK", raw)
	})

	t.Run("InsertNamed", func(t *testing.T) {
		raw := serve(t, route.HandlerFunc(h.Insert), getRequest, route.Params{"name": "ada"})
		assert.Equal(t, "HTTP/1.1 200\r\n\r\n200 OK", raw)
	})

	t.Run("ListReturnsInserted", func(t *testing.T) {
		_, body := splitResponse(t, serve(t, route.HandlerFunc(h.List), getRequest, nil))

		var list []users.User
		require.NoError(t, json.Unmarshal([]byte(body), &list))
		require.Len(t, list, 2)
		assert.ElementsMatch(t, []string{DefaultUserName, "ada"}, []string{list[0].Name, list[1].Name})
	})

	t.Run("BlankNameRejected", func(t *testing.T) {
		raw := serve(t, route.HandlerFunc(h.Insert), getRequest, route.Params{"name": " "})
		assert.Equal(t, "HTTP/1.1 400\r\n\r\n400 Bad Request", raw)
	})
}

// ============================================================================
// Fetch Handler Tests
// ============================================================================

func TestFetchHandler(t *testing.T) {
	upstream := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if r.URL.Path == "/big" {
			_, _ = w.Write([]byte(strings.Repeat("x", 64)))
			return
		}
		_, _ = w.Write([]byte("<html><body class='x'>hello</body></html>"))
	}))
	defer upstream.Close()

	host := strings.TrimPrefix(upstream.URL, "http://")

	t.Run("BlursBody", func(t *testing.T) {
		h := NewFetchHandler(FetchConfig{Scheme: "http"})
		status, body := splitResponse(t, serve(t, h, getRequest, route.Params{"url": host}))
		assert.Equal(t, "HTTP/1.1 200", status)
		assert.Equal(t, "<html><body style='filter: blur(2px)' class='x'>hello</body></html>", body)
	})

	t.Run("UnreachableIs502", func(t *testing.T) {
		h := NewFetchHandler(FetchConfig{Scheme: "http", Timeout: time.Second})
		raw := serve(t, h, getRequest, route.Params{"url": "127.0.0.1:1"})
		assert.Equal(t, "HTTP/1.1 502\r\n\r\n502 Bad Gateway", raw)
	})

	t.Run("BodyLimit", func(t *testing.T) {
		h := NewFetchHandler(FetchConfig{Scheme: "http", MaxBytes: 16})
		raw := serve(t, h, getRequest, route.Params{"url": host + "/big"})
		assert.Equal(t, "HTTP/1.1 502\r\n\r\n502 Bad Gateway", raw)
	})

	t.Run("AllowedHosts", func(t *testing.T) {
		h := NewFetchHandler(FetchConfig{Scheme: "http", AllowedHosts: []string{"example.com"}})
		raw := serve(t, h, getRequest, route.Params{"url": host})
		assert.Equal(t, "HTTP/1.1 502\r\n\r\n502 Bad Gateway", raw)

		h = NewFetchHandler(FetchConfig{Scheme: "http", AllowedHosts: []string{"127.0.0.1"}})
		status, _ := splitResponse(t, serve(t, h, getRequest, route.Params{"url": host}))
		assert.Equal(t, "HTTP/1.1 200", status)
	})

	t.Run("RateLimited", func(t *testing.T) {
		limiter := ratelimiter.New(0.01, 1)
		require.True(t, limiter.Allow())

		h := NewFetchHandler(FetchConfig{Scheme: "http", Timeout: 50 * time.Millisecond, Limiter: limiter})
		raw := serve(t, h, getRequest, route.Params{"url": host})
		assert.Equal(t, "HTTP/1.1 502\r\n\r\n502 Bad Gateway", raw)
	})
}
