package http

import (
	"context"
	"io"
	"net"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/marmos91/dittoweb/pkg/content/memory"
	"github.com/marmos91/dittoweb/pkg/route"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// Test Helpers
// ============================================================================

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

func newTestStore(t *testing.T) *memory.MemoryContentStore {
	t.Helper()
	store, err := memory.NewMemoryContentStoreFrom(map[string][]byte{
		"index.html":  []byte("<h1>home</h1>"),
		"404.html":    []byte("<h1>not found</h1>"),
		"about.html":  []byte("<h1>about</h1>"),
		"notes.txt":   []byte("plain notes"),
		"logo":        pngHeader,
		"css/app.css": []byte("body{}"),
	})
	require.NoError(t, err)
	return store
}

func echoParams(_ context.Context, conn net.Conn, _ string, params route.Params) {
	_, _ = io.WriteString(conn, "params:"+params["id"])
}

func newTestTree() *route.Tree {
	return route.NewTree("",
		route.NewEndpoint("", route.File("index.html")),
		route.NewStack("/", route.NewEndpoint("about", route.File("about.html"))),
		route.NewStack("/", route.NewEndpoint("gone", route.File("gone.html"))),
		route.NewStack("/api", route.NewEndpoint("user/:id", route.HandleFunc(route.MethodGet, echoParams))),
	)
}

// dispatch runs d.Dispatch over a pipe and returns the outcome and response.
func dispatch(t *testing.T, d *Dispatcher, raw string) (Outcome, string) {
	t.Helper()
	server, client := net.Pipe()

	outcome := make(chan Outcome, 1)
	go func() {
		outcome <- d.Dispatch(context.Background(), server, raw)
		_ = server.Close()
	}()

	data, err := io.ReadAll(client)
	require.NoError(t, err)
	return <-outcome, string(data)
}

func contentResponse(contentType, body string) string {
	return "HTTP/1.1 200\r\nContent-Length: " + strconv.Itoa(len(body)) + "\r\nContent-Type: " + contentType + "\r\n\r\n" + body
}

func get(path string) string {
	return "GET " + path + " HTTP/1.1\r\nHost: localhost\r\n\r\n"
}

// ============================================================================
// Dispatch Tests
// ============================================================================

func TestDispatchRoutes(t *testing.T) {
	d := NewDispatcher(newTestTree(), Statics{Serve: true, Store: newTestStore(t)})

	tests := []struct {
		name    string
		raw     string
		outcome Outcome
		want    string
	}{
		{"RootFile", get("/"), OutcomeFile, contentResponse("text/html", "<h1>home</h1>")},
		{"RoutedFile", get("/about"), OutcomeFile, contentResponse("text/html", "<h1>about</h1>")},
		{"Handler", get("/api/user/42"), OutcomeHandler, "params:42"},
		{"MethodMismatch", "POST /api/user/42 HTTP/1.1\r\n\r\n", OutcomeNotFound, contentResponse("text/html", "<h1>not found</h1>")},
		{"UnrecognizedMethod", "DELETE /about HTTP/1.1\r\n\r\n", OutcomeNotFound, contentResponse("text/html", "<h1>not found</h1>")},
		{"Unmatched", get("/nowhere"), OutcomeNotFound, contentResponse("text/html", "<h1>not found</h1>")},
		{"Malformed", "garbage", OutcomeMalformed, contentResponse("text/html", "<h1>not found</h1>")},
		{"StaticFirst", get("/notes.txt"), OutcomeStatic, contentResponse("text/plain", "plain notes")},
		{"StaticNested", get("/css/app.css"), OutcomeStatic, contentResponse("text/plain", "body{}")},
		{"MissingRoutedFile", get("/gone"), OutcomeFile, contentResponse("text/plain", `File not found: "gone.html"`)},
		{"DoubledSlashes", get("//api//user/7/"), OutcomeHandler, "params:7"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outcome, resp := dispatch(t, d, tt.raw)
			assert.Equal(t, tt.outcome, outcome)
			assert.Equal(t, tt.want, resp)
		})
	}
}

func TestDispatchStaticsDisabled(t *testing.T) {
	d := NewDispatcher(newTestTree(), Statics{Serve: false, Store: newTestStore(t)})

	outcome, resp := dispatch(t, d, get("/notes.txt"))
	assert.Equal(t, OutcomeNotFound, outcome)
	assert.Equal(t, contentResponse("text/html", "<h1>not found</h1>"), resp)
}

func TestDispatchStaticIgnoresTraversal(t *testing.T) {
	d := NewDispatcher(newTestTree(), Statics{Serve: true, Store: newTestStore(t)})

	outcome, _ := dispatch(t, d, get("/../index.html"))
	assert.Equal(t, OutcomeNotFound, outcome)
}

func TestDispatchCustomNotFound(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.WriteContent(context.Background(), "missing.html", []byte("custom")))

	tree := route.NewTree("missing.html", route.NewEndpoint("*", route.Unmatched))
	d := NewDispatcher(tree, Statics{Store: store})

	t.Run("RecordedFallback", func(t *testing.T) {
		outcome, resp := dispatch(t, d, get("/anything"))
		assert.Equal(t, OutcomeFile, outcome)
		assert.Equal(t, contentResponse("text/html", "custom"), resp)
	})

	t.Run("UnrecognizedUsesSameFile", func(t *testing.T) {
		_, resp := dispatch(t, d, "PATCH / HTTP/1.1\r\n\r\n")
		assert.Equal(t, contentResponse("text/html", "custom"), resp)
	})

	t.Run("MissingNotFoundFile", func(t *testing.T) {
		d := NewDispatcher(route.NewTree(""), Statics{Store: memory.NewMemoryContentStore()})
		_, resp := dispatch(t, d, get("/x"))
		assert.Equal(t, contentResponse("text/plain", `File not found: "404.html"`), resp)
	})
}

func TestDispatchSniff(t *testing.T) {
	store := newTestStore(t)

	t.Run("Disabled", func(t *testing.T) {
		d := NewDispatcher(newTestTree(), Statics{Serve: true, Store: store})
		_, resp := dispatch(t, d, get("/logo"))
		assert.True(t, strings.Contains(resp, "Content-Type: text/plain\r\n"), resp)
	})

	t.Run("Enabled", func(t *testing.T) {
		d := NewDispatcher(newTestTree(), Statics{Serve: true, Sniff: true, Store: store})
		_, resp := dispatch(t, d, get("/logo"))
		assert.True(t, strings.Contains(resp, "Content-Type: image/png\r\n"), resp)
	})
}

func TestDispatchOnConnect(t *testing.T) {
	var (
		mu   sync.Mutex
		seen []string
	)
	d := NewDispatcher(newTestTree(), Statics{Store: newTestStore(t)},
		WithOnConnect(func(_ context.Context, raw string) {
			mu.Lock()
			defer mu.Unlock()
			seen = append(seen, raw)
		}))

	dispatch(t, d, get("/about"))
	dispatch(t, d, "garbage")

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{get("/about"), "garbage"}, seen)
}

func TestServeConnReadsOnce(t *testing.T) {
	d := NewDispatcher(newTestTree(), Statics{Store: newTestStore(t)})
	server, client := net.Pipe()

	go func() {
		d.ServeConn(context.Background(), server, 16)
		_ = server.Close()
	}()

	// Only the first 16 bytes are read; the request line still parses.
	go func() {
		_, _ = io.WriteString(client, get("/about"))
	}()

	data, err := io.ReadAll(client)
	require.NoError(t, err)
	assert.Equal(t, contentResponse("text/html", "<h1>about</h1>"), string(data))
}

func TestNewDispatcherPanics(t *testing.T) {
	assert.Panics(t, func() { NewDispatcher(nil, Statics{Store: memory.NewMemoryContentStore()}) })
	assert.Panics(t, func() { NewDispatcher(newTestTree(), Statics{}) })
}
