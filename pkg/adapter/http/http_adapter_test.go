package http

import (
	"context"
	"io"
	"net"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/marmos91/dittoweb/pkg/route"
	"github.com/marmos91/dittoweb/pkg/workerpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// startAdapter runs an adapter on a free loopback port and returns its address
// plus a function that stops it and returns Serve's result.
func startAdapter(t *testing.T, a *HTTPAdapter) (string, func() error) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	serverDone := make(chan error, 1)
	go func() {
		serverDone <- a.Serve(ctx)
	}()

	select {
	case <-a.Ready():
	case err := <-serverDone:
		cancel()
		t.Fatalf("Serve returned before listening: %v", err)
	case <-time.After(2 * time.Second):
		cancel()
		t.Fatal("listener did not start")
	}
	require.NotZero(t, a.Port())

	addr := net.JoinHostPort("127.0.0.1", strconv.Itoa(a.Port()))
	return addr, func() error {
		cancel()
		select {
		case err := <-serverDone:
			return err
		case <-time.After(5 * time.Second):
			t.Fatal("Serve did not return after cancel")
			return nil
		}
	}
}

func roundTrip(t *testing.T, addr, raw string) string {
	t.Helper()
	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.SetDeadline(time.Now().Add(5*time.Second)))
	_, err = io.WriteString(conn, raw)
	require.NoError(t, err)

	data, err := io.ReadAll(conn)
	require.NoError(t, err)
	return string(data)
}

func TestAdapterServesRequests(t *testing.T) {
	pool := workerpool.New(4)
	defer pool.Close()

	a := New(HTTPConfig{Port: -1, MetricsLogInterval: -1}, newTestTree(), pool, Statics{Serve: true, Store: newTestStore(t)})
	addr, stop := startAdapter(t, a)

	t.Run("File", func(t *testing.T) {
		assert.Equal(t, contentResponse("text/html", "<h1>home</h1>"), roundTrip(t, addr, get("/")))
	})

	t.Run("Handler", func(t *testing.T) {
		assert.Equal(t, "params:9", roundTrip(t, addr, get("/api/user/9")))
	})

	t.Run("NotFound", func(t *testing.T) {
		assert.Equal(t, contentResponse("text/html", "<h1>not found</h1>"), roundTrip(t, addr, get("/nope")))
	})

	t.Run("ConcurrentClients", func(t *testing.T) {
		done := make(chan string, 20)
		for i := 0; i < 20; i++ {
			go func(i int) {
				conn, err := net.Dial("tcp", addr)
				if err != nil {
					done <- err.Error()
					return
				}
				defer conn.Close()
				_ = conn.SetDeadline(time.Now().Add(5 * time.Second))
				_, _ = io.WriteString(conn, get("/api/user/"+strconv.Itoa(i)))
				data, _ := io.ReadAll(conn)
				done <- string(data)
			}(i)
		}

		seen := map[string]bool{}
		for i := 0; i < 20; i++ {
			seen[<-done] = true
		}
		for i := 0; i < 20; i++ {
			assert.True(t, seen["params:"+strconv.Itoa(i)], "missing response for %d", i)
		}
	})

	assert.NoError(t, stop())
	assert.Equal(t, int32(0), a.GetActiveConnections())
}

func TestAdapterSurvivesHandlerPanic(t *testing.T) {
	var panics atomic.Int32
	pool := workerpool.New(1, workerpool.WithPanicHandler(func(any, []byte) {
		panics.Add(1)
	}))
	defer pool.Close()

	tree := route.NewTree("",
		route.NewEndpoint("boom", route.HandleFunc(route.MethodGet, func(context.Context, net.Conn, string, route.Params) {
			panic("handler fault")
		})),
		route.NewEndpoint("ok", route.HandleFunc(route.MethodGet, func(_ context.Context, conn net.Conn, _ string, _ route.Params) {
			_, _ = io.WriteString(conn, "ok")
		})),
	)

	a := New(HTTPConfig{Port: -1, MetricsLogInterval: -1}, tree, pool, Statics{Store: newTestStore(t)})
	addr, stop := startAdapter(t, a)

	// The panicking connection is still closed, so the client sees EOF.
	assert.Equal(t, "", roundTrip(t, addr, get("/boom")))
	assert.Equal(t, "ok", roundTrip(t, addr, get("/ok")))
	assert.Equal(t, int32(1), panics.Load())
	assert.Equal(t, 1, pool.Stats().Workers)

	assert.NoError(t, stop())
}

func TestAdapterGracefulShutdown(t *testing.T) {
	pool := workerpool.New(2)
	defer pool.Close()

	release := make(chan struct{})
	tree := route.NewTree("",
		route.NewEndpoint("slow", route.HandleFunc(route.MethodGet, func(_ context.Context, conn net.Conn, _ string, _ route.Params) {
			<-release
			_, _ = io.WriteString(conn, "done")
		})),
	)

	a := New(HTTPConfig{Port: -1, ShutdownTimeout: 5 * time.Second, MetricsLogInterval: -1}, tree, pool, Statics{Store: newTestStore(t)})
	addr, stop := startAdapter(t, a)

	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetDeadline(time.Now().Add(5*time.Second)))
	_, err = io.WriteString(conn, get("/slow"))
	require.NoError(t, err)

	response := make(chan string, 1)
	go func() {
		data, _ := io.ReadAll(conn)
		response <- string(data)
	}()

	require.Eventually(t, func() bool { return a.GetActiveConnections() == 1 }, 2*time.Second, 10*time.Millisecond)

	stopped := make(chan error, 1)
	go func() { stopped <- stop() }()

	// In-flight work finishes before Serve returns.
	time.Sleep(50 * time.Millisecond)
	close(release)

	assert.Equal(t, "done", <-response)
	assert.NoError(t, <-stopped)

	_, err = net.DialTimeout("tcp", addr, 200*time.Millisecond)
	assert.Error(t, err, "listener still accepting after shutdown")
}

func TestAdapterForcedConnectionClosure(t *testing.T) {
	pool := workerpool.New(1)
	defer pool.Close()

	a := New(HTTPConfig{Port: -1, ShutdownTimeout: 200 * time.Millisecond, MetricsLogInterval: -1},
		newTestTree(), pool, Statics{Store: newTestStore(t)})
	addr, stop := startAdapter(t, a)

	// A client that never sends occupies its worker; there is no read deadline.
	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return a.GetActiveConnections() == 1 }, 2*time.Second, 10*time.Millisecond)

	closed := make(chan struct{})
	go func() {
		buf := make([]byte, 1)
		_, _ = conn.Read(buf)
		close(closed)
	}()

	assert.Error(t, stop(), "expected force-close error")

	select {
	case <-closed:
	case <-time.After(2 * time.Second):
		t.Error("connection was not force-closed")
	}
}

func TestAdapterReadTimeout(t *testing.T) {
	pool := workerpool.New(1)
	defer pool.Close()

	a := New(HTTPConfig{Port: -1, ReadTimeout: 100 * time.Millisecond, MetricsLogInterval: -1},
		newTestTree(), pool, Statics{Store: newTestStore(t)})
	addr, stop := startAdapter(t, a)

	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))

	// The server gives up on the silent client and closes without a response.
	data, err := io.ReadAll(conn)
	require.NoError(t, err)
	assert.Empty(t, data)

	assert.NoError(t, stop())
}

func TestAdapterStopBeforeServe(t *testing.T) {
	pool := workerpool.New(1)
	defer pool.Close()

	a := New(HTTPConfig{Port: -1}, newTestTree(), pool, Statics{Store: newTestStore(t)})
	require.NoError(t, a.Stop(context.Background()))
	assert.NoError(t, a.Serve(context.Background()))
}

func TestNewAppliesDefaults(t *testing.T) {
	pool := workerpool.New(1)
	defer pool.Close()

	a := New(HTTPConfig{}, newTestTree(), pool, Statics{Store: newTestStore(t)})
	assert.Equal(t, DefaultPort, a.Port())
	assert.Equal(t, "127.0.0.1:8081", a.config.Address())
	assert.Equal(t, DefaultReadBufferSize, a.config.ReadBufferSize)
	assert.Equal(t, "HTTP", a.Protocol())

	assert.Panics(t, func() { New(HTTPConfig{ReadTimeout: -1}, newTestTree(), pool, Statics{Store: newTestStore(t)}) })
	assert.Panics(t, func() { New(HTTPConfig{}, newTestTree(), nil, Statics{Store: newTestStore(t)}) })
}
