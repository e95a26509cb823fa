package framework

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/marmos91/dittoweb/internal/logger"
	httpadapter "github.com/marmos91/dittoweb/pkg/adapter/http"
	"github.com/marmos91/dittoweb/pkg/config"
	"github.com/marmos91/dittoweb/pkg/server"
)

// TestServerConfig holds configuration for the test server.
// This is distinct from pkg/config.ServerConfig (application-level server settings).
type TestServerConfig struct {
	// Files are written under the static directory before start (path -> body).
	Files map[string]string

	// Configure adjusts the generated config before the runtime is built.
	Configure func(cfg *config.Config)

	LogLevel       string
	StartupTimeout time.Duration
}

// TestServer runs a complete DittoWeb server (runtime, HTTP adapter and
// lifecycle manager) on an ephemeral port.
type TestServer struct {
	t         testing.TB
	config    TestServerConfig
	cfg       *config.Config
	runtime   *config.Runtime
	adapter   *httpadapter.HTTPAdapter
	server    *server.DittoWebServer
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	started   bool
	mu        sync.Mutex
	staticDir string
}

// NewTestServer creates a new test server instance. Stop is registered as a
// test cleanup.
func NewTestServer(t testing.TB, cfg TestServerConfig) *TestServer {
	t.Helper()

	if cfg.LogLevel == "" {
		cfg.LogLevel = "ERROR" // Keep tests quiet by default
	}
	if cfg.StartupTimeout == 0 {
		cfg.StartupTimeout = 10 * time.Second
	}

	staticDir := t.TempDir()
	for p, body := range cfg.Files {
		full := filepath.Join(staticDir, filepath.FromSlash(p))
		if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
			t.Fatalf("Failed to create static directory: %v", err)
		}
		if err := os.WriteFile(full, []byte(body), 0644); err != nil {
			t.Fatalf("Failed to write static file %s: %v", p, err)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())

	ts := &TestServer{
		t:         t,
		config:    cfg,
		ctx:       ctx,
		cancel:    cancel,
		staticDir: staticDir,
	}
	t.Cleanup(func() { _ = ts.Stop() })
	return ts
}

// Start builds the runtime from the default configuration and serves until
// Stop is called.
func (ts *TestServer) Start() error {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	if ts.started {
		return fmt.Errorf("server already started")
	}

	ts.t.Helper()

	logger.SetLevel(ts.config.LogLevel)

	cfg := config.GetDefaultConfig()
	cfg.Adapters.HTTP.Host = "127.0.0.1"
	cfg.Adapters.HTTP.Port = -1
	cfg.Adapters.HTTP.MetricsLogInterval = -1
	cfg.Adapters.HTTP.LogStatus = false
	cfg.Server.ShutdownTimeout = 5 * time.Second
	cfg.Statics.Store.Filesystem["path"] = ts.staticDir
	if ts.config.Configure != nil {
		ts.config.Configure(cfg)
	}
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid test config: %w", err)
	}
	ts.cfg = cfg

	rt, err := config.InitializeRuntime(ts.ctx, cfg)
	if err != nil {
		return err
	}

	adapters, err := config.CreateAdapters(cfg, rt)
	if err != nil {
		_ = rt.Close()
		return err
	}

	ts.server = server.New(cfg.Server.ShutdownTimeout)
	for _, a := range adapters {
		if err := ts.server.AddAdapter(a); err != nil {
			_ = rt.Close()
			return err
		}
		if h, ok := a.(*httpadapter.HTTPAdapter); ok {
			ts.adapter = h
		}
	}
	ts.runtime = rt

	ts.wg.Add(1)
	go func() {
		defer ts.wg.Done()
		if err := ts.server.Serve(ts.ctx); err != nil && !errors.Is(err, context.Canceled) {
			ts.t.Logf("Server error: %v", err)
		}
	}()

	select {
	case <-ts.adapter.Ready():
	case <-time.After(ts.config.StartupTimeout):
		ts.cancel()
		ts.wg.Wait()
		_ = rt.Close()
		return fmt.Errorf("timeout waiting for server to start")
	}

	ts.started = true
	ts.t.Logf("Server started successfully on port %d", ts.adapter.Port())
	return nil
}

// Stop cancels the server, waits for it and drains the runtime.
func (ts *TestServer) Stop() error {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	if !ts.started {
		return nil
	}

	ts.cancel()

	done := make(chan struct{})
	go func() {
		ts.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		ts.t.Logf("Server stop timeout - forcing shutdown")
	}

	ts.started = false
	return ts.runtime.Close()
}

// Addr returns host:port of the HTTP adapter.
func (ts *TestServer) Addr() string {
	return net.JoinHostPort("127.0.0.1", strconv.Itoa(ts.adapter.Port()))
}

// Config returns the configuration the server was started with.
func (ts *TestServer) Config() *config.Config {
	return ts.cfg
}

// StaticDir returns the directory served as statics.
func (ts *TestServer) StaticDir() string {
	return ts.staticDir
}

// Request writes raw to a fresh connection and returns everything read until
// the server closes it.
func (ts *TestServer) Request(raw string) (string, error) {
	conn, err := net.DialTimeout("tcp", ts.Addr(), 2*time.Second)
	if err != nil {
		return "", err
	}
	defer func() { _ = conn.Close() }()

	_ = conn.SetDeadline(time.Now().Add(10 * time.Second))
	if _, err := io.WriteString(conn, raw); err != nil {
		return "", err
	}
	resp, err := io.ReadAll(conn)
	return string(resp), err
}
