package server

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAdapter blocks in Serve until ctx is done or fail is closed.
type fakeAdapter struct {
	protocol string
	port     int
	serveErr error
	fail     chan struct{}

	mu      sync.Mutex
	stopped int
	order   *[]string
}

func newFakeAdapter(protocol string, port int, order *[]string) *fakeAdapter {
	return &fakeAdapter{protocol: protocol, port: port, fail: make(chan struct{}), order: order}
}

func (f *fakeAdapter) Serve(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return nil
	case <-f.fail:
		return f.serveErr
	}
}

func (f *fakeAdapter) Stop(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped++
	if f.order != nil {
		*f.order = append(*f.order, f.protocol)
	}
	return nil
}

func (f *fakeAdapter) Protocol() string { return f.protocol }
func (f *fakeAdapter) Port() int        { return f.port }

func (f *fakeAdapter) stopCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stopped
}

func TestAddAdapterConflicts(t *testing.T) {
	s := New(0)
	require.NoError(t, s.AddAdapter(newFakeAdapter("HTTP", 8081, nil)))

	assert.Error(t, s.AddAdapter(newFakeAdapter("HTTP", 8082, nil)), "duplicate protocol")
	assert.Error(t, s.AddAdapter(newFakeAdapter("OTHER", 8081, nil)), "duplicate port")
	assert.NoError(t, s.AddAdapter(newFakeAdapter("ANY", 0, nil)))
	assert.Len(t, s.Adapters(), 2)

	assert.Panics(t, func() { _ = s.AddAdapter(nil) })
}

func TestServeWithoutAdapters(t *testing.T) {
	assert.Error(t, New(0).Serve(context.Background()))
}

func TestServeStopsOnCancelInReverseOrder(t *testing.T) {
	var order []string
	first := newFakeAdapter("A", 1, &order)
	second := newFakeAdapter("B", 2, &order)

	s := New(time.Second)
	require.NoError(t, s.AddAdapter(first))
	require.NoError(t, s.AddAdapter(second))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return")
	}

	assert.Equal(t, []string{"B", "A"}, order)

	t.Run("SecondServeFails", func(t *testing.T) {
		assert.Error(t, s.Serve(context.Background()))
	})

	t.Run("AddAfterServePanics", func(t *testing.T) {
		assert.Panics(t, func() { _ = s.AddAdapter(newFakeAdapter("C", 3, nil)) })
	})
}

func TestServeStopsAllOnAdapterFailure(t *testing.T) {
	failing := newFakeAdapter("A", 1, nil)
	failing.serveErr = errors.New("bind failed")
	healthy := newFakeAdapter("B", 2, nil)

	s := New(time.Second)
	require.NoError(t, s.AddAdapter(failing))
	require.NoError(t, s.AddAdapter(healthy))

	done := make(chan error, 1)
	go func() { done <- s.Serve(context.Background()) }()

	close(failing.fail)
	select {
	case err := <-done:
		require.Error(t, err)
		assert.ErrorIs(t, err, failing.serveErr)
		assert.Contains(t, err.Error(), "A adapter error")
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after adapter failure")
	}

	assert.Equal(t, 1, healthy.stopCount())
}
