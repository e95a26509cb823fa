// Package memory implements an in-memory static content store.
package memory

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/marmos91/dittoweb/pkg/content"
)

// MemoryContentStore implements content.WritableContentStore with a map.
//
// Intended for tests, demos and small embedded sites. Data is lost on restart.
//
// Thread Safety:
// Protected by a sync.RWMutex. Data is copied on write and readers get their
// own view, so callers may reuse their buffers.
type MemoryContentStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryContentStore creates an empty store.
func NewMemoryContentStore() *MemoryContentStore {
	return &MemoryContentStore{
		data: make(map[string][]byte),
	}
}

// NewMemoryContentStoreFrom creates a store seeded with files keyed by path.
// Keys are cleaned with content.CleanPath.
func NewMemoryContentStoreFrom(files map[string][]byte) (*MemoryContentStore, error) {
	s := NewMemoryContentStore()
	for p, data := range files {
		if err := s.WriteContent(context.Background(), p, data); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Name implements content.ContentStore.
func (s *MemoryContentStore) Name() string {
	return "memory"
}

func (s *MemoryContentStore) lookup(p string) ([]byte, error) {
	key, err := content.CleanPath(p)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	data, exists := s.data[key]
	if !exists {
		return nil, fmt.Errorf("content %s: %w", p, content.ErrContentNotFound)
	}
	return data, nil
}

// ReadContent returns a reader over the stored bytes. Closing is a no-op.
func (s *MemoryContentStore) ReadContent(ctx context.Context, p string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := s.lookup(p)
	if err != nil {
		return nil, err
	}

	// Stored slices are never mutated in place, so sharing them is safe.
	return io.NopCloser(bytes.NewReader(data)), nil
}

// GetContentSize returns the stored length.
func (s *MemoryContentStore) GetContentSize(ctx context.Context, p string) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	data, err := s.lookup(p)
	if err != nil {
		return 0, err
	}
	return uint64(len(data)), nil
}

// ContentExists reports whether p is stored.
func (s *MemoryContentStore) ContentExists(ctx context.Context, p string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	_, err := s.lookup(p)
	return err == nil, nil
}

// WriteContent stores a copy of data at p.
func (s *MemoryContentStore) WriteContent(ctx context.Context, p string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	key, err := content.CleanPath(p)
	if err != nil {
		return err
	}

	buf := make([]byte, len(data))
	copy(buf, data)

	s.mu.Lock()
	s.data[key] = buf
	s.mu.Unlock()
	return nil
}

// Delete removes p. Missing keys are not an error.
func (s *MemoryContentStore) Delete(ctx context.Context, p string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	key, err := content.CleanPath(p)
	if err != nil {
		return err
	}

	s.mu.Lock()
	delete(s.data, key)
	s.mu.Unlock()
	return nil
}

// Keys returns every stored key in lexical order.
func (s *MemoryContentStore) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
