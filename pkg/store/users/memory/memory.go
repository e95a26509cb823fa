// Package memory implements an in-memory users store.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/marmos91/dittoweb/pkg/store/users"
)

// MemoryUserStore keeps users in a map guarded by a RWMutex. Data is lost on
// restart.
type MemoryUserStore struct {
	mu    sync.RWMutex
	users map[string]users.User
	now   func() time.Time
}

// NewMemoryUserStore creates an empty store.
func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{
		users: make(map[string]users.User),
		now:   time.Now,
	}
}

func (s *MemoryUserStore) Insert(ctx context.Context, name string) (*users.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	name, err := users.NormalizeName(name)
	if err != nil {
		return nil, err
	}

	u := users.User{
		ID:        uuid.NewString(),
		Name:      name,
		CreatedAt: s.now().UTC(),
	}

	s.mu.Lock()
	s.users[u.ID] = u
	s.mu.Unlock()

	return &u, nil
}

func (s *MemoryUserStore) Get(ctx context.Context, id string) (*users.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	u, ok := s.users[id]
	s.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("user %s: %w", id, users.ErrUserNotFound)
	}
	return &u, nil
}

func (s *MemoryUserStore) List(ctx context.Context) ([]*users.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	list := make([]*users.User, 0, len(s.users))
	for _, u := range s.users {
		u := u
		list = append(list, &u)
	}
	s.mu.RUnlock()

	users.SortByCreation(list)
	return list, nil
}

func (s *MemoryUserStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[id]; !ok {
		return fmt.Errorf("user %s: %w", id, users.ErrUserNotFound)
	}
	delete(s.users, id)
	return nil
}

// Close is a no-op.
func (s *MemoryUserStore) Close() error {
	return nil
}
