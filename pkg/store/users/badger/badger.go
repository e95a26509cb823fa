// Package badger implements a persistent users store on BadgerDB.
package badger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"github.com/google/uuid"
	"github.com/marmos91/dittoweb/internal/logger"
	"github.com/marmos91/dittoweb/pkg/store/users"
)

// Key Namespace:
//
// Data Type   Prefix   Key Format    Value Type
// ================================================
// User        "u:"     u:<uuid>      User (JSON)
const prefixUser = "u:"

func keyUser(id string) []byte {
	return []byte(prefixUser + id)
}

// BadgerUserStore stores one JSON document per user.
//
// Thread Safety:
// Safe for concurrent use; BadgerDB transactions provide isolation.
type BadgerUserStore struct {
	db  *badger.DB
	now func() time.Time
}

// BadgerUserStoreConfig configures the store.
type BadgerUserStoreConfig struct {
	// DBPath is the database directory. Created if missing.
	DBPath string

	// InMemory runs badger without touching disk (tests).
	InMemory bool

	// BadgerOptions overrides every other option when set.
	BadgerOptions *badger.Options
}

// NewBadgerUserStore opens (or creates) the database.
func NewBadgerUserStore(ctx context.Context, cfg BadgerUserStoreConfig) (*BadgerUserStore, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var opts badger.Options
	if cfg.BadgerOptions != nil {
		opts = *cfg.BadgerOptions
	} else {
		if cfg.DBPath == "" && !cfg.InMemory {
			return nil, fmt.Errorf("badger db path is required")
		}
		opts = badger.DefaultOptions(cfg.DBPath)
		if cfg.InMemory {
			opts = badger.DefaultOptions("").WithInMemory(true)
		}
		opts = opts.WithLoggingLevel(badger.WARNING)
		opts = opts.WithCompression(options.None)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open BadgerDB at %s: %w", cfg.DBPath, err)
	}

	logger.Debug("Users store opened: badger path=%q in_memory=%v", cfg.DBPath, cfg.InMemory)

	return &BadgerUserStore{db: db, now: time.Now}, nil
}

func encodeUser(u *users.User) ([]byte, error) {
	data, err := json.Marshal(u)
	if err != nil {
		return nil, fmt.Errorf("failed to encode user: %w", err)
	}
	return data, nil
}

func decodeUser(data []byte) (*users.User, error) {
	var u users.User
	if err := json.Unmarshal(data, &u); err != nil {
		return nil, fmt.Errorf("failed to decode user: %w", err)
	}
	return &u, nil
}

func (s *BadgerUserStore) Insert(ctx context.Context, name string) (*users.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	name, err := users.NormalizeName(name)
	if err != nil {
		return nil, err
	}

	u := &users.User{
		ID:        uuid.NewString(),
		Name:      name,
		CreatedAt: s.now().UTC(),
	}

	data, err := encodeUser(u)
	if err != nil {
		return nil, err
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(keyUser(u.ID), data)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}
	return u, nil
}

func (s *BadgerUserStore) Get(ctx context.Context, id string) (*users.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var u *users.User
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(keyUser(id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("user %s: %w", id, users.ErrUserNotFound)
		}
		if err != nil {
			return fmt.Errorf("failed to get user: %w", err)
		}

		return item.Value(func(val []byte) error {
			decoded, err := decodeUser(val)
			if err != nil {
				return err
			}
			u = decoded
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (s *BadgerUserStore) List(ctx context.Context) ([]*users.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var list []*users.User
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefixUser)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			err := it.Item().Value(func(val []byte) error {
				u, err := decodeUser(val)
				if err != nil {
					return err
				}
				list = append(list, u)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	users.SortByCreation(list)
	return list, nil
}

func (s *BadgerUserStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(keyUser(id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("user %s: %w", id, users.ErrUserNotFound)
		}
		if err != nil {
			return fmt.Errorf("failed to get user: %w", err)
		}
		return txn.Delete(keyUser(id))
	})
}

// Close closes the database.
func (s *BadgerUserStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close BadgerDB: %w", err)
	}
	return nil
}
