// Package users defines the document store behind the demo user handlers.
package users

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"
)

var (
	// ErrUserNotFound is returned when no user has the requested ID.
	ErrUserNotFound = errors.New("user not found")

	// ErrInvalidName is returned when inserting a user with a blank name.
	ErrInvalidName = errors.New("user name must not be empty")
)

// User is one stored document.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Store persists users.
//
// Thread Safety:
// Implementations must be safe for concurrent use; every worker may call them.
type Store interface {
	// Insert stores a new user with a fresh ID and returns it.
	Insert(ctx context.Context, name string) (*User, error)

	// Get returns the user with id, or ErrUserNotFound.
	Get(ctx context.Context, id string) (*User, error)

	// List returns all users ordered by creation time, oldest first.
	List(ctx context.Context) ([]*User, error)

	// Delete removes the user with id. Returns ErrUserNotFound if absent.
	Delete(ctx context.Context, id string) error

	// Close releases the backend.
	Close() error
}

// NormalizeName trims name and rejects blank names.
func NormalizeName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrInvalidName
	}
	return name, nil
}

// SortByCreation orders users oldest first, breaking ties by ID.
func SortByCreation(list []*User) {
	sort.Slice(list, func(i, j int) bool {
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.Before(list[j].CreatedAt)
		}
		return list[i].ID < list[j].ID
	})
}
