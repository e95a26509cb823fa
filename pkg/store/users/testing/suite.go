// Package testing provides a reusable contract test suite for users stores.
package testing

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/marmos91/dittoweb/pkg/store/users"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// StoreTestSuite tests the users.Store contract against any backend.
type StoreTestSuite struct {
	// NewStore creates a fresh, empty store for each test. The suite closes it.
	NewStore func(t *testing.T) users.Store
}

// Run executes all tests in the suite.
func (suite *StoreTestSuite) Run(t *testing.T) {
	t.Run("InsertAndGet", suite.testInsertAndGet)
	t.Run("ListOrder", suite.testListOrder)
	t.Run("Delete", suite.testDelete)
	t.Run("RejectsBlankNames", suite.testRejectsBlankNames)
	t.Run("ConcurrentInserts", suite.testConcurrentInserts)
}

func (suite *StoreTestSuite) open(t *testing.T) users.Store {
	t.Helper()
	store := suite.NewStore(t)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func (suite *StoreTestSuite) testInsertAndGet(t *testing.T) {
	ctx := context.Background()
	store := suite.open(t)

	u, err := store.Insert(ctx, "  Bob ")
	require.NoError(t, err)
	assert.NotEmpty(t, u.ID)
	assert.Equal(t, "Bob", u.Name)
	assert.False(t, u.CreatedAt.IsZero())

	got, err := store.Get(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, "Bob", got.Name)

	_, err = store.Get(ctx, "nope")
	assert.ErrorIs(t, err, users.ErrUserNotFound)
}

func (suite *StoreTestSuite) testListOrder(t *testing.T) {
	ctx := context.Background()
	store := suite.open(t)

	empty, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, empty)

	for _, name := range []string{"ada", "linus", "grace"} {
		_, err := store.Insert(ctx, name)
		require.NoError(t, err)
	}

	list, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	for i := 1; i < len(list); i++ {
		assert.False(t, list[i].CreatedAt.Before(list[i-1].CreatedAt), "oldest first")
	}
}

func (suite *StoreTestSuite) testDelete(t *testing.T) {
	ctx := context.Background()
	store := suite.open(t)

	u, err := store.Insert(ctx, "temp")
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, u.ID))
	_, err = store.Get(ctx, u.ID)
	assert.ErrorIs(t, err, users.ErrUserNotFound)
	assert.ErrorIs(t, store.Delete(ctx, u.ID), users.ErrUserNotFound)
}

func (suite *StoreTestSuite) testRejectsBlankNames(t *testing.T) {
	store := suite.open(t)
	_, err := store.Insert(context.Background(), "   ")
	assert.ErrorIs(t, err, users.ErrInvalidName)
}

func (suite *StoreTestSuite) testConcurrentInserts(t *testing.T) {
	ctx := context.Background()
	store := suite.open(t)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := store.Insert(ctx, fmt.Sprintf("user-%d", i))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	list, err := store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 20)
}
