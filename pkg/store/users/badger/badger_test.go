package badger

import (
	"context"
	"testing"

	"github.com/marmos91/dittoweb/pkg/store/users"
	userstesting "github.com/marmos91/dittoweb/pkg/store/users/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBadgerUserStore(t *testing.T) {
	suite := &userstesting.StoreTestSuite{
		NewStore: func(t *testing.T) users.Store {
			store, err := NewBadgerUserStore(context.Background(), BadgerUserStoreConfig{DBPath: t.TempDir()})
			require.NoError(t, err)
			return store
		},
	}

	suite.Run(t)
}

func TestBadgerUserStorePersists(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	store, err := NewBadgerUserStore(ctx, BadgerUserStoreConfig{DBPath: dir})
	require.NoError(t, err)
	u, err := store.Insert(ctx, "Bob")
	require.NoError(t, err)
	require.NoError(t, store.Close())

	reopened, err := NewBadgerUserStore(ctx, BadgerUserStoreConfig{DBPath: dir})
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.Get(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Bob", got.Name)
	assert.True(t, u.CreatedAt.Equal(got.CreatedAt))
}

func TestNewBadgerUserStoreRequiresPath(t *testing.T) {
	_, err := NewBadgerUserStore(context.Background(), BadgerUserStoreConfig{})
	assert.Error(t, err)

	mem, err := NewBadgerUserStore(context.Background(), BadgerUserStoreConfig{InMemory: true})
	require.NoError(t, err)
	assert.NoError(t, mem.Close())
}
