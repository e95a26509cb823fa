// Package testing provides a reusable contract test suite for content stores.
package testing

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/marmos91/dittoweb/pkg/content"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// StoreTestSuite tests the content.WritableContentStore contract, not
// implementation details, so it runs unchanged against every backend.
//
// Usage:
//
//	func TestMyContentStore(t *testing.T) {
//	    suite := &contenttesting.StoreTestSuite{
//	        NewStore: func(t *testing.T) content.WritableContentStore {
//	            return mystore.New()
//	        },
//	    }
//	    suite.Run(t)
//	}
type StoreTestSuite struct {
	// NewStore creates a fresh, empty store for each test.
	NewStore func(t *testing.T) content.WritableContentStore
}

// Run executes all tests in the suite.
func (suite *StoreTestSuite) Run(t *testing.T) {
	t.Run("ReadWrite", suite.testReadWrite)
	t.Run("NotFound", suite.testNotFound)
	t.Run("Overwrite", suite.testOverwrite)
	t.Run("Delete", suite.testDelete)
	t.Run("NestedPaths", suite.testNestedPaths)
	t.Run("RejectsTraversal", suite.testRejectsTraversal)
	t.Run("CancelledContext", suite.testCancelledContext)
}

func testContext() context.Context {
	return context.Background()
}

// AssertErrorIs checks if the error matches the expected error using errors.Is.
func AssertErrorIs(t *testing.T, expected error, actual error) {
	t.Helper()
	if !errors.Is(actual, expected) {
		t.Errorf("Expected error %v, got %v", expected, actual)
	}
}

func mustWrite(t *testing.T, store content.WritableContentStore, p string, data []byte) {
	t.Helper()
	require.NoError(t, store.WriteContent(testContext(), p, data), "WriteContent should succeed")
}

func mustRead(t *testing.T, store content.ContentStore, p string) []byte {
	t.Helper()
	reader, err := store.ReadContent(testContext(), p)
	require.NoError(t, err, "ReadContent should succeed")
	defer reader.Close()

	data, err := io.ReadAll(reader)
	require.NoError(t, err, "Reading content should succeed")
	return data
}

func (suite *StoreTestSuite) testReadWrite(t *testing.T) {
	store := suite.NewStore(t)
	mustWrite(t, store, "index.html", []byte("<h1>hi</h1>"))

	assert.Equal(t, []byte("<h1>hi</h1>"), mustRead(t, store, "index.html"))
	assert.Equal(t, []byte("<h1>hi</h1>"), mustRead(t, store, "/index.html"), "leading slash is stripped")

	size, err := store.GetContentSize(testContext(), "index.html")
	require.NoError(t, err)
	assert.Equal(t, uint64(11), size)

	exists, err := store.ContentExists(testContext(), "index.html")
	require.NoError(t, err)
	assert.True(t, exists)

	data, err := content.ReadAll(testContext(), store, "index.html", 0)
	require.NoError(t, err)
	assert.Equal(t, "<h1>hi</h1>", string(data))

	_, err = content.ReadAll(testContext(), store, "index.html", 4)
	AssertErrorIs(t, content.ErrTooLarge, err)
}

func (suite *StoreTestSuite) testNotFound(t *testing.T) {
	store := suite.NewStore(t)

	_, err := store.ReadContent(testContext(), "missing.html")
	AssertErrorIs(t, content.ErrContentNotFound, err)

	_, err = store.GetContentSize(testContext(), "missing.html")
	AssertErrorIs(t, content.ErrContentNotFound, err)

	exists, err := store.ContentExists(testContext(), "missing.html")
	require.NoError(t, err)
	assert.False(t, exists)
}

func (suite *StoreTestSuite) testOverwrite(t *testing.T) {
	store := suite.NewStore(t)
	mustWrite(t, store, "a.txt", []byte("first version"))
	mustWrite(t, store, "a.txt", []byte("second"))

	assert.Equal(t, []byte("second"), mustRead(t, store, "a.txt"))
}

func (suite *StoreTestSuite) testDelete(t *testing.T) {
	store := suite.NewStore(t)
	mustWrite(t, store, "gone.txt", []byte("x"))

	require.NoError(t, store.Delete(testContext(), "gone.txt"))
	exists, err := store.ContentExists(testContext(), "gone.txt")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, store.Delete(testContext(), "gone.txt"), "deleting twice succeeds")
}

func (suite *StoreTestSuite) testNestedPaths(t *testing.T) {
	store := suite.NewStore(t)
	mustWrite(t, store, "img/icons/logo.svg", []byte("<svg/>"))

	assert.Equal(t, []byte("<svg/>"), mustRead(t, store, "img/icons/logo.svg"))
	assert.Equal(t, []byte("<svg/>"), mustRead(t, store, "img//icons/logo.svg"), "empty segments collapse")
}

func (suite *StoreTestSuite) testRejectsTraversal(t *testing.T) {
	store := suite.NewStore(t)

	for _, p := range []string{"../secret", "a/../../b", "//etc/passwd", "a\\b", "", "/"} {
		_, err := store.ReadContent(testContext(), p)
		AssertErrorIs(t, content.ErrInvalidPath, err)

		exists, err := store.ContentExists(testContext(), p)
		require.NoError(t, err)
		assert.False(t, exists, "path %q", p)

		AssertErrorIs(t, content.ErrInvalidPath, store.WriteContent(testContext(), p, []byte("x")))
	}
}

func (suite *StoreTestSuite) testCancelledContext(t *testing.T) {
	store := suite.NewStore(t)
	ctx, cancel := context.WithCancel(testContext())
	cancel()

	_, err := store.ReadContent(ctx, "index.html")
	AssertErrorIs(t, context.Canceled, err)

	_, err = store.ContentExists(ctx, "index.html")
	AssertErrorIs(t, context.Canceled, err)
}
