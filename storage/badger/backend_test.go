package badger

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/hwebs/content/core"
	"github.com/hwebs/content/storage"
	"github.com/hwebs/content/storage/storagetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepositories(t *testing.T) (storage.PostRepository, storage.CategoryRepository) {
	posts, categories, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })
	return posts, categories
}

func TestContract(t *testing.T) {
	storagetest.Run(t, newTestRepositories, storagetest.Options{
		EnforcesCategory:         true,
		RestrictsCategoryRemoval: false,
	})
}

func TestOpenBackend_InMemory(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	require.NotNil(t, backend)
	defer backend.Close()

	assert.False(t, backend.IsClosed())
}

func TestOpenBackend_FileSystem(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "store")
	backend, err := OpenBackend(dir, false)
	require.NoError(t, err)
	require.NotNil(t, backend)
	defer backend.Close()

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestOpenBackend_NotADirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "file.txt")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))

	_, err := OpenBackend(path, false)
	assert.Error(t, err)
}

func TestOpenBackend_RequiresDir(t *testing.T) {
	_, err := OpenBackend("", false)
	assert.Error(t, err)
}

func TestBackendClose(t *testing.T) {
	posts, _, backend, err := NewMemoryRepositories()
	require.NoError(t, err)

	require.NoError(t, backend.Close())
	assert.True(t, backend.IsClosed())
	require.NoError(t, backend.Close(), "second close is a no-op")

	_, err = posts.GetPost(context.Background(), "x")
	assert.ErrorIs(t, err, storage.ErrStorageClosed)
	assert.ErrorIs(t, backend.Reset(context.Background()), storage.ErrStorageClosed)
}

func TestReopenPersists(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	posts, categories, backend, err := NewRepositories(dir)
	require.NoError(t, err)
	c, err := categories.CreateCategory(ctx, "Music")
	require.NoError(t, err)
	p, err := posts.CreatePost(ctx, core.Post{Title: "t", Link: "l", Category: c.ID, Datetime: 7})
	require.NoError(t, err)
	require.NoError(t, backend.Close())

	posts, _, backend, err = NewRepositories(dir)
	require.NoError(t, err)
	defer backend.Close()

	got, err := posts.GetPost(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p, got)

	inMusic, err := posts.ListPosts(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, []*core.Post{p}, inMusic)
}

func TestReset(t *testing.T) {
	posts, categories, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer backend.Close()
	ctx := context.Background()

	c, err := categories.CreateCategory(ctx, "Music")
	require.NoError(t, err)
	_, err = posts.CreatePost(ctx, core.Post{Title: "t", Category: c.ID})
	require.NoError(t, err)

	require.NoError(t, backend.Reset(ctx))

	allPosts, err := posts.ListPosts(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, allPosts)

	inMusic, err := posts.ListPosts(ctx, c.ID)
	require.NoError(t, err)
	assert.Empty(t, inMusic)

	allCategories, err := categories.ListCategories(ctx)
	require.NoError(t, err)
	assert.Empty(t, allCategories)
}

func TestIndexFollowsPost(t *testing.T) {
	posts, categories, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer backend.Close()
	ctx := context.Background()

	code, err := categories.CreateCategory(ctx, "Code")
	require.NoError(t, err)
	games, err := categories.CreateCategory(ctx, "Games")
	require.NoError(t, err)

	p, err := posts.CreatePost(ctx, core.Post{Title: "t", Category: code.ID})
	require.NoError(t, err)
	assert.True(t, hasKey(t, backend, makePostCategoryKey(code.ID, p.ID)))

	_, err = posts.UpdatePost(ctx, p.ID, core.Post{Title: "t", Category: games.ID})
	require.NoError(t, err)
	assert.False(t, hasKey(t, backend, makePostCategoryKey(code.ID, p.ID)))
	assert.True(t, hasKey(t, backend, makePostCategoryKey(games.ID, p.ID)))

	_, err = posts.RemovePost(ctx, p.ID)
	require.NoError(t, err)
	assert.False(t, hasKey(t, backend, makePostCategoryKey(games.ID, p.ID)))
}

func TestUpdatePost_UnknownCategory(t *testing.T) {
	posts, categories, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer backend.Close()
	ctx := context.Background()

	code, err := categories.CreateCategory(ctx, "Code")
	require.NoError(t, err)
	p, err := posts.CreatePost(ctx, core.Post{Title: "t", Category: code.ID})
	require.NoError(t, err)

	_, err = posts.UpdatePost(ctx, p.ID, core.Post{Title: "t", Category: "nowhere"})
	require.ErrorIs(t, err, storage.ErrCategoryNotFound)

	got, err := posts.GetPost(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p, got)
}

func TestCreatePost_UnknownCategory(t *testing.T) {
	posts, _ := newTestRepositories(t)

	_, err := posts.CreatePost(context.Background(), core.Post{Title: "t", Category: "nowhere"})
	require.ErrorIs(t, err, storage.ErrCategoryNotFound)
}

func hasKey(t *testing.T, backend *Backend, key []byte) bool {
	t.Helper()
	var found bool
	err := backend.WithTx(func(tx *badger.Txn) error {
		_, err := tx.Get(key)
		if err == badger.ErrKeyNotFound {
			return nil
		}
		found = err == nil
		return err
	}, false)
	require.NoError(t, err)
	return found
}
