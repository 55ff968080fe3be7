// Package storagetest holds the behavioural contract every storage backend
// must satisfy. Backend packages call Run from their own tests.
package storagetest

import (
	"context"
	"testing"

	"github.com/hwebs/content/core"
	"github.com/hwebs/content/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Factory returns a fresh, empty pair of repositories sharing one backend.
// It is called once per subtest and should register cleanup with t.Cleanup.
type Factory func(t *testing.T) (storage.PostRepository, storage.CategoryRepository)

// Options describes backend-specific behaviour the suite must account for.
type Options struct {
	// EnforcesCategory is true when CreatePost rejects unknown categories.
	EnforcesCategory bool

	// RestrictsCategoryRemoval is true when RemoveCategory fails while posts
	// still reference the category.
	RestrictsCategoryRemoval bool
}

// Run executes the full contract suite against the repositories produced by newRepos.
func Run(t *testing.T, newRepos Factory, opts Options) {
	t.Run("categories", func(t *testing.T) { runCategories(t, newRepos) })
	t.Run("posts", func(t *testing.T) { runPosts(t, newRepos, opts) })
	t.Run("scenario", func(t *testing.T) { runScenario(t, newRepos, opts) })
}

func runCategories(t *testing.T, newRepos Factory) {
	ctx := context.Background()

	t.Run("get missing returns nil", func(t *testing.T) {
		_, categories := newRepos(t)

		got, err := categories.GetCategory(ctx, "abc")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("empty id is absent", func(t *testing.T) {
		_, categories := newRepos(t)

		got, err := categories.GetCategory(ctx, "")
		require.NoError(t, err)
		assert.Nil(t, got)

		updated, err := categories.UpdateCategory(ctx, "", "Music")
		require.NoError(t, err)
		assert.Nil(t, updated)

		id, err := categories.RemoveCategory(ctx, "")
		require.NoError(t, err)
		assert.Empty(t, id)
	})

	t.Run("create then get", func(t *testing.T) {
		_, categories := newRepos(t)

		created, err := categories.CreateCategory(ctx, "default")
		require.NoError(t, err)
		require.NotNil(t, created)
		assert.NotEmpty(t, created.ID)
		assert.Equal(t, "default", created.Title)

		got, err := categories.GetCategory(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, created, got)
	})

	t.Run("create assigns distinct ids", func(t *testing.T) {
		_, categories := newRepos(t)

		a, err := categories.CreateCategory(ctx, "same")
		require.NoError(t, err)
		b, err := categories.CreateCategory(ctx, "same")
		require.NoError(t, err)
		assert.NotEqual(t, a.ID, b.ID)
	})

	t.Run("create rejects empty title", func(t *testing.T) {
		_, categories := newRepos(t)

		_, err := categories.CreateCategory(ctx, " ")
		require.ErrorIs(t, err, core.ErrInvalidCategory)

		all, err := categories.ListCategories(ctx)
		require.NoError(t, err)
		assert.Empty(t, all)
	})

	t.Run("update overwrites title", func(t *testing.T) {
		_, categories := newRepos(t)

		created, err := categories.CreateCategory(ctx, "Code")
		require.NoError(t, err)

		updated, err := categories.UpdateCategory(ctx, created.ID, "Games")
		require.NoError(t, err)
		require.NotNil(t, updated)
		assert.Equal(t, &core.Category{ID: created.ID, Title: "Games"}, updated)

		got, err := categories.GetCategory(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, updated, got)
	})

	t.Run("update missing returns nil", func(t *testing.T) {
		_, categories := newRepos(t)

		got, err := categories.UpdateCategory(ctx, core.NewID(), "nobody")
		require.NoError(t, err)
		assert.Nil(t, got)

		all, err := categories.ListCategories(ctx)
		require.NoError(t, err)
		assert.Empty(t, all)
	})

	t.Run("remove returns id", func(t *testing.T) {
		_, categories := newRepos(t)

		created, err := categories.CreateCategory(ctx, "About")
		require.NoError(t, err)

		id, err := categories.RemoveCategory(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, created.ID, id)

		got, err := categories.GetCategory(ctx, created.ID)
		require.NoError(t, err)
		assert.Nil(t, got)

		missing := core.NewID()
		id, err = categories.RemoveCategory(ctx, missing)
		require.NoError(t, err)
		assert.Equal(t, missing, id)
	})

	t.Run("list on empty store", func(t *testing.T) {
		_, categories := newRepos(t)

		all, err := categories.ListCategories(ctx)
		require.NoError(t, err)
		assert.NotNil(t, all)
		assert.Empty(t, all)
	})

	t.Run("list returns live categories", func(t *testing.T) {
		_, categories := newRepos(t)

		var want []*core.Category
		for _, title := range []string{"Code", "Games", "Music"} {
			c, err := categories.CreateCategory(ctx, title)
			require.NoError(t, err)
			want = append(want, c)
		}
		_, err := categories.RemoveCategory(ctx, want[1].ID)
		require.NoError(t, err)

		all, err := categories.ListCategories(ctx)
		require.NoError(t, err)
		assert.ElementsMatch(t, []*core.Category{want[0], want[2]}, all)
	})
}

func runPosts(t *testing.T, newRepos Factory, opts Options) {
	ctx := context.Background()

	t.Run("get missing returns nil", func(t *testing.T) {
		posts, _ := newRepos(t)

		for _, id := range []string{"", "abc", "999999", core.NewID()} {
			got, err := posts.GetPost(ctx, id)
			require.NoError(t, err)
			assert.Nil(t, got, "id %q", id)
		}
	})

	t.Run("empty id is absent", func(t *testing.T) {
		posts, categories := newRepos(t)
		c := mustCategory(t, categories, "Code")

		updated, err := posts.UpdatePost(ctx, "", core.Post{Title: "t", Category: c.ID})
		require.NoError(t, err)
		assert.Nil(t, updated)

		id, err := posts.RemovePost(ctx, "")
		require.NoError(t, err)
		assert.Empty(t, id)
	})

	t.Run("create then get", func(t *testing.T) {
		posts, categories := newRepos(t)
		category := mustCategory(t, categories, "data")

		fields := core.Post{
			Title:    "My data",
			Link:     "this is my data",
			Category: category.ID,
			Datetime: 1534996800000,
		}
		created, err := posts.CreatePost(ctx, fields)
		require.NoError(t, err)
		require.NotNil(t, created)
		require.NotEmpty(t, created.ID)
		assert.Equal(t, fields.WithID(created.ID), created)

		got, err := posts.GetPost(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, fields.WithID(created.ID), got)
	})

	t.Run("create ignores caller id", func(t *testing.T) {
		posts, categories := newRepos(t)
		category := mustCategory(t, categories, "data")

		created, err := posts.CreatePost(ctx, core.Post{ID: "mine", Title: "t", Category: category.ID})
		require.NoError(t, err)
		assert.NotEqual(t, "mine", created.ID)
	})

	t.Run("create rejects invalid post", func(t *testing.T) {
		posts, categories := newRepos(t)
		category := mustCategory(t, categories, "data")

		_, err := posts.CreatePost(ctx, core.Post{Title: "", Category: category.ID})
		require.ErrorIs(t, err, core.ErrInvalidPost)

		all, err := posts.ListPosts(ctx, "")
		require.NoError(t, err)
		assert.Empty(t, all)
	})

	t.Run("create with unknown category", func(t *testing.T) {
		posts, _ := newRepos(t)

		created, err := posts.CreatePost(ctx, core.Post{
			Title:    "Orphan",
			Link:     "no home",
			Category: core.NewID(),
		})
		all, listErr := posts.ListPosts(ctx, "")
		require.NoError(t, listErr)

		if opts.EnforcesCategory {
			require.Error(t, err)
			assert.Nil(t, created)
			assert.Empty(t, all)
			return
		}
		require.NoError(t, err)
		assert.Len(t, all, 1)
	})

	t.Run("update overwrites all fields", func(t *testing.T) {
		posts, categories := newRepos(t)
		data := mustCategory(t, categories, "data")
		sports := mustCategory(t, categories, "sports")

		created, err := posts.CreatePost(ctx, core.Post{
			Title:    "My data",
			Link:     "this is my data",
			Category: data.ID,
			Datetime: 100,
		})
		require.NoError(t, err)

		replacement := core.Post{
			Title:    "My updated data",
			Link:     "this is my new data",
			Category: sports.ID,
			Datetime: 0,
		}
		updated, err := posts.UpdatePost(ctx, created.ID, replacement)
		require.NoError(t, err)
		assert.Equal(t, replacement.WithID(created.ID), updated)

		got, err := posts.GetPost(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, replacement.WithID(created.ID), got)

		byOld, err := posts.ListPosts(ctx, data.ID)
		require.NoError(t, err)
		assert.Empty(t, byOld)

		byNew, err := posts.ListPosts(ctx, sports.ID)
		require.NoError(t, err)
		assert.Equal(t, []*core.Post{replacement.WithID(created.ID)}, byNew)
	})

	t.Run("update missing returns nil", func(t *testing.T) {
		posts, categories := newRepos(t)
		category := mustCategory(t, categories, "data")

		got, err := posts.UpdatePost(ctx, missingPostID(t, posts), core.Post{Title: "ghost", Category: category.ID})
		require.NoError(t, err)
		assert.Nil(t, got)

		all, err := posts.ListPosts(ctx, "")
		require.NoError(t, err)
		assert.Empty(t, all)
	})

	t.Run("update rejects invalid post", func(t *testing.T) {
		posts, categories := newRepos(t)
		category := mustCategory(t, categories, "data")

		created, err := posts.CreatePost(ctx, core.Post{Title: "kept", Category: category.ID})
		require.NoError(t, err)

		_, err = posts.UpdatePost(ctx, created.ID, core.Post{Title: "", Category: category.ID})
		require.ErrorIs(t, err, core.ErrInvalidPost)

		got, err := posts.GetPost(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, "kept", got.Title)
	})

	t.Run("remove returns id", func(t *testing.T) {
		posts, categories := newRepos(t)
		category := mustCategory(t, categories, "data")

		created, err := posts.CreatePost(ctx, core.Post{Title: "My data", Link: "x", Category: category.ID})
		require.NoError(t, err)

		id, err := posts.RemovePost(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, created.ID, id)

		got, err := posts.GetPost(ctx, id)
		require.NoError(t, err)
		assert.Nil(t, got)

		missing := missingPostID(t, posts)
		id, err = posts.RemovePost(ctx, missing)
		require.NoError(t, err)
		assert.Equal(t, missing, id)
	})

	t.Run("list returns live posts", func(t *testing.T) {
		posts, categories := newRepos(t)
		category := mustCategory(t, categories, "data")

		a, err := posts.CreatePost(ctx, core.Post{Title: "My data A", Link: "this is data A", Category: category.ID})
		require.NoError(t, err)
		b, err := posts.CreatePost(ctx, core.Post{Title: "My data B", Link: "this is data B", Category: category.ID})
		require.NoError(t, err)
		c, err := posts.CreatePost(ctx, core.Post{Title: "My data C", Link: "this is data C", Category: category.ID})
		require.NoError(t, err)

		all, err := posts.ListPosts(ctx, "")
		require.NoError(t, err)
		assert.ElementsMatch(t, []*core.Post{a, b, c}, all)

		_, err = posts.RemovePost(ctx, b.ID)
		require.NoError(t, err)

		all, err = posts.ListPosts(ctx, "")
		require.NoError(t, err)
		assert.ElementsMatch(t, []*core.Post{a, c}, all)
	})

	t.Run("list on empty store", func(t *testing.T) {
		posts, _ := newRepos(t)

		all, err := posts.ListPosts(ctx, "")
		require.NoError(t, err)
		assert.NotNil(t, all)
		assert.Empty(t, all)

		filtered, err := posts.ListPosts(ctx, core.NewID())
		require.NoError(t, err)
		assert.NotNil(t, filtered)
		assert.Empty(t, filtered)
	})
}

// runScenario creates two categories and one post in each, then checks the
// filtered and unfiltered listings.
func runScenario(t *testing.T, newRepos Factory, opts Options) {
	ctx := context.Background()
	posts, categories := newRepos(t)

	a, err := categories.CreateCategory(ctx, "default")
	require.NoError(t, err)
	b, err := categories.CreateCategory(ctx, "other")
	require.NoError(t, err)

	p1, err := posts.CreatePost(ctx, core.Post{Title: "P1", Link: "first", Category: a.ID, Datetime: 1})
	require.NoError(t, err)
	p2, err := posts.CreatePost(ctx, core.Post{Title: "P2", Link: "second", Category: b.ID, Datetime: 2})
	require.NoError(t, err)

	inB, err := posts.ListPosts(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, []*core.Post{p2}, inB)

	all, err := posts.ListPosts(ctx, "")
	require.NoError(t, err)
	assert.ElementsMatch(t, []*core.Post{p1, p2}, all)

	allCategories, err := categories.ListCategories(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []*core.Category{a, b}, allCategories)

	// Removing a category never cascades to its posts. Backends with a
	// foreign key refuse the delete instead.
	_, err = categories.RemoveCategory(ctx, b.ID)
	if opts.RestrictsCategoryRemoval {
		require.Error(t, err)
		kept, getErr := categories.GetCategory(ctx, b.ID)
		require.NoError(t, getErr)
		assert.Equal(t, b, kept)
	} else {
		require.NoError(t, err)
	}

	stillThere, err := posts.GetPost(ctx, p2.ID)
	require.NoError(t, err)
	assert.Equal(t, p2, stillThere)
}

func mustCategory(t *testing.T, categories storage.CategoryRepository, title string) *core.Category {
	t.Helper()
	c, err := categories.CreateCategory(context.Background(), title)
	require.NoError(t, err)
	require.NotNil(t, c)
	return c
}

// missingPostID returns an identifier in the backend's native shape that no
// post carries. Numeric ids cover rowid backends, UUIDs the others.
func missingPostID(t *testing.T, posts storage.PostRepository) string {
	t.Helper()
	for _, id := range []string{"424242", core.NewID()} {
		got, err := posts.GetPost(context.Background(), id)
		require.NoError(t, err)
		if got == nil {
			return id
		}
	}
	t.Fatal("no unused post id found")
	return ""
}
