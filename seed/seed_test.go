package seed

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/hwebs/content"
	"github.com/hwebs/content/config"
	"github.com/hwebs/content/core"
	"github.com/hwebs/content/storage"
	"github.com/hwebs/content/storage/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(t *testing.T, opts ...config.ConfigOption) *content.Client {
	t.Helper()
	client, err := content.NewClient(config.NewConfig(opts...))
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return client
}

func TestDefaultFixtures(t *testing.T) {
	fixtures := DefaultFixtures()

	assert.Equal(t, []string{"Code", "Games", "Music", "Animation", "About"}, fixtures.Categories)
	require.Len(t, fixtures.Posts, 2)
	for _, post := range fixtures.Posts {
		assert.Equal(t, "Music", post.Category)
	}
	assert.Equal(t, int64(1534996800000), fixtures.Posts[0].Datetime)
	assert.Equal(t, int64(1450846800000), fixtures.Posts[1].Datetime)
	require.NoError(t, fixtures.Validate())
}

func TestLoadFixtures(t *testing.T) {
	t.Run("valid file", func(t *testing.T) {
		fixtures, err := LoadFixtures(filepath.Join("testdata", "fixtures.yaml"))
		require.NoError(t, err)

		assert.Equal(t, []string{"Code", "Games"}, fixtures.Categories)
		require.Len(t, fixtures.Posts, 3)
		assert.Equal(t, FixturePost{
			Title:    "hwebs",
			Link:     "https://github.com/hwebs",
			Category: "Code",
			Datetime: 1600000000000,
		}, fixtures.Posts[0])
	})

	t.Run("unknown category", func(t *testing.T) {
		_, err := LoadFixtures(filepath.Join("testdata", "unknown_category.yaml"))
		assert.ErrorIs(t, err, ErrUnknownCategory)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadFixtures(filepath.Join("testdata", "nope.yaml"))
		assert.Error(t, err)
	})
}

func TestValidate_DuplicateCategory(t *testing.T) {
	fixtures := &Fixtures{Categories: []string{"Code", "Code"}}
	assert.ErrorIs(t, fixtures.Validate(), ErrDuplicateCategory)
}

func TestRun_Defaults(t *testing.T) {
	for _, backend := range []string{config.BackendMemory, config.BackendSQLite} {
		t.Run(backend, func(t *testing.T) {
			client := newClient(t,
				config.WithBackend(backend),
				config.WithSQLiteFile(filepath.Join(t.TempDir(), "seed.db")),
			)
			ctx := context.Background()

			result, err := Run(ctx, client, nil, WithPoolSize(2))
			require.NoError(t, err)
			require.Len(t, result.Categories, 5)
			require.Len(t, result.Posts, 2)

			music := result.Categories[2]
			assert.Equal(t, "Music", music.Title)

			inMusic, err := client.Posts().ListPosts(ctx, music.ID)
			require.NoError(t, err)
			assert.ElementsMatch(t, result.Posts, inMusic)

			categories, err := client.Categories().ListCategories(ctx)
			require.NoError(t, err)
			assert.ElementsMatch(t, result.Categories, categories)
		})
	}
}

func TestRun_ResetsFirst(t *testing.T) {
	client := newClient(t, config.WithBackend(config.BackendMemory))
	ctx := context.Background()

	_, err := Run(ctx, client, nil)
	require.NoError(t, err)
	_, err = Run(ctx, client, nil)
	require.NoError(t, err)

	posts, err := client.Posts().ListPosts(ctx, "")
	require.NoError(t, err)
	assert.Len(t, posts, 2)
}

func TestRun_FromFile(t *testing.T) {
	client := newClient(t, config.WithBackend(config.BackendMemory))
	ctx := context.Background()

	fixtures, err := LoadFixtures(filepath.Join("testdata", "fixtures.yaml"))
	require.NoError(t, err)

	result, err := Run(ctx, client, fixtures, WithPoolSize(1))
	require.NoError(t, err)

	code := result.Categories[0]
	inCode, err := client.Posts().ListPosts(ctx, code.ID)
	require.NoError(t, err)
	assert.Len(t, inCode, 2)
}

func TestRun_NilTarget(t *testing.T) {
	_, err := Run(context.Background(), nil, nil)
	assert.ErrorIs(t, err, ErrTargetRequired)

	var client *content.Client
	_, err = Run(context.Background(), client, nil)
	assert.ErrorIs(t, err, ErrTargetRequired)

	var stub *stubTarget
	_, err = Run(context.Background(), stub, nil)
	assert.ErrorIs(t, err, ErrTargetRequired)
}

func TestRun_InvalidFixtures(t *testing.T) {
	target := newStubTarget()
	fixtures := &Fixtures{Posts: []FixturePost{{Title: "t", Category: "nowhere"}}}

	_, err := Run(context.Background(), target, fixtures)
	assert.ErrorIs(t, err, ErrUnknownCategory)
	assert.Zero(t, target.resets, "nothing is reset for invalid fixtures")
}

func TestRun_ResetError(t *testing.T) {
	target := newStubTarget()
	boom := errors.New("reset failed")
	target.resetErr = boom

	_, err := Run(context.Background(), target, nil)
	assert.ErrorIs(t, err, boom)
}

func TestRun_CollectsPostErrors(t *testing.T) {
	target := newStubTarget()
	boom := errors.New("insert failed")
	target.posts = failingPosts{PostRepository: target.posts, err: boom}

	result, err := Run(context.Background(), target, nil, WithPoolSize(4))
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "death ray of peace - Urbane Living")
	assert.Contains(t, err.Error(), "death ray of peace - music for strangers")
	assert.Len(t, result.Categories, 5)
}

type stubTarget struct {
	posts      storage.PostRepository
	categories storage.CategoryRepository
	backend    *memory.Backend
	resets     int
	resetErr   error
}

func newStubTarget() *stubTarget {
	posts, categories, backend := memory.NewRepositories()
	return &stubTarget{posts: posts, categories: categories, backend: backend}
}

func (s *stubTarget) Reset(ctx context.Context) error {
	s.resets++
	if s.resetErr != nil {
		return s.resetErr
	}
	return s.backend.Reset(ctx)
}

func (s *stubTarget) Posts() storage.PostRepository           { return s.posts }
func (s *stubTarget) Categories() storage.CategoryRepository { return s.categories }

type failingPosts struct {
	storage.PostRepository
	err error
}

func (f failingPosts) CreatePost(context.Context, core.Post) (*core.Post, error) {
	return nil, f.err
}
