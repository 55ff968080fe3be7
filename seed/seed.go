package seed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"runtime"
	"sync"

	"github.com/hwebs/content/core"
	"github.com/hwebs/content/storage"
	"github.com/panjf2000/ants/v2"
)

// Target is a backend that can be emptied and written to. *content.Client
// satisfies it.
type Target interface {
	storage.Resetter
	Posts() storage.PostRepository
	Categories() storage.CategoryRepository
}

// Result holds what Run created, in fixture order.
type Result struct {
	Categories []*core.Category
	Posts      []*core.Post
}

// Option configures Run.
type Option func(*options)

type options struct {
	poolSize int
	logger   *slog.Logger
}

// WithPoolSize sets how many posts are inserted at once.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(o *options) {
		if size < 1 {
			size = 1
		}
		o.poolSize = size
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = slog.Default()
		}
		o.logger = logger
	}
}

// isNil reports whether target is nil, including a nil pointer held in the
// interface.
func isNil(target Target) bool {
	if target == nil {
		return true
	}
	v := reflect.ValueOf(target)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Interface, reflect.Chan:
		return v.IsNil()
	}
	return false
}

// Run resets target and inserts fixtures. Nil fixtures means DefaultFixtures.
func Run(ctx context.Context, target Target, fixtures *Fixtures, opts ...Option) (*Result, error) {
	if isNil(target) {
		return nil, ErrTargetRequired
	}
	if fixtures == nil {
		fixtures = DefaultFixtures()
	}
	if err := fixtures.Validate(); err != nil {
		return nil, err
	}

	o := &options{
		poolSize: max(runtime.NumCPU()/2, 1),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}

	if err := target.Reset(ctx); err != nil {
		return nil, fmt.Errorf("reset: %w", err)
	}

	result := &Result{
		Categories: make([]*core.Category, 0, len(fixtures.Categories)),
		Posts:      make([]*core.Post, len(fixtures.Posts)),
	}
	ids := make(map[string]string, len(fixtures.Categories))
	for _, title := range fixtures.Categories {
		category, err := target.Categories().CreateCategory(ctx, title)
		if err != nil {
			return nil, fmt.Errorf("create category %q: %w", title, err)
		}
		ids[title] = category.ID
		result.Categories = append(result.Categories, category)
	}
	o.logger.Info("seeded categories", "count", len(result.Categories))

	pool, err := ants.NewPool(o.poolSize)
	if err != nil {
		return nil, err
	}
	defer pool.Release()

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	fail := func(err error) {
		mu.Lock()
		errs = append(errs, err)
		mu.Unlock()
	}

	posts := target.Posts()
	for i, fixture := range fixtures.Posts {
		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			created, err := posts.CreatePost(ctx, core.Post{
				Title:    fixture.Title,
				Link:     fixture.Link,
				Category: ids[fixture.Category],
				Datetime: fixture.Datetime,
			})
			if err != nil {
				o.logger.Error("error seeding post", "title", fixture.Title, "err", err)
				fail(fmt.Errorf("create post %q: %w", fixture.Title, err))
				return
			}
			result.Posts[i] = created
		})
		if submitErr != nil {
			wg.Done()
			fail(submitErr)
		}
	}
	wg.Wait()

	if len(errs) > 0 {
		return result, errors.Join(errs...)
	}
	o.logger.Info("seeded posts", "count", len(result.Posts))
	return result, nil
}
