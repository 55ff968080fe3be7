package storage

import (
	"context"

	"github.com/hwebs/content/core"
)

// Repository provides operations shared by every repository.
type Repository interface {
	// Close releases resources held by the repository. Repositories that
	// share a backend handle do not close it; the owner of the handle does.
	Close() error
}

// PostRepository provides operations for managing posts.
//
// A missing post is reported as a nil post with a nil error, never as an
// error. Update replaces every mutable field; it is not a partial patch.
type PostRepository interface {
	Repository

	// GetPost retrieves a single post by ID.
	// Returns nil, nil if the post does not exist.
	GetPost(ctx context.Context, id string) (*core.Post, error)

	// ListPosts returns every live post, or only those whose Category equals
	// category when category is non-empty. Order is unspecified.
	ListPosts(ctx context.Context, category string) ([]*core.Post, error)

	// CreatePost stores a new post and returns it with its assigned ID.
	// post.ID is ignored; the backend chooses the identifier.
	CreatePost(ctx context.Context, post core.Post) (*core.Post, error)

	// UpdatePost overwrites all mutable fields of the post identified by id.
	// post.ID is ignored. Returns nil, nil if the post does not exist.
	UpdatePost(ctx context.Context, id string, post core.Post) (*core.Post, error)

	// RemovePost deletes the post and returns id, whether or not it existed.
	RemovePost(ctx context.Context, id string) (string, error)
}

// CategoryRepository provides operations for managing categories.
type CategoryRepository interface {
	Repository

	// GetCategory retrieves a single category by ID.
	// Returns nil, nil if the category does not exist.
	GetCategory(ctx context.Context, id string) (*core.Category, error)

	// ListCategories returns every live category. Order is unspecified.
	ListCategories(ctx context.Context) ([]*core.Category, error)

	// CreateCategory stores a new category with a client-generated ID.
	CreateCategory(ctx context.Context, title string) (*core.Category, error)

	// UpdateCategory overwrites the title of the category identified by id.
	// Returns nil, nil if the category does not exist.
	UpdateCategory(ctx context.Context, id, title string) (*core.Category, error)

	// RemoveCategory deletes the category and returns id, whether or not it
	// existed. Posts filed under the category are left untouched. Backends
	// with foreign keys (SQLite) refuse instead and return an error while any
	// post still references the category.
	RemoveCategory(ctx context.Context, id string) (string, error)
}

// Resetter is implemented by backends that can drop and recreate their
// schema. Seeding uses it to start from an empty store.
type Resetter interface {
	Reset(ctx context.Context) error
}
