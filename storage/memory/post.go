package memory

import (
	"context"

	"github.com/hwebs/content/core"
	"github.com/hwebs/content/storage"
)

// PostRepository implements storage.PostRepository over a Backend.
type PostRepository struct {
	backend *Backend
}

var _ storage.PostRepository = (*PostRepository)(nil)

// NewPostRepository creates a new PostRepository.
func NewPostRepository(backend *Backend) *PostRepository {
	return &PostRepository{backend: backend}
}

// Close releases resources. PostRepository has no resources to release.
func (r *PostRepository) Close() error {
	return nil
}

// GetPost retrieves a single post by ID.
func (r *PostRepository) GetPost(ctx context.Context, id string) (*core.Post, error) {
	var result *core.Post
	err := r.backend.read(func() error {
		if post, ok := r.backend.posts[id]; ok {
			result = &post
		}
		return nil
	})
	return result, err
}

// ListPosts returns all posts, optionally restricted to one category.
func (r *PostRepository) ListPosts(ctx context.Context, category string) ([]*core.Post, error) {
	results := []*core.Post{}
	err := r.backend.read(func() error {
		for _, post := range r.backend.posts {
			if category != "" && post.Category != category {
				continue
			}
			results = append(results, &post)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

// CreatePost stores a post under a new random ID.
func (r *PostRepository) CreatePost(ctx context.Context, post core.Post) (*core.Post, error) {
	if err := core.ValidatePost(&post); err != nil {
		return nil, err
	}
	post.ID = core.NewID()
	err := r.backend.write(func() error {
		r.backend.posts[post.ID] = post
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &post, nil
}

// UpdatePost replaces a post that is already present.
func (r *PostRepository) UpdatePost(ctx context.Context, id string, post core.Post) (*core.Post, error) {
	if err := core.ValidatePost(&post); err != nil {
		return nil, err
	}
	post.ID = id
	var result *core.Post
	err := r.backend.write(func() error {
		if _, ok := r.backend.posts[id]; !ok {
			return nil
		}
		r.backend.posts[id] = post
		result = &post
		return nil
	})
	return result, err
}

// RemovePost deletes a post. Missing IDs are not an error.
func (r *PostRepository) RemovePost(ctx context.Context, id string) (string, error) {
	err := r.backend.write(func() error {
		delete(r.backend.posts, id)
		return nil
	})
	return id, err
}
