// Package memory provides a process-local storage backend.
//
// Records live in Go maps for the lifetime of the Backend. Nothing is
// persisted and category references are not checked. It exists as a fast
// test double and for demos.
package memory

import (
	"context"
	"sync"

	"github.com/hwebs/content/core"
	"github.com/hwebs/content/storage"
)

// Backend owns the maps shared by the post and category repositories.
type Backend struct {
	mu         sync.RWMutex
	posts      map[string]core.Post
	categories map[string]core.Category
	closed     bool
}

var _ storage.Resetter = (*Backend)(nil)

// NewBackend returns an empty backend.
func NewBackend() *Backend {
	return &Backend{
		posts:      make(map[string]core.Post),
		categories: make(map[string]core.Category),
	}
}

// Close marks the backend closed. Subsequent operations fail with
// storage.ErrStorageClosed.
func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.posts = nil
	b.categories = nil
	return nil
}

// Reset discards every record.
func (b *Backend) Reset(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return storage.ErrStorageClosed
	}
	clear(b.posts)
	clear(b.categories)
	return nil
}

// read runs fn under the read lock.
func (b *Backend) read(fn func() error) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return storage.ErrStorageClosed
	}
	return fn()
}

// write runs fn under the write lock.
func (b *Backend) write(fn func() error) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return storage.ErrStorageClosed
	}
	return fn()
}

// NewRepositories creates a fresh backend and both repositories over it.
// Caller must close the backend when done.
func NewRepositories() (storage.PostRepository, storage.CategoryRepository, *Backend) {
	backend := NewBackend()
	return NewPostRepository(backend), NewCategoryRepository(backend), backend
}
