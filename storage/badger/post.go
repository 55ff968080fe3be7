package badger

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/hwebs/content/core"
	"github.com/hwebs/content/storage"
)

// PostRepository implements storage.PostRepository for BadgerDB.
type PostRepository struct {
	backend *Backend
}

var _ storage.PostRepository = (*PostRepository)(nil)

// NewPostRepository creates a new PostRepository.
func NewPostRepository(backend *Backend) *PostRepository {
	return &PostRepository{
		backend: backend,
	}
}

// Close releases resources. PostRepository has no resources to release.
func (r *PostRepository) Close() error {
	return nil
}

// GetPost retrieves a single post by ID.
// Returns nil, nil if no post exists.
func (r *PostRepository) GetPost(ctx context.Context, id string) (*core.Post, error) {
	var result *core.Post
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readPost(tx, makePostKey(id))
		return err
	}, false)
	return result, err
}

// ListPosts returns every post, or only those whose category matches.
func (r *PostRepository) ListPosts(ctx context.Context, category string) ([]*core.Post, error) {
	results := []*core.Post{}
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		if category == "" {
			return iteratePrefix(tx, scanPrefix(postPrefix), func(val []byte) error {
				post, err := storage.UnmarshalPost(val)
				if err != nil {
					return err
				}
				results = append(results, post)
				return nil
			})
		}

		partial := makePartialPostCategoryKey(category)
		opts := badger.DefaultIteratorOptions
		opts.Prefix = partial
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			id := postIDFromIndexKey(iter.Item().Key(), partial)
			post, err := readPost(tx, makePostKey(id))
			if err != nil {
				return err
			}
			if post != nil {
				results = append(results, post)
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	return results, nil
}

// CreatePost stores a post under a new ID. The category is checked in the
// same transaction as the write.
func (r *PostRepository) CreatePost(ctx context.Context, post core.Post) (*core.Post, error) {
	if err := core.ValidatePost(&post); err != nil {
		return nil, err
	}
	created := post.WithID(core.NewID())

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		if err := requireCategory(tx, created.Category); err != nil {
			return err
		}
		if err := tx.Set(makePostKey(created.ID), storage.MarshalPost(created)); err != nil {
			return err
		}
		if err := tx.Set(makePostCategoryKey(created.Category, created.ID), nil); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return nil, err
	}
	return created, nil
}

// UpdatePost replaces an existing post. Returns nil, nil if no post exists.
// The new category must exist.
func (r *PostRepository) UpdatePost(ctx context.Context, id string, post core.Post) (*core.Post, error) {
	if err := core.ValidatePost(&post); err != nil {
		return nil, err
	}
	updated := post.WithID(id)

	var found bool
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		key := makePostKey(id)
		old, err := readPost(tx, key)
		if err != nil {
			return err
		}
		if old == nil {
			return nil
		}
		found = true

		if old.Category != updated.Category {
			if err := requireCategory(tx, updated.Category); err != nil {
				return err
			}
			if err := tx.Delete(makePostCategoryKey(old.Category, id)); err != nil {
				return err
			}
			if err := tx.Set(makePostCategoryKey(updated.Category, id), nil); err != nil {
				return err
			}
		}
		if err := tx.Set(key, storage.MarshalPost(updated)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	if err != nil || !found {
		return nil, err
	}
	return updated, nil
}

// RemovePost deletes a post and its index entry. Returns id even when no
// post existed.
func (r *PostRepository) RemovePost(ctx context.Context, id string) (string, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		key := makePostKey(id)
		post, err := readPost(tx, key)
		if err != nil {
			return err
		}
		if post == nil {
			return nil
		}
		if err := tx.Delete(makePostCategoryKey(post.Category, id)); err != nil {
			return err
		}
		if err := tx.Delete(key); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return "", err
	}
	return id, nil
}

// readPost reads and deserializes a post from the transaction.
// Returns nil, nil if the key doesn't exist.
func readPost(tx *badger.Txn, key []byte) (*core.Post, error) {
	item, err := tx.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var post *core.Post
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		post, unmarshalErr = storage.UnmarshalPost(val)
		return unmarshalErr
	})
	return post, err
}

func requireCategory(tx *badger.Txn, id string) error {
	_, err := tx.Get(makeCategoryKey(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return fmt.Errorf("%w: %s", storage.ErrCategoryNotFound, id)
	}
	return err
}

// iteratePrefix calls fn with the value of every key under prefix.
func iteratePrefix(tx *badger.Txn, prefix []byte, fn func(val []byte) error) error {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	iter := tx.NewIterator(opts)
	defer iter.Close()

	for iter.Rewind(); iter.Valid(); iter.Next() {
		if err := iter.Item().Value(fn); err != nil {
			return err
		}
	}
	return nil
}
