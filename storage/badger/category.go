package badger

import (
	"context"
	"errors"

	"github.com/dgraph-io/badger/v4"
	"github.com/hwebs/content/core"
	"github.com/hwebs/content/storage"
)

// CategoryRepository implements storage.CategoryRepository for BadgerDB.
type CategoryRepository struct {
	backend *Backend
}

var _ storage.CategoryRepository = (*CategoryRepository)(nil)

// NewCategoryRepository creates a new CategoryRepository.
func NewCategoryRepository(backend *Backend) *CategoryRepository {
	return &CategoryRepository{
		backend: backend,
	}
}

// Close releases resources. CategoryRepository has no resources to release.
func (r *CategoryRepository) Close() error {
	return nil
}

func (r *CategoryRepository) GetCategory(ctx context.Context, id string) (*core.Category, error) {
	var result *core.Category
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readCategory(tx, makeCategoryKey(id))
		return err
	}, false)
	return result, err
}

func (r *CategoryRepository) ListCategories(ctx context.Context) ([]*core.Category, error) {
	results := []*core.Category{}
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		return iteratePrefix(tx, scanPrefix(categoryPrefix), func(val []byte) error {
			category, err := storage.UnmarshalCategory(val)
			if err != nil {
				return err
			}
			results = append(results, category)
			return nil
		})
	}, false)
	if err != nil {
		return nil, err
	}
	return results, nil
}

func (r *CategoryRepository) CreateCategory(ctx context.Context, title string) (*core.Category, error) {
	if err := core.ValidateCategoryTitle(title); err != nil {
		return nil, err
	}
	category := &core.Category{ID: core.NewID(), Title: title}
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Set(makeCategoryKey(category.ID), storage.MarshalCategory(category)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return nil, err
	}
	return category, nil
}

// UpdateCategory renames an existing category. Returns nil, nil if no
// category exists.
func (r *CategoryRepository) UpdateCategory(ctx context.Context, id, title string) (*core.Category, error) {
	if err := core.ValidateCategoryTitle(title); err != nil {
		return nil, err
	}
	var result *core.Category
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeCategoryKey(id)
		old, err := readCategory(tx, key)
		if err != nil || old == nil {
			return err
		}
		result = &core.Category{ID: id, Title: title}
		if err := tx.Set(key, storage.MarshalCategory(result)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// RemoveCategory deletes the category record only. Posts that reference it
// stay in place along with their index entries.
func (r *CategoryRepository) RemoveCategory(ctx context.Context, id string) (string, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Delete(makeCategoryKey(id)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return "", err
	}
	return id, nil
}

// readCategory reads and deserializes a category from the transaction.
// Returns nil, nil if the key doesn't exist.
func readCategory(tx *badger.Txn, key []byte) (*core.Category, error) {
	item, err := tx.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var category *core.Category
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		category, unmarshalErr = storage.UnmarshalCategory(val)
		return unmarshalErr
	})
	return category, err
}
