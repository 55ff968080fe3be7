package memory

import (
	"context"

	"github.com/hwebs/content/core"
	"github.com/hwebs/content/storage"
)

// CategoryRepository implements storage.CategoryRepository over a Backend.
type CategoryRepository struct {
	backend *Backend
}

var _ storage.CategoryRepository = (*CategoryRepository)(nil)

// NewCategoryRepository creates a new CategoryRepository.
func NewCategoryRepository(backend *Backend) *CategoryRepository {
	return &CategoryRepository{backend: backend}
}

// Close releases resources. CategoryRepository has no resources to release.
func (r *CategoryRepository) Close() error {
	return nil
}

func (r *CategoryRepository) GetCategory(ctx context.Context, id string) (*core.Category, error) {
	var result *core.Category
	err := r.backend.read(func() error {
		if category, ok := r.backend.categories[id]; ok {
			result = &category
		}
		return nil
	})
	return result, err
}

func (r *CategoryRepository) ListCategories(ctx context.Context) ([]*core.Category, error) {
	results := []*core.Category{}
	err := r.backend.read(func() error {
		for _, category := range r.backend.categories {
			results = append(results, &category)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

func (r *CategoryRepository) CreateCategory(ctx context.Context, title string) (*core.Category, error) {
	if err := core.ValidateCategoryTitle(title); err != nil {
		return nil, err
	}
	category := core.Category{ID: core.NewID(), Title: title}
	err := r.backend.write(func() error {
		r.backend.categories[category.ID] = category
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *CategoryRepository) UpdateCategory(ctx context.Context, id, title string) (*core.Category, error) {
	if err := core.ValidateCategoryTitle(title); err != nil {
		return nil, err
	}
	var result *core.Category
	err := r.backend.write(func() error {
		if _, ok := r.backend.categories[id]; !ok {
			return nil
		}
		category := core.Category{ID: id, Title: title}
		r.backend.categories[id] = category
		result = &category
		return nil
	})
	return result, err
}

func (r *CategoryRepository) RemoveCategory(ctx context.Context, id string) (string, error) {
	err := r.backend.write(func() error {
		delete(r.backend.categories, id)
		return nil
	})
	return id, err
}
