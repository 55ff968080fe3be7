package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/hwebs/content/core"
	"github.com/hwebs/content/storage"
)

const selectCategories = `SELECT id, title FROM categories`

type categoryRow struct {
	ID    string `db:"id"`
	Title string `db:"title"`
}

// CategoryRepository implements storage.CategoryRepository for SQLite.
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
	var row categoryRow
	err := r.backend.db.GetContext(ctx, &row, selectCategories+` WHERE id = ?`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get category: %w", err)
	}
	return &core.Category{ID: row.ID, Title: row.Title}, nil
}

func (r *CategoryRepository) ListCategories(ctx context.Context) ([]*core.Category, error) {
	var rows []categoryRow
	if err := r.backend.db.SelectContext(ctx, &rows, selectCategories); err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	results := make([]*core.Category, 0, len(rows))
	for _, row := range rows {
		results = append(results, &core.Category{ID: row.ID, Title: row.Title})
	}
	return results, nil
}

// CreateCategory inserts a category under a new UUID primary key.
func (r *CategoryRepository) CreateCategory(ctx context.Context, title string) (*core.Category, error) {
	if err := core.ValidateCategoryTitle(title); err != nil {
		return nil, err
	}
	id := core.NewID()
	_, err := r.backend.db.ExecContext(ctx, `INSERT INTO categories (id, title) VALUES (?, ?)`, id, title)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", storage.ErrInsertFailed, err)
	}
	return r.GetCategory(ctx, id)
}

// UpdateCategory overwrites the title without checking the row exists.
func (r *CategoryRepository) UpdateCategory(ctx context.Context, id, title string) (*core.Category, error) {
	if err := core.ValidateCategoryTitle(title); err != nil {
		return nil, err
	}
	if _, err := r.backend.db.ExecContext(ctx, `UPDATE categories SET title = ? WHERE id = ?`, title, id); err != nil {
		return nil, fmt.Errorf("update category: %w", err)
	}
	return r.GetCategory(ctx, id)
}

// RemoveCategory deletes the category. The foreign key on items makes the
// delete fail while posts still reference it.
func (r *CategoryRepository) RemoveCategory(ctx context.Context, id string) (string, error) {
	if _, err := r.backend.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id); err != nil {
		return "", fmt.Errorf("remove category: %w", err)
	}
	return id, nil
}
