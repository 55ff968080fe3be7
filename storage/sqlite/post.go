package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/hwebs/content/core"
	"github.com/hwebs/content/storage"
)

const selectPosts = `SELECT rowid AS id, title, link, category, datetime FROM items`

// postRow maps one items row, rowid included.
type postRow struct {
	ID       int64  `db:"id"`
	Title    string `db:"title"`
	Link     string `db:"link"`
	Category string `db:"category"`
	Datetime int64  `db:"datetime"`
}

func (row postRow) toPost() *core.Post {
	return &core.Post{
		ID:       strconv.FormatInt(row.ID, 10),
		Title:    row.Title,
		Link:     row.Link,
		Category: row.Category,
		Datetime: row.Datetime,
	}
}

// parseRowID reports whether id can name a row at all. Only the canonical
// decimal form handed out by CreatePost is accepted, so "01" and "+1" do not
// alias post "1".
func parseRowID(id string) (int64, bool) {
	rowid, err := strconv.ParseInt(id, 10, 64)
	if err != nil || strconv.FormatInt(rowid, 10) != id {
		return 0, false
	}
	return rowid, true
}

// PostRepository implements storage.PostRepository for SQLite.
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

// GetPost retrieves a single post by rowid.
func (r *PostRepository) GetPost(ctx context.Context, id string) (*core.Post, error) {
	rowid, ok := parseRowID(id)
	if !ok {
		return nil, nil
	}

	var row postRow
	err := r.backend.db.GetContext(ctx, &row, selectPosts+` WHERE rowid = ?`, rowid)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get post: %w", err)
	}
	return row.toPost(), nil
}

// ListPosts selects all posts, or those in one category.
func (r *PostRepository) ListPosts(ctx context.Context, category string) ([]*core.Post, error) {
	var rows []postRow
	var err error
	if category == "" {
		err = r.backend.db.SelectContext(ctx, &rows, selectPosts)
	} else {
		err = r.backend.db.SelectContext(ctx, &rows, selectPosts+` WHERE category = ?`, category)
	}
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}

	results := make([]*core.Post, 0, len(rows))
	for _, row := range rows {
		results = append(results, row.toPost())
	}
	return results, nil
}

// CreatePost inserts a post and re-reads it by its new rowid.
// Every insert failure, a foreign key violation included, is reported as
// storage.ErrInsertFailed.
func (r *PostRepository) CreatePost(ctx context.Context, post core.Post) (*core.Post, error) {
	if err := core.ValidatePost(&post); err != nil {
		return nil, err
	}

	res, err := r.backend.db.ExecContext(ctx,
		`INSERT INTO items (title, link, category, datetime) VALUES (?, ?, ?, ?)`,
		post.Title, post.Link, post.Category, post.Datetime,
	)
	if err != nil {
		r.backend.logger.Debug("post insert failed", "category", post.Category, "err", err)
		return nil, fmt.Errorf("%w: %w", storage.ErrInsertFailed, err)
	}
	rowid, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", storage.ErrInsertFailed, err)
	}
	return r.GetPost(ctx, strconv.FormatInt(rowid, 10))
}

// UpdatePost overwrites every column of the row. It does not check that the
// row exists; the re-read afterwards returns nil when it did not.
func (r *PostRepository) UpdatePost(ctx context.Context, id string, post core.Post) (*core.Post, error) {
	if err := core.ValidatePost(&post); err != nil {
		return nil, err
	}
	rowid, ok := parseRowID(id)
	if !ok {
		return nil, nil
	}

	_, err := r.backend.db.ExecContext(ctx,
		`UPDATE items SET title = ?, link = ?, category = ?, datetime = ? WHERE rowid = ?`,
		post.Title, post.Link, post.Category, post.Datetime, rowid,
	)
	if err != nil {
		return nil, fmt.Errorf("update post: %w", err)
	}
	return r.GetPost(ctx, id)
}

// RemovePost deletes by rowid and returns id whether or not a row matched.
func (r *PostRepository) RemovePost(ctx context.Context, id string) (string, error) {
	rowid, ok := parseRowID(id)
	if !ok {
		return id, nil
	}
	if _, err := r.backend.db.ExecContext(ctx, `DELETE FROM items WHERE rowid = ?`, rowid); err != nil {
		return "", fmt.Errorf("remove post: %w", err)
	}
	return id, nil
}
