package core

import (
	"github.com/google/uuid"
)

// Record type discriminators. Wide-table backends store both entity kinds in
// one table and tell them apart by this value.
const (
	TypePost     = "post"
	TypeCategory = "category"
)

// NewID returns a random identifier for backends that assign ids client-side.
func NewID() string {
	return uuid.NewString()
}

// Post is a single piece of content filed under a Category.
type Post struct {
	ID       string // Opaque; the SQLite backend uses the engine rowid
	Title    string
	Link     string // Link or free-form description
	Category string // ID of the owning Category
	Datetime int64  // Publication time in Unix milliseconds, 0 when unset
}

// Category groups posts.
type Category struct {
	ID    string
	Title string
}

// WithID returns a copy of the post carrying id.
func (p Post) WithID(id string) *Post {
	p.ID = id
	return &p
}

// WithID returns a copy of the category carrying id.
func (c Category) WithID(id string) *Category {
	c.ID = id
	return &c
}
