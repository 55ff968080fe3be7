// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package admin serves a read-only HTML view of posts and categories.
package admin

//go:generate templ generate

import (
	"bytes"
	"encoding/hex"
	"log/slog"
	"net/http"
	"strings"

	"github.com/a-h/templ"
	"github.com/go-crypt/x/blake2b"
	"github.com/gorilla/mux"
	"github.com/hwebs/content/core"
	"github.com/hwebs/content/storage"
)

// Source supplies the repositories the admin pages read from.
// *content.Client satisfies it.
type Source interface {
	Posts() storage.PostRepository
	Categories() storage.CategoryRepository
}

type handler struct {
	source Source
	logger *slog.Logger
}

// NewHandler returns a router serving:
//
//	GET /               all posts, or ?category=<id> for one category
//	GET /posts/{id}     a single post
//	GET /categories     every category with its post count
func NewHandler(source Source, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	h := &handler{source: source, logger: logger}

	r := mux.NewRouter()
	r.HandleFunc("/", h.listPosts).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc("/posts/{id}", h.getPost).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc("/categories", h.listCategories).Methods(http.MethodGet, http.MethodHead)
	return r
}

func (h *handler) listPosts(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")
	posts, err := h.source.Posts().ListPosts(r.Context(), category)
	if err != nil {
		h.fail(w, "error listing posts", err)
		return
	}
	title := "Posts"
	if category != "" {
		title = "Posts in " + category
	}
	h.render(w, r, Page(title, PostsTable(posts)))
}

func (h *handler) getPost(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	post, err := h.source.Posts().GetPost(r.Context(), id)
	if err != nil {
		h.fail(w, "error getting post", err)
		return
	}
	if post == nil {
		http.NotFound(w, r)
		return
	}
	h.render(w, r, Page(post.Title, PostsTable([]*core.Post{post})))
}

func (h *handler) listCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.source.Categories().ListCategories(r.Context())
	if err != nil {
		h.fail(w, "error listing categories", err)
		return
	}
	posts, err := h.source.Posts().ListPosts(r.Context(), "")
	if err != nil {
		h.fail(w, "error listing posts", err)
		return
	}
	counts := make(map[string]int, len(categories))
	for _, post := range posts {
		counts[post.Category]++
	}
	h.render(w, r, Page("Categories", CategoriesTable(categories, counts)))
}

// render serves page through templ.Handler into a buffer so the ETag covers
// the exact bytes sent.
func (h *handler) render(w http.ResponseWriter, r *http.Request, page templ.Component) {
	capture := newResponseBuffer()
	templ.Handler(page, templ.WithErrorHandler(func(r *http.Request, err error) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			h.fail(w, "error rendering page", err)
		})
	})).ServeHTTP(capture, r)

	if capture.status != http.StatusOK {
		copyHeaders(w.Header(), capture.header)
		w.WriteHeader(capture.status)
		_, _ = w.Write(capture.body.Bytes())
		return
	}

	tag := etag(capture.body.Bytes())
	w.Header().Set("ETag", tag)
	if matchesETag(r.Header.Get("If-None-Match"), tag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	copyHeaders(w.Header(), capture.header)
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodHead {
		return
	}
	if _, err := w.Write(capture.body.Bytes()); err != nil {
		h.logger.Debug("error writing response", "err", err)
	}
}

// responseBuffer captures what a handler writes.
type responseBuffer struct {
	header http.Header
	status int
	body   bytes.Buffer
}

func newResponseBuffer() *responseBuffer {
	return &responseBuffer{header: make(http.Header), status: http.StatusOK}
}

func (b *responseBuffer) Header() http.Header {
	return b.header
}

func (b *responseBuffer) WriteHeader(status int) {
	b.status = status
}

func (b *responseBuffer) Write(p []byte) (int, error) {
	return b.body.Write(p)
}

func copyHeaders(dst, src http.Header) {
	for key, values := range src {
		for _, value := range values {
			dst.Set(key, value)
		}
	}
}

func (h *handler) fail(w http.ResponseWriter, msg string, err error) {
	h.logger.Error(msg, "err", err)
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

// etag returns a strong entity tag from a 128-bit BLAKE2b digest of body.
func etag(body []byte) string {
	hash, _ := blake2b.New(16, nil) // 16 bytes = 128 bits
	hash.Write(body)
	return `"` + hex.EncodeToString(hash.Sum(nil)) + `"`
}

func matchesETag(header, tag string) bool {
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimSpace(candidate)
		if candidate == "*" || strings.TrimPrefix(candidate, "W/") == tag {
			return true
		}
	}
	return false
}
