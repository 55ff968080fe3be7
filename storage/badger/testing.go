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

package badger

import "github.com/hwebs/content/storage"

// NewRepositories opens a backend in dir and creates both repositories.
// Caller must close the backend when done.
func NewRepositories(dir string) (storage.PostRepository, storage.CategoryRepository, *Backend, error) {
	backend, err := OpenBackend(dir, false)
	if err != nil {
		return nil, nil, nil, err
	}
	return NewPostRepository(backend), NewCategoryRepository(backend), backend, nil
}

// NewMemoryRepositories creates in-memory post and category repositories for testing.
// Caller must close the backend when done.
func NewMemoryRepositories() (storage.PostRepository, storage.CategoryRepository, *Backend, error) {
	backend, err := OpenBackend("", true)
	if err != nil {
		return nil, nil, nil, err
	}
	return NewPostRepository(backend), NewCategoryRepository(backend), backend, nil
}
