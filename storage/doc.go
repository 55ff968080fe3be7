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


// Package storage provides the storage abstraction layer for the content client.
//
// This package defines repository interfaces that decouple storage
// implementation from application code. Four backends implement them and
// are used interchangeably:
//
//   - sqlite: embedded relational store; post IDs are engine rowids
//   - dynamodb: one wide table holding both entity kinds, discriminated by type
//   - badger: embedded key-value store with a category index
//   - memory: process-local maps, for tests and demos
//
// # Absent Records
//
// Get and Update report a missing record as a nil result with a nil error.
// Remove returns the identifier it was given whether or not a record existed.
//
// # Referential Integrity
//
// Post creation requires an existing category on sqlite (foreign key),
// dynamodb (read-then-write, not atomic) and badger (checked in the write
// transaction). The memory backend does not check.
//
// # Usage
//
//	posts, categories, backend, err := sqlite.NewRepositories(":memory:")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer backend.Close()
//
//	music, err := categories.CreateCategory(ctx, "Music")
//	post, err := posts.CreatePost(ctx, core.Post{Title: "...", Category: music.ID})
//
// # Context Support
//
// All repository methods accept context.Context. It is passed down to the
// engine client where the client supports it; there is no separate timeout
// or retry layer.
package storage
