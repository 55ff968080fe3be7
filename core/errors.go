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


package core

import "errors"

// Domain validation errors
var (
	// ErrInvalidPost indicates a Post failed validation.
	ErrInvalidPost = errors.New("invalid post")

	// ErrInvalidCategory indicates a Category failed validation.
	ErrInvalidCategory = errors.New("invalid category")

	// ErrEmptyTitle indicates the Title field is empty.
	ErrEmptyTitle = errors.New("title cannot be empty")

	// ErrEmptyCategoryRef indicates a Post does not name a category.
	ErrEmptyCategoryRef = errors.New("category cannot be empty")

	// ErrNegativeDatetime indicates a Post timestamp before the epoch.
	ErrNegativeDatetime = errors.New("datetime cannot be negative")
)
