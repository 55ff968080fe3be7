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

import (
	"fmt"
	"strings"
)

// ValidatePost validates the mutable fields of a Post.
//
// Validation rules:
//   - Title must not be blank
//   - Category must not be blank
//   - Datetime must not be negative
//
// NOT validated:
//   - ID (assigned by the backend on create, passed separately on update)
//   - Link (may be empty)
//   - Category existence (checked by the backends that enforce it)
func ValidatePost(post *Post) error {
	if post == nil {
		return fmt.Errorf("%w: post is nil", ErrInvalidPost)
	}

	if strings.TrimSpace(post.Title) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidPost, ErrEmptyTitle)
	}

	if strings.TrimSpace(post.Category) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidPost, ErrEmptyCategoryRef)
	}

	if post.Datetime < 0 {
		return fmt.Errorf("%w: %w", ErrInvalidPost, ErrNegativeDatetime)
	}

	return nil
}

// ValidateCategoryTitle validates the only mutable field of a Category.
func ValidateCategoryTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidCategory, ErrEmptyTitle)
	}
	return nil
}
