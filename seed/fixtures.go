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

package seed

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Fixtures is a set of categories and the posts filed under them.
type Fixtures struct {
	Categories []string      `yaml:"categories"`
	Posts      []FixturePost `yaml:"posts"`
}

// FixturePost names its category by title rather than identifier, since
// identifiers are only assigned when the category is created.
type FixturePost struct {
	Title    string `yaml:"title"`
	Link     string `yaml:"link"`
	Category string `yaml:"category"`
	Datetime int64  `yaml:"datetime"`
}

// DefaultFixtures returns the built-in fixture set.
func DefaultFixtures() *Fixtures {
	return &Fixtures{
		Categories: []string{"Code", "Games", "Music", "Animation", "About"},
		Posts: []FixturePost{
			{
				Title:    "death ray of peace - Urbane Living",
				Link:     "https://deathrayop.bandcamp.com/album/urbane-living",
				Category: "Music",
				Datetime: 1534996800000,
			},
			{
				Title:    "death ray of peace - music for strangers",
				Link:     "https://deathrayop.bandcamp.com/album/music-for-strangers",
				Category: "Music",
				Datetime: 1450846800000,
			},
		},
	}
}

// LoadFixtures reads a YAML fixture file and validates it.
func LoadFixtures(path string) (*Fixtures, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var fixtures Fixtures
	if err := yaml.Unmarshal(data, &fixtures); err != nil {
		return nil, fmt.Errorf("parse fixtures %s: %w", path, err)
	}
	if err := fixtures.Validate(); err != nil {
		return nil, fmt.Errorf("fixtures %s: %w", path, err)
	}
	return &fixtures, nil
}

// Validate checks that titles are unique and every post names a defined category.
func (f *Fixtures) Validate() error {
	seen := make(map[string]struct{}, len(f.Categories))
	for _, title := range f.Categories {
		if _, ok := seen[title]; ok {
			return fmt.Errorf("%w: %q", ErrDuplicateCategory, title)
		}
		seen[title] = struct{}{}
	}
	for _, post := range f.Posts {
		if _, ok := seen[post.Category]; !ok {
			return fmt.Errorf("%w: post %q names %q", ErrUnknownCategory, post.Title, post.Category)
		}
	}
	return nil
}
