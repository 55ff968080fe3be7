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


package storage

import (
	"fmt"

	"github.com/hwebs/content/core"
	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"
)

// PostMUS encodes a Post as ID, Title, Link, Category (length-prefixed
// strings) followed by Datetime (zig-zag varint).
var PostMUS = postMUS{}

// CategoryMUS encodes a Category as ID then Title.
var CategoryMUS = categoryMUS{}

type postMUS struct{}

func (postMUS) Marshal(v core.Post, bs []byte) (n int) {
	n = ord.String.Marshal(v.ID, bs)
	n += ord.String.Marshal(v.Title, bs[n:])
	n += ord.String.Marshal(v.Link, bs[n:])
	n += ord.String.Marshal(v.Category, bs[n:])
	return n + varint.Int64.Marshal(v.Datetime, bs[n:])
}

func (postMUS) Unmarshal(bs []byte) (v core.Post, n int, err error) {
	var n1 int
	v.ID, n, err = ord.String.Unmarshal(bs)
	if err != nil {
		return
	}
	v.Title, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Link, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Category, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Datetime, n1, err = varint.Int64.Unmarshal(bs[n:])
	n += n1
	return
}

func (postMUS) Size(v core.Post) (size int) {
	size = ord.String.Size(v.ID)
	size += ord.String.Size(v.Title)
	size += ord.String.Size(v.Link)
	size += ord.String.Size(v.Category)
	return size + varint.Int64.Size(v.Datetime)
}

type categoryMUS struct{}

func (categoryMUS) Marshal(v core.Category, bs []byte) (n int) {
	n = ord.String.Marshal(v.ID, bs)
	return n + ord.String.Marshal(v.Title, bs[n:])
}

func (categoryMUS) Unmarshal(bs []byte) (v core.Category, n int, err error) {
	var n1 int
	v.ID, n, err = ord.String.Unmarshal(bs)
	if err != nil {
		return
	}
	v.Title, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	return
}

func (categoryMUS) Size(v core.Category) (size int) {
	return ord.String.Size(v.ID) + ord.String.Size(v.Title)
}

// MarshalPost serializes a Post to bytes.
func MarshalPost(post *core.Post) []byte {
	buf := make([]byte, PostMUS.Size(*post))
	PostMUS.Marshal(*post, buf)
	return buf
}

// UnmarshalPost deserializes a Post from bytes.
// Trailing bytes after a complete record are reported as ErrTruncatedData.
func UnmarshalPost(data []byte) (*core.Post, error) {
	post, n, err := PostMUS.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: post: %w", ErrSerializationFailed, err)
	}
	if n != len(data) {
		return nil, fmt.Errorf("%w: post: %w", ErrSerializationFailed, ErrTruncatedData)
	}
	return &post, nil
}

// MarshalCategory serializes a Category to bytes.
func MarshalCategory(category *core.Category) []byte {
	buf := make([]byte, CategoryMUS.Size(*category))
	CategoryMUS.Marshal(*category, buf)
	return buf
}

// UnmarshalCategory deserializes a Category from bytes.
func UnmarshalCategory(data []byte) (*core.Category, error) {
	category, n, err := CategoryMUS.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: category: %w", ErrSerializationFailed, err)
	}
	if n != len(data) {
		return nil, fmt.Errorf("%w: category: %w", ErrSerializationFailed, ErrTruncatedData)
	}
	return &category, nil
}
