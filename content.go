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

package content

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hwebs/content/config"
	"github.com/hwebs/content/storage"
	"github.com/hwebs/content/storage/badger"
	"github.com/hwebs/content/storage/dynamodb"
	"github.com/hwebs/content/storage/memory"
	"github.com/hwebs/content/storage/sqlite"
)

// ErrUnsupportedBackend is returned by NewClient when the configured backend
// name is not recognized.
var ErrUnsupportedBackend = errors.New("unsupported content backend")

// backend is what every storage engine exposes besides its repositories.
type backend interface {
	storage.Resetter
	Close() error
}

// Client bundles the post and category repositories of one backend.
type Client struct {
	name       string
	backend    backend
	posts      storage.PostRepository
	categories storage.CategoryRepository
	logger     *slog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*clientOptions)

type clientOptions struct {
	logger *slog.Logger
}

// WithLogger sets the logger used for lifecycle messages.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(o *clientOptions) {
		o.logger = logger
	}
}

// NewClient opens the backend named by cfg.Backend. cfg is not modified; a
// nil cfg means config.DefaultConfig().
func NewClient(cfg *config.Config, opts ...ClientOption) (*Client, error) {
	options := &clientOptions{
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(options)
	}

	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	normalized := *cfg
	normalized.Normalize()
	cfg = &normalized

	switch cfg.Backend {
	case config.BackendSQLite, config.BackendDynamoDB, config.BackendMemory, config.BackendBadger:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedBackend, cfg.Backend)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	client := &Client{
		name:   cfg.Backend,
		logger: options.logger,
	}
	switch cfg.Backend {
	case config.BackendSQLite:
		posts, categories, b, err := sqlite.NewRepositories(cfg.SQLiteFile)
		if err != nil {
			return nil, err
		}
		client.posts, client.categories, client.backend = posts, categories, b
	case config.BackendDynamoDB:
		posts, categories, b, err := dynamodb.NewRepositories(dynamodb.Options{
			Region:   cfg.DynamoDBRegion,
			Endpoint: cfg.DynamoDBEndpoint,
			Table:    cfg.DynamoDBTable,
			Index:    cfg.DynamoDBIndex,
		})
		if err != nil {
			return nil, err
		}
		client.posts, client.categories, client.backend = posts, categories, b
	case config.BackendMemory:
		posts, categories, b := memory.NewRepositories()
		client.posts, client.categories, client.backend = posts, categories, b
	case config.BackendBadger:
		posts, categories, b, err := badger.NewRepositories(cfg.BadgerDir)
		if err != nil {
			return nil, err
		}
		client.posts, client.categories, client.backend = posts, categories, b
	}

	client.logger.Debug("opened content backend", "backend", client.name)
	return client, nil
}

// Backend returns the name of the storage engine in use.
func (c *Client) Backend() string {
	return c.name
}

func (c *Client) Posts() storage.PostRepository {
	return c.posts
}

func (c *Client) Categories() storage.CategoryRepository {
	return c.categories
}

// Reset empties the backend, recreating its schema where it has one.
func (c *Client) Reset(ctx context.Context) error {
	return c.backend.Reset(ctx)
}

func (c *Client) Close() error {
	if err := c.categories.Close(); err != nil {
		c.logger.Error("error closing category repository", "err", err)
		return err
	}
	if err := c.posts.Close(); err != nil {
		c.logger.Error("error closing post repository", "err", err)
		return err
	}
	if err := c.backend.Close(); err != nil {
		c.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}
