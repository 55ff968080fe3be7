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

// Package config describes which content backend to open and how to reach it.
package config

import (
	"errors"
	"fmt"
	"strings"
)

// Backend names accepted in Config.Backend.
const (
	BackendSQLite   = "sqlite"
	BackendDynamoDB = "dynamodb"
	BackendMemory   = "memory"
	BackendBadger   = "badger"
)

// Config holds the backend selection and per-backend settings.
type Config struct {
	// Backend selects the storage engine: sqlite, dynamodb, memory or badger.
	Backend string `env:"CLIENT"`

	// SQLiteFile is the database file path, or ":memory:".
	SQLiteFile string `env:"SQLITE_DB_FILE"`

	// DynamoDBEndpoint overrides the service endpoint.
	// Example: "http://localhost:8000" for DynamoDB Local
	DynamoDBEndpoint string `env:"DYNAMODB_ENDPOINT"`

	// DynamoDBRegion is the AWS region.
	// Default: "us-east-1"
	DynamoDBRegion string `env:"DYNAMODB_REGION" envDefault:"us-east-1"`

	// DynamoDBPort is the local port used to derive an endpoint when
	// DynamoDBEndpoint is empty. Zero leaves the SDK's regional endpoint.
	// Default: 8000
	DynamoDBPort int `env:"DYNAMODB_PORT" envDefault:"8000"`

	// DynamoDBTable is the single table holding posts and categories.
	// Default: "Items"
	DynamoDBTable string `env:"DYNAMODB_TABLE" envDefault:"Items"`

	// DynamoDBIndex is the post index hashed on category.
	// Default: "post-index"
	DynamoDBIndex string `env:"DYNAMODB_INDEX" envDefault:"post-index"`

	// BadgerDir is the directory of the embedded store.
	BadgerDir string `env:"BADGER_DIR"`
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithBackend selects the storage engine.
func WithBackend(backend string) ConfigOption {
	return func(c *Config) {
		c.Backend = backend
	}
}

// WithSQLiteFile sets the SQLite database path.
func WithSQLiteFile(path string) ConfigOption {
	return func(c *Config) {
		c.SQLiteFile = path
	}
}

// WithDynamoDBEndpoint sets an explicit DynamoDB endpoint.
func WithDynamoDBEndpoint(endpoint string) ConfigOption {
	return func(c *Config) {
		c.DynamoDBEndpoint = endpoint
	}
}

// WithDynamoDBRegion sets the AWS region.
func WithDynamoDBRegion(region string) ConfigOption {
	return func(c *Config) {
		c.DynamoDBRegion = region
	}
}

// WithDynamoDBPort sets the local port for the derived endpoint.
func WithDynamoDBPort(port int) ConfigOption {
	return func(c *Config) {
		c.DynamoDBPort = port
	}
}

// WithDynamoDBTable sets the table and index names.
func WithDynamoDBTable(table, index string) ConfigOption {
	return func(c *Config) {
		c.DynamoDBTable = table
		c.DynamoDBIndex = index
	}
}

// WithBadgerDir sets the badger data directory.
func WithBadgerDir(dir string) ConfigOption {
	return func(c *Config) {
		c.BadgerDir = dir
	}
}

// DefaultConfig returns a Config with the DynamoDB defaults filled in and
// no backend selected.
func DefaultConfig() *Config {
	return &Config{
		DynamoDBRegion: "us-east-1",
		DynamoDBPort:   8000,
		DynamoDBTable:  "Items",
		DynamoDBIndex:  "post-index",
	}
}

// NewConfig creates a Config with the default values and applies the provided options.
//
// Example:
//
//	cfg := NewConfig(
//	    WithBackend(BackendSQLite),
//	    WithSQLiteFile("content.db"),
//	)
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Normalize puts the configuration in canonical form. It lower-cases the
// backend name and derives the DynamoDB endpoint from the port when none
// was given.
func (c *Config) Normalize() {
	c.Backend = strings.ToLower(strings.TrimSpace(c.Backend))
	c.DynamoDBEndpoint = strings.TrimSuffix(strings.TrimSpace(c.DynamoDBEndpoint), "/")
	if c.DynamoDBEndpoint == "" && c.DynamoDBPort > 0 {
		c.DynamoDBEndpoint = fmt.Sprintf("http://localhost:%d", c.DynamoDBPort)
	}
}

// Validate checks that the settings the selected backend needs are present.
// It automatically normalizes the configuration before validation.
func (c *Config) Validate() error {
	c.Normalize()

	switch c.Backend {
	case "":
		return errors.New("config: Backend is required")
	case BackendSQLite:
		if c.SQLiteFile == "" {
			return errors.New("config: SQLiteFile is required for the sqlite backend")
		}
	case BackendDynamoDB:
		if c.DynamoDBRegion == "" {
			return errors.New("config: DynamoDBRegion is required for the dynamodb backend")
		}
		if c.DynamoDBTable == "" || c.DynamoDBIndex == "" {
			return errors.New("config: DynamoDBTable and DynamoDBIndex are required for the dynamodb backend")
		}
		if c.DynamoDBPort < 0 {
			return errors.New("config: DynamoDBPort must not be negative")
		}
	case BackendBadger:
		if c.BadgerDir == "" {
			return errors.New("config: BadgerDir is required for the badger backend")
		}
	}
	return nil
}
