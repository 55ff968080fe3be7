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

// Package dynamodb stores posts and categories in a single DynamoDB table.
//
// Every item is keyed by id (hash) and type (range), where type is "post"
// or "category". A global secondary index hashed on category holds only
// posts, since categories carry no category attribute.
package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbiface"
	"github.com/hwebs/content/storage"
)

const (
	DefaultTable  = "Items"
	DefaultIndex  = "post-index"
	DefaultRegion = "us-east-1"

	attrID       = "id"
	attrType     = "type"
	attrCategory = "category"
)

// Options configures how OpenBackend reaches DynamoDB.
type Options struct {
	Region   string
	Endpoint string
	Table    string
	Index    string
}

func (o Options) withDefaults() Options {
	if o.Region == "" {
		o.Region = DefaultRegion
	}
	if o.Table == "" {
		o.Table = DefaultTable
	}
	if o.Index == "" {
		o.Index = DefaultIndex
	}
	return o
}

// Backend holds the DynamoDB client and the table it works against.
type Backend struct {
	client dynamodbiface.DynamoDBAPI
	table  string
	index  string
	logger *slog.Logger
}

var _ storage.Resetter = (*Backend)(nil)

// OpenBackend builds a client from opts. Credentials come from the standard
// AWS provider chain.
func OpenBackend(opts Options) (*Backend, error) {
	opts = opts.withDefaults()

	awsCfg := aws.NewConfig().WithRegion(opts.Region)
	if opts.Endpoint != "" {
		awsCfg = awsCfg.WithEndpoint(opts.Endpoint)
	}
	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, fmt.Errorf("error creating AWS session: %w", err)
	}
	return NewBackend(dynamodb.New(sess), opts.Table, opts.Index), nil
}

// NewBackend wraps an existing client. Empty table or index names fall back
// to the defaults.
func NewBackend(client dynamodbiface.DynamoDBAPI, table, index string) *Backend {
	if table == "" {
		table = DefaultTable
	}
	if index == "" {
		index = DefaultIndex
	}
	return &Backend{
		client: client,
		table:  table,
		index:  index,
		logger: slog.Default(),
	}
}

// Close is a no-op; the SDK client holds no resources that need releasing.
func (b *Backend) Close() error {
	return nil
}

// Table returns the table name.
func (b *Backend) Table() string {
	return b.table
}

// Reset deletes the table if present and creates it again, empty.
func (b *Backend) Reset(ctx context.Context) error {
	_, err := b.client.DeleteTableWithContext(ctx, &dynamodb.DeleteTableInput{
		TableName: aws.String(b.table),
	})
	switch {
	case err == nil:
		if err := b.client.WaitUntilTableNotExistsWithContext(ctx, &dynamodb.DescribeTableInput{
			TableName: aws.String(b.table),
		}); err != nil {
			return fmt.Errorf("wait for table %s deletion: %w", b.table, err)
		}
	case isCode(err, dynamodb.ErrCodeResourceNotFoundException):
		b.logger.Debug("table did not exist", "table", b.table)
	default:
		return fmt.Errorf("delete table %s: %w", b.table, err)
	}
	return b.EnsureTable(ctx)
}

// EnsureTable creates the table and its post index unless it already exists.
func (b *Backend) EnsureTable(ctx context.Context) error {
	_, err := b.client.CreateTableWithContext(ctx, b.createTableInput())
	if err != nil {
		if isCode(err, dynamodb.ErrCodeResourceInUseException) {
			return nil
		}
		return fmt.Errorf("create table %s: %w", b.table, err)
	}
	if err := b.client.WaitUntilTableExistsWithContext(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(b.table),
	}); err != nil {
		return fmt.Errorf("wait for table %s: %w", b.table, err)
	}
	b.logger.Info("created table", "table", b.table, "index", b.index)
	return nil
}

func (b *Backend) createTableInput() *dynamodb.CreateTableInput {
	return &dynamodb.CreateTableInput{
		TableName:   aws.String(b.table),
		BillingMode: aws.String(dynamodb.BillingModePayPerRequest),
		AttributeDefinitions: []*dynamodb.AttributeDefinition{
			{AttributeName: aws.String(attrID), AttributeType: aws.String(dynamodb.ScalarAttributeTypeS)},
			{AttributeName: aws.String(attrType), AttributeType: aws.String(dynamodb.ScalarAttributeTypeS)},
			{AttributeName: aws.String(attrCategory), AttributeType: aws.String(dynamodb.ScalarAttributeTypeS)},
		},
		KeySchema: []*dynamodb.KeySchemaElement{
			{AttributeName: aws.String(attrID), KeyType: aws.String(dynamodb.KeyTypeHash)},
			{AttributeName: aws.String(attrType), KeyType: aws.String(dynamodb.KeyTypeRange)},
		},
		GlobalSecondaryIndexes: []*dynamodb.GlobalSecondaryIndex{
			{
				IndexName: aws.String(b.index),
				KeySchema: []*dynamodb.KeySchemaElement{
					{AttributeName: aws.String(attrCategory), KeyType: aws.String(dynamodb.KeyTypeHash)},
				},
				Projection: &dynamodb.Projection{
					ProjectionType: aws.String(dynamodb.ProjectionTypeAll),
				},
			},
		},
	}
}

func itemKey(id, typ string) map[string]*dynamodb.AttributeValue {
	return map[string]*dynamodb.AttributeValue{
		attrID:   {S: aws.String(id)},
		attrType: {S: aws.String(typ)},
	}
}

func isCode(err error, code string) bool {
	var aerr awserr.Error
	return errors.As(err, &aerr) && aerr.Code() == code
}

// NewRepositories opens a backend and creates both repositories.
func NewRepositories(opts Options) (storage.PostRepository, storage.CategoryRepository, *Backend, error) {
	backend, err := OpenBackend(opts)
	if err != nil {
		return nil, nil, nil, err
	}
	return NewPostRepository(backend), NewCategoryRepository(backend), backend, nil
}
