package dynamodb

import (
	"context"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbattribute"
	"github.com/hwebs/content/core"
	"github.com/hwebs/content/storage"
)

// postItem is the stored shape of a post.
type postItem struct {
	ID       string `dynamodbav:"id"`
	Type     string `dynamodbav:"type"`
	Title    string `dynamodbav:"title"`
	Link     string `dynamodbav:"link"`
	Category string `dynamodbav:"category"`
	Datetime int64  `dynamodbav:"datetime"`
}

func (item postItem) toPost() *core.Post {
	return &core.Post{
		ID:       item.ID,
		Title:    item.Title,
		Link:     item.Link,
		Category: item.Category,
		Datetime: item.Datetime,
	}
}

// PostRepository implements storage.PostRepository for DynamoDB.
type PostRepository struct {
	backend *Backend
}

var _ storage.PostRepository = (*PostRepository)(nil)

// NewPostRepository creates a new PostRepository.
func NewPostRepository(backend *Backend) *PostRepository {
	return &PostRepository{backend: backend}
}

// Close releases resources. PostRepository has no resources to release.
func (r *PostRepository) Close() error {
	return nil
}

// GetPost performs a strongly consistent read of one post. DynamoDB rejects
// empty key values, so an empty id is absent without a request.
func (r *PostRepository) GetPost(ctx context.Context, id string) (*core.Post, error) {
	if id == "" {
		return nil, nil
	}
	out, err := r.backend.client.GetItemWithContext(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.backend.table),
		Key:            itemKey(id, core.TypePost),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("get post %s: %w", id, err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}
	var item postItem
	if err := dynamodbattribute.UnmarshalMap(out.Item, &item); err != nil {
		return nil, fmt.Errorf("decode post %s: %w", id, err)
	}
	return item.toPost(), nil
}

// ListPosts scans the post index, following every page.
func (r *PostRepository) ListPosts(ctx context.Context, category string) ([]*core.Post, error) {
	input := &dynamodb.ScanInput{
		TableName:                aws.String(r.backend.table),
		IndexName:                aws.String(r.backend.index),
		FilterExpression:         aws.String("#type = :t"),
		ExpressionAttributeNames: map[string]*string{"#type": aws.String(attrType)},
		ExpressionAttributeValues: map[string]*dynamodb.AttributeValue{
			":t": {S: aws.String(core.TypePost)},
		},
	}
	if category != "" {
		input.FilterExpression = aws.String("#type = :t AND category = :c")
		input.ExpressionAttributeValues[":c"] = &dynamodb.AttributeValue{S: aws.String(category)}
	}

	results := []*core.Post{}
	var decodeErr error
	err := r.backend.client.ScanPagesWithContext(ctx, input, func(page *dynamodb.ScanOutput, lastPage bool) bool {
		var items []postItem
		if decodeErr = dynamodbattribute.UnmarshalListOfMaps(page.Items, &items); decodeErr != nil {
			return false
		}
		for _, item := range items {
			results = append(results, item.toPost())
		}
		return true
	})
	if err != nil {
		return nil, fmt.Errorf("scan posts: %w", err)
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("decode posts: %w", decodeErr)
	}
	return results, nil
}

// CreatePost confirms the category exists, then writes the post under a
// new UUID. The read and the write are separate requests, so a category
// removed in between leaves an orphaned post.
func (r *PostRepository) CreatePost(ctx context.Context, post core.Post) (*core.Post, error) {
	if err := core.ValidatePost(&post); err != nil {
		return nil, err
	}

	categories := NewCategoryRepository(r.backend)
	category, err := categories.GetCategory(ctx, post.Category)
	if err != nil {
		return nil, err
	}
	if category == nil {
		return nil, fmt.Errorf("%w: %s", storage.ErrCategoryNotFound, post.Category)
	}

	item := postItem{
		ID:       core.NewID(),
		Type:     core.TypePost,
		Title:    post.Title,
		Link:     post.Link,
		Category: post.Category,
		Datetime: post.Datetime,
	}
	av, err := dynamodbattribute.MarshalMap(item)
	if err != nil {
		return nil, fmt.Errorf("encode post: %w", err)
	}
	if _, err := r.backend.client.PutItemWithContext(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.backend.table),
		Item:      av,
	}); err != nil {
		return nil, fmt.Errorf("put post: %w", err)
	}
	return item.toPost(), nil
}

// UpdatePost overwrites every mutable attribute of an existing post.
// A post that does not exist is reported as nil, nil.
func (r *PostRepository) UpdatePost(ctx context.Context, id string, post core.Post) (*core.Post, error) {
	if err := core.ValidatePost(&post); err != nil {
		return nil, err
	}
	if id == "" {
		return nil, nil
	}

	out, err := r.backend.client.UpdateItemWithContext(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(r.backend.table),
		Key:                 itemKey(id, core.TypePost),
		UpdateExpression:    aws.String("SET title = :t, link = :l, category = :c, #datetime = :d"),
		ConditionExpression: aws.String("attribute_exists(id)"),
		ExpressionAttributeNames: map[string]*string{
			"#datetime": aws.String("datetime"),
		},
		ExpressionAttributeValues: map[string]*dynamodb.AttributeValue{
			":t": {S: aws.String(post.Title)},
			":l": {S: aws.String(post.Link)},
			":c": {S: aws.String(post.Category)},
			":d": {N: aws.String(strconv.FormatInt(post.Datetime, 10))},
		},
		ReturnValues: aws.String(dynamodb.ReturnValueAllNew),
	})
	if err != nil {
		if isCode(err, dynamodb.ErrCodeConditionalCheckFailedException) {
			return nil, nil
		}
		return nil, fmt.Errorf("update post %s: %w", id, err)
	}

	var item postItem
	if err := dynamodbattribute.UnmarshalMap(out.Attributes, &item); err != nil {
		return nil, fmt.Errorf("decode post %s: %w", id, err)
	}
	return item.toPost(), nil
}

// RemovePost deletes the post and returns id whether or not it existed.
func (r *PostRepository) RemovePost(ctx context.Context, id string) (string, error) {
	if id == "" {
		return id, nil
	}
	if _, err := r.backend.client.DeleteItemWithContext(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.backend.table),
		Key:       itemKey(id, core.TypePost),
	}); err != nil {
		return "", fmt.Errorf("remove post %s: %w", id, err)
	}
	return id, nil
}
