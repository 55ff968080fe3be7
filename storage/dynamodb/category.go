package dynamodb

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbattribute"
	"github.com/hwebs/content/core"
	"github.com/hwebs/content/storage"
)

type categoryItem struct {
	ID    string `dynamodbav:"id"`
	Type  string `dynamodbav:"type"`
	Title string `dynamodbav:"title"`
}

func (item categoryItem) toCategory() *core.Category {
	return &core.Category{ID: item.ID, Title: item.Title}
}

// CategoryRepository implements storage.CategoryRepository for DynamoDB.
type CategoryRepository struct {
	backend *Backend
}

var _ storage.CategoryRepository = (*CategoryRepository)(nil)

// NewCategoryRepository creates a new CategoryRepository.
func NewCategoryRepository(backend *Backend) *CategoryRepository {
	return &CategoryRepository{backend: backend}
}

// Close releases resources. CategoryRepository has no resources to release.
func (r *CategoryRepository) Close() error {
	return nil
}

func (r *CategoryRepository) GetCategory(ctx context.Context, id string) (*core.Category, error) {
	if id == "" {
		return nil, nil
	}
	out, err := r.backend.client.GetItemWithContext(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.backend.table),
		Key:            itemKey(id, core.TypeCategory),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("get category %s: %w", id, err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}
	var item categoryItem
	if err := dynamodbattribute.UnmarshalMap(out.Item, &item); err != nil {
		return nil, fmt.Errorf("decode category %s: %w", id, err)
	}
	return item.toCategory(), nil
}

// ListCategories scans the base table for category items.
func (r *CategoryRepository) ListCategories(ctx context.Context) ([]*core.Category, error) {
	input := &dynamodb.ScanInput{
		TableName:                aws.String(r.backend.table),
		FilterExpression:         aws.String("#type = :t"),
		ExpressionAttributeNames: map[string]*string{"#type": aws.String(attrType)},
		ExpressionAttributeValues: map[string]*dynamodb.AttributeValue{
			":t": {S: aws.String(core.TypeCategory)},
		},
	}

	results := []*core.Category{}
	var decodeErr error
	err := r.backend.client.ScanPagesWithContext(ctx, input, func(page *dynamodb.ScanOutput, lastPage bool) bool {
		var items []categoryItem
		if decodeErr = dynamodbattribute.UnmarshalListOfMaps(page.Items, &items); decodeErr != nil {
			return false
		}
		for _, item := range items {
			results = append(results, item.toCategory())
		}
		return true
	})
	if err != nil {
		return nil, fmt.Errorf("scan categories: %w", err)
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("decode categories: %w", decodeErr)
	}
	return results, nil
}

func (r *CategoryRepository) CreateCategory(ctx context.Context, title string) (*core.Category, error) {
	if err := core.ValidateCategoryTitle(title); err != nil {
		return nil, err
	}
	item := categoryItem{ID: core.NewID(), Type: core.TypeCategory, Title: title}
	av, err := dynamodbattribute.MarshalMap(item)
	if err != nil {
		return nil, fmt.Errorf("encode category: %w", err)
	}
	if _, err := r.backend.client.PutItemWithContext(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.backend.table),
		Item:      av,
	}); err != nil {
		return nil, fmt.Errorf("put category: %w", err)
	}
	return item.toCategory(), nil
}

// UpdateCategory sets the title of an existing category. A category that
// does not exist is reported as nil, nil.
func (r *CategoryRepository) UpdateCategory(ctx context.Context, id, title string) (*core.Category, error) {
	if err := core.ValidateCategoryTitle(title); err != nil {
		return nil, err
	}
	if id == "" {
		return nil, nil
	}
	out, err := r.backend.client.UpdateItemWithContext(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(r.backend.table),
		Key:                 itemKey(id, core.TypeCategory),
		UpdateExpression:    aws.String("SET title = :t"),
		ConditionExpression: aws.String("attribute_exists(id)"),
		ExpressionAttributeValues: map[string]*dynamodb.AttributeValue{
			":t": {S: aws.String(title)},
		},
		ReturnValues: aws.String(dynamodb.ReturnValueAllNew),
	})
	if err != nil {
		if isCode(err, dynamodb.ErrCodeConditionalCheckFailedException) {
			return nil, nil
		}
		return nil, fmt.Errorf("update category %s: %w", id, err)
	}
	var item categoryItem
	if err := dynamodbattribute.UnmarshalMap(out.Attributes, &item); err != nil {
		return nil, fmt.Errorf("decode category %s: %w", id, err)
	}
	return item.toCategory(), nil
}

// RemoveCategory deletes the category. Posts that reference it are kept.
func (r *CategoryRepository) RemoveCategory(ctx context.Context, id string) (string, error) {
	if id == "" {
		return id, nil
	}
	if _, err := r.backend.client.DeleteItemWithContext(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.backend.table),
		Key:       itemKey(id, core.TypeCategory),
	}); err != nil {
		return "", fmt.Errorf("remove category %s: %w", id, err)
	}
	return id, nil
}
