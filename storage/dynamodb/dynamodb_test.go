package dynamodb

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/hwebs/content/core"
	"github.com/hwebs/content/storage"
	"github.com/hwebs/content/storage/storagetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFakeRepositories(t *testing.T) (*fakeTable, *PostRepository, *CategoryRepository, *Backend) {
	t.Helper()
	fake := newFakeTable()
	backend := NewBackend(fake, "", "")
	return fake, NewPostRepository(backend), NewCategoryRepository(backend), backend
}

func TestContract(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) (storage.PostRepository, storage.CategoryRepository) {
		_, posts, categories, _ := newFakeRepositories(t)
		return posts, categories
	}, storagetest.Options{
		EnforcesCategory:         true,
		RestrictsCategoryRemoval: false,
	})
}

func TestNewBackend_Defaults(t *testing.T) {
	backend := NewBackend(newFakeTable(), "", "")
	assert.Equal(t, "Items", backend.table)
	assert.Equal(t, "post-index", backend.index)

	backend = NewBackend(newFakeTable(), "Content", "by-category")
	assert.Equal(t, "Content", backend.Table())
	assert.Equal(t, "by-category", backend.index)
}

func TestGetPost_ConsistentRead(t *testing.T) {
	fake, posts, _, _ := newFakeRepositories(t)

	got, err := posts.GetPost(context.Background(), "abc")
	require.NoError(t, err)
	assert.Nil(t, got)

	require.Len(t, fake.gets, 1)
	in := fake.gets[0]
	assert.Equal(t, "Items", aws.StringValue(in.TableName))
	assert.True(t, aws.BoolValue(in.ConsistentRead))
	assert.Equal(t, "abc", aws.StringValue(in.Key["id"].S))
	assert.Equal(t, "post", aws.StringValue(in.Key["type"].S))
}

func TestEmptyIDIsAbsent(t *testing.T) {
	fake, posts, categories, _ := newFakeRepositories(t)
	ctx := context.Background()

	post, err := posts.GetPost(ctx, "")
	require.NoError(t, err)
	assert.Nil(t, post)

	post, err = posts.UpdatePost(ctx, "", core.Post{Title: "t", Category: "c"})
	require.NoError(t, err)
	assert.Nil(t, post)

	id, err := posts.RemovePost(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, id)

	category, err := categories.GetCategory(ctx, "")
	require.NoError(t, err)
	assert.Nil(t, category)

	category, err = categories.UpdateCategory(ctx, "", "Music")
	require.NoError(t, err)
	assert.Nil(t, category)

	id, err = categories.RemoveCategory(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, id)

	assert.Empty(t, fake.gets)
	assert.Empty(t, fake.updates)
}

func TestFakeTable_RejectsEmptyKey(t *testing.T) {
	fake := newFakeTable()

	_, err := fake.GetItemWithContext(context.Background(), &dynamodb.GetItemInput{
		Key: itemKey("", core.TypePost),
	})
	assert.True(t, isCode(err, "ValidationException"))
}

func TestGetPost_PropagatesError(t *testing.T) {
	fake, posts, _, _ := newFakeRepositories(t)
	boom := errors.New("throttled")
	fake.getErr = boom

	_, err := posts.GetPost(context.Background(), "abc")
	assert.ErrorIs(t, err, boom)
}

func TestListPosts_ScanShape(t *testing.T) {
	fake, posts, categories, _ := newFakeRepositories(t)
	ctx := context.Background()

	music, err := categories.CreateCategory(ctx, "Music")
	require.NoError(t, err)
	for _, title := range []string{"a", "b", "c"} {
		_, err := posts.CreatePost(ctx, core.Post{Title: title, Category: music.ID})
		require.NoError(t, err)
	}

	all, err := posts.ListPosts(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3, "every page is collected")

	in := fake.scans[len(fake.scans)-1]
	assert.Equal(t, "post-index", aws.StringValue(in.IndexName))
	assert.Equal(t, "#type = :t", aws.StringValue(in.FilterExpression))
	assert.Equal(t, "type", aws.StringValue(in.ExpressionAttributeNames["#type"]))
	assert.Equal(t, "post", aws.StringValue(in.ExpressionAttributeValues[":t"].S))

	filtered, err := posts.ListPosts(ctx, music.ID)
	require.NoError(t, err)
	assert.Len(t, filtered, 3)

	in = fake.scans[len(fake.scans)-1]
	assert.Equal(t, "#type = :t AND category = :c", aws.StringValue(in.FilterExpression))
	assert.Equal(t, music.ID, aws.StringValue(in.ExpressionAttributeValues[":c"].S))
}

func TestListCategories_ScansBaseTable(t *testing.T) {
	fake, _, categories, _ := newFakeRepositories(t)

	all, err := categories.ListCategories(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)

	require.Len(t, fake.scans, 1)
	assert.Nil(t, fake.scans[0].IndexName)
	assert.Equal(t, "category", aws.StringValue(fake.scans[0].ExpressionAttributeValues[":t"].S))
}

func TestCreatePost_UnknownCategory(t *testing.T) {
	fake, posts, _, _ := newFakeRepositories(t)

	_, err := posts.CreatePost(context.Background(), core.Post{Title: "t", Category: "missing"})
	require.ErrorIs(t, err, storage.ErrCategoryNotFound)

	require.Len(t, fake.gets, 1)
	assert.Equal(t, "missing", aws.StringValue(fake.gets[0].Key["id"].S))
	assert.Equal(t, "category", aws.StringValue(fake.gets[0].Key["type"].S))
	assert.True(t, aws.BoolValue(fake.gets[0].ConsistentRead))
	assert.Empty(t, fake.puts)
}

func TestCreatePost_StoresTypedItem(t *testing.T) {
	fake, posts, categories, _ := newFakeRepositories(t)
	ctx := context.Background()

	music, err := categories.CreateCategory(ctx, "Music")
	require.NoError(t, err)
	created, err := posts.CreatePost(ctx, core.Post{Title: "t", Link: "l", Category: music.ID, Datetime: 1450846800000})
	require.NoError(t, err)

	put := fake.puts[len(fake.puts)-1]
	assert.Equal(t, created.ID, aws.StringValue(put.Item["id"].S))
	assert.Equal(t, "post", aws.StringValue(put.Item["type"].S))
	assert.Equal(t, "1450846800000", aws.StringValue(put.Item["datetime"].N))
}

func TestUpdate_Conditional(t *testing.T) {
	fake, posts, categories, _ := newFakeRepositories(t)
	ctx := context.Background()

	got, err := posts.UpdatePost(ctx, "ghost", core.Post{Title: "t", Category: "c"})
	require.NoError(t, err)
	assert.Nil(t, got)

	require.Len(t, fake.updates, 1)
	in := fake.updates[0]
	assert.Equal(t, "attribute_exists(id)", aws.StringValue(in.ConditionExpression))
	assert.Equal(t, dynamodb.ReturnValueAllNew, aws.StringValue(in.ReturnValues))
	assert.Equal(t, "datetime", aws.StringValue(in.ExpressionAttributeNames["#datetime"]))

	gotCategory, err := categories.UpdateCategory(ctx, "ghost", "t")
	require.NoError(t, err)
	assert.Nil(t, gotCategory)
	assert.Len(t, fake.items, 0, "a failed condition writes nothing")
}

func TestReset_RecreatesTable(t *testing.T) {
	fake, _, categories, backend := newFakeRepositories(t)
	ctx := context.Background()

	_, err := categories.CreateCategory(ctx, "Code")
	require.NoError(t, err)

	require.NoError(t, backend.Reset(ctx))
	assert.Equal(t, 1, fake.drops)
	require.Len(t, fake.creates, 1)

	in := fake.creates[0]
	assert.Equal(t, "Items", aws.StringValue(in.TableName))
	assert.Equal(t, dynamodb.BillingModePayPerRequest, aws.StringValue(in.BillingMode))
	require.Len(t, in.GlobalSecondaryIndexes, 1)
	gsi := in.GlobalSecondaryIndexes[0]
	assert.Equal(t, "post-index", aws.StringValue(gsi.IndexName))
	assert.Equal(t, "category", aws.StringValue(gsi.KeySchema[0].AttributeName))
	assert.Equal(t, dynamodb.ProjectionTypeAll, aws.StringValue(gsi.Projection.ProjectionType))

	all, err := categories.ListCategories(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestReset_MissingTable(t *testing.T) {
	fake, _, _, backend := newFakeRepositories(t)
	fake.exists = false

	require.NoError(t, backend.Reset(context.Background()))
	assert.Equal(t, 0, fake.drops)
	assert.Len(t, fake.creates, 1)
}

func TestReset_DeleteError(t *testing.T) {
	fake, _, _, backend := newFakeRepositories(t)
	boom := errors.New("access denied")
	fake.deleteErr = boom

	assert.ErrorIs(t, backend.Reset(context.Background()), boom)
	assert.Empty(t, fake.creates)
}

func TestEnsureTable_Existing(t *testing.T) {
	fake, _, _, backend := newFakeRepositories(t)

	require.NoError(t, backend.EnsureTable(context.Background()))
	assert.Empty(t, fake.creates)
}

// TestContract_Local runs the contract against DynamoDB Local when
// HWEBS_TEST_DYNAMODB_ENDPOINT is set, one table per subtest.
func TestContract_Local(t *testing.T) {
	endpoint := os.Getenv("HWEBS_TEST_DYNAMODB_ENDPOINT")
	if endpoint == "" {
		t.Skip("HWEBS_TEST_DYNAMODB_ENDPOINT not set")
	}
	if os.Getenv("AWS_ACCESS_KEY_ID") == "" {
		t.Setenv("AWS_ACCESS_KEY_ID", "local")
		t.Setenv("AWS_SECRET_ACCESS_KEY", "local")
	}

	storagetest.Run(t, func(t *testing.T) (storage.PostRepository, storage.CategoryRepository) {
		posts, categories, backend, err := NewRepositories(Options{
			Endpoint: endpoint,
			Table:    "test-" + core.NewID(),
		})
		require.NoError(t, err)
		require.NoError(t, backend.EnsureTable(context.Background()))
		t.Cleanup(func() {
			_, _ = backend.client.DeleteTable(&dynamodb.DeleteTableInput{TableName: aws.String(backend.table)})
		})
		return posts, categories
	}, storagetest.Options{EnforcesCategory: true})
}
