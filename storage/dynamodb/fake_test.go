package dynamodb

import (
	"sort"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbiface"
)

type attrMap = map[string]*dynamodb.AttributeValue

// fakeTable is an in-process stand-in for a single DynamoDB table. It
// understands exactly the request shapes this package sends and records
// them for inspection.
type fakeTable struct {
	dynamodbiface.DynamoDBAPI

	mu       sync.Mutex
	exists   bool
	items    map[string]attrMap
	pageSize int

	gets    []*dynamodb.GetItemInput
	puts    []*dynamodb.PutItemInput
	updates []*dynamodb.UpdateItemInput
	scans   []*dynamodb.ScanInput
	creates []*dynamodb.CreateTableInput
	drops   int

	getErr    error
	deleteErr error
}

func newFakeTable() *fakeTable {
	return &fakeTable{
		exists:   true,
		items:    make(map[string]attrMap),
		pageSize: 1,
	}
}

func fakeKey(key attrMap) string {
	return aws.StringValue(key[attrID].S) + "|" + aws.StringValue(key[attrType].S)
}

// validateKey mirrors DynamoDB rejecting empty string key attributes.
func validateKey(key attrMap) error {
	if aws.StringValue(key[attrID].S) == "" || aws.StringValue(key[attrType].S) == "" {
		return awserr.New("ValidationException",
			"One or more parameter values are not valid. The AttributeValue for a key attribute cannot contain an empty string value.", nil)
	}
	return nil
}

func copyItem(item attrMap) attrMap {
	if item == nil {
		return nil
	}
	out := make(attrMap, len(item))
	for k, v := range item {
		out[k] = v
	}
	return out
}

func (f *fakeTable) GetItemWithContext(_ aws.Context, in *dynamodb.GetItemInput, _ ...request.Option) (*dynamodb.GetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets = append(f.gets, in)
	if f.getErr != nil {
		return nil, f.getErr
	}
	if err := validateKey(in.Key); err != nil {
		return nil, err
	}
	return &dynamodb.GetItemOutput{Item: copyItem(f.items[fakeKey(in.Key)])}, nil
}

func (f *fakeTable) PutItemWithContext(_ aws.Context, in *dynamodb.PutItemInput, _ ...request.Option) (*dynamodb.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.puts = append(f.puts, in)
	if err := validateKey(in.Item); err != nil {
		return nil, err
	}
	f.items[fakeKey(in.Item)] = copyItem(in.Item)
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeTable) UpdateItemWithContext(_ aws.Context, in *dynamodb.UpdateItemInput, _ ...request.Option) (*dynamodb.UpdateItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, in)
	if err := validateKey(in.Key); err != nil {
		return nil, err
	}

	key := fakeKey(in.Key)
	item, ok := f.items[key]
	if !ok {
		if aws.StringValue(in.ConditionExpression) == "attribute_exists(id)" {
			return nil, awserr.New(dynamodb.ErrCodeConditionalCheckFailedException, "The conditional request failed", nil)
		}
		item = copyItem(in.Key)
	} else {
		item = copyItem(item)
	}

	expr := strings.TrimPrefix(aws.StringValue(in.UpdateExpression), "SET ")
	for _, clause := range strings.Split(expr, ", ") {
		parts := strings.SplitN(clause, " = ", 2)
		name := parts[0]
		if strings.HasPrefix(name, "#") {
			name = aws.StringValue(in.ExpressionAttributeNames[name])
		}
		item[name] = in.ExpressionAttributeValues[parts[1]]
	}
	f.items[key] = item
	return &dynamodb.UpdateItemOutput{Attributes: copyItem(item)}, nil
}

func (f *fakeTable) DeleteItemWithContext(_ aws.Context, in *dynamodb.DeleteItemInput, _ ...request.Option) (*dynamodb.DeleteItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := validateKey(in.Key); err != nil {
		return nil, err
	}
	delete(f.items, fakeKey(in.Key))
	return &dynamodb.DeleteItemOutput{}, nil
}

func (f *fakeTable) ScanPagesWithContext(_ aws.Context, in *dynamodb.ScanInput, fn func(*dynamodb.ScanOutput, bool) bool, _ ...request.Option) error {
	f.mu.Lock()
	f.scans = append(f.scans, in)
	wantType := aws.StringValue(in.ExpressionAttributeValues[":t"].S)
	wantCategory, filterCategory := in.ExpressionAttributeValues[":c"]

	keys := make([]string, 0, len(f.items))
	for k := range f.items {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var matched []attrMap
	for _, k := range keys {
		item := f.items[k]
		category, indexed := item[attrCategory]
		if in.IndexName != nil && !indexed {
			continue
		}
		if aws.StringValue(item[attrType].S) != wantType {
			continue
		}
		if filterCategory && (!indexed || aws.StringValue(category.S) != aws.StringValue(wantCategory.S)) {
			continue
		}
		matched = append(matched, copyItem(item))
	}
	f.mu.Unlock()

	if len(matched) == 0 {
		fn(&dynamodb.ScanOutput{Items: []attrMap{}}, true)
		return nil
	}
	for start := 0; start < len(matched); start += f.pageSize {
		end := min(start+f.pageSize, len(matched))
		if !fn(&dynamodb.ScanOutput{Items: matched[start:end]}, end == len(matched)) {
			break
		}
	}
	return nil
}

func (f *fakeTable) DeleteTableWithContext(_ aws.Context, in *dynamodb.DeleteTableInput, _ ...request.Option) (*dynamodb.DeleteTableOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return nil, f.deleteErr
	}
	if !f.exists {
		return nil, awserr.New(dynamodb.ErrCodeResourceNotFoundException, "Cannot do operations on a non-existent table", nil)
	}
	f.exists = false
	f.items = make(map[string]attrMap)
	f.drops++
	return &dynamodb.DeleteTableOutput{}, nil
}

func (f *fakeTable) CreateTableWithContext(_ aws.Context, in *dynamodb.CreateTableInput, _ ...request.Option) (*dynamodb.CreateTableOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.exists {
		return nil, awserr.New(dynamodb.ErrCodeResourceInUseException, "Table already exists", nil)
	}
	f.exists = true
	f.creates = append(f.creates, in)
	return &dynamodb.CreateTableOutput{}, nil
}

func (f *fakeTable) WaitUntilTableExistsWithContext(aws.Context, *dynamodb.DescribeTableInput, ...request.WaiterOption) error {
	return nil
}

func (f *fakeTable) WaitUntilTableNotExistsWithContext(aws.Context, *dynamodb.DescribeTableInput, ...request.WaiterOption) error {
	return nil
}
