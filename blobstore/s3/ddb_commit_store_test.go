package s3

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/hupe1980/vectable/blobstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// mockDDBClient is an in-memory DynamoDB mock for testing.
type mockDDBClient struct {
	mu    sync.RWMutex
	items map[string]map[string]types.AttributeValue // key -> item
}

func newMockDDBClient() *mockDDBClient {
	return &mockDDBClient{
		items: make(map[string]map[string]types.AttributeValue),
	}
}

func (m *mockDDBClient) PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	baseURI := params.Item["base_uri"].(*types.AttributeValueMemberS).Value
	version := params.Item["version"].(*types.AttributeValueMemberN).Value
	key := baseURI + ":" + version

	// Check conditional expression
	if params.ConditionExpression != nil && *params.ConditionExpression == "attribute_not_exists(version)" {
		if _, exists := m.items[key]; exists {
			return nil, &types.ConditionalCheckFailedException{Message: aws.String("condition failed")}
		}
	}

	m.items[key] = params.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (m *mockDDBClient) Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	baseURI := params.ExpressionAttributeValues[":uri"].(*types.AttributeValueMemberS).Value

	// Find items matching baseURI, sort by version descending
	var items []map[string]types.AttributeValue
	for _, item := range m.items {
		if item["base_uri"].(*types.AttributeValueMemberS).Value == baseURI {
			items = append(items, item)
		}
	}

	version := func(item map[string]types.AttributeValue) uint64 {
		v, _ := strconv.ParseUint(item["version"].(*types.AttributeValueMemberN).Value, 10, 64)
		return v
	}
	sort.Slice(items, func(i, j int) bool {
		if params.ScanIndexForward != nil && !*params.ScanIndexForward {
			return version(items[i]) > version(items[j])
		}
		return version(items[i]) < version(items[j])
	})

	if params.Limit != nil && int(*params.Limit) < len(items) {
		items = items[:*params.Limit]
	}

	return &dynamodb.QueryOutput{Items: items}, nil
}

func (m *mockDDBClient) DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	baseURI := params.Key["base_uri"].(*types.AttributeValueMemberS).Value
	version := params.Key["version"].(*types.AttributeValueMemberN).Value
	delete(m.items, baseURI+":"+version)
	return &dynamodb.DeleteItemOutput{}, nil
}

func newTestDDBCommitStore(t *testing.T, ddb *mockDDBClient, baseURI string) (*DDBCommitStore, *MockS3Client) {
	t.Helper()

	client := new(MockS3Client)
	client.On("PutObject", mock.Anything, mock.Anything).Return(&s3.PutObjectOutput{}, nil).Maybe()

	return NewDDBCommitStore(NewStore(client, "test-bucket", WithPrefix("test/")), ddb, "vectable-commits", baseURI), client
}

func TestDDBCommitStore_FirstCommit(t *testing.T) {
	ctx := context.Background()
	ddb := newMockDDBClient()
	store, _ := newTestDDBCommitStore(t, ddb, "s3://test-bucket/test/")

	// First commit should succeed
	err := store.Put(ctx, "CURRENT", []byte("MANIFEST-000001.bin"))
	require.NoError(t, err)

	// Read back CURRENT
	blob, err := store.Open(ctx, "CURRENT")
	require.NoError(t, err)
	defer blob.Close()

	buf := make([]byte, 100)
	n, _ := blob.ReadAt(ctx, buf, 0)
	assert.Equal(t, "MANIFEST-000001.bin", string(buf[:n]))
}

func TestDDBCommitStore_MultipleCommits(t *testing.T) {
	ctx := context.Background()
	ddb := newMockDDBClient()
	store, _ := newTestDDBCommitStore(t, ddb, "s3://test-bucket/test/")

	// Commit versions 1, 2, 3
	for i := 1; i <= 3; i++ {
		err := store.Put(ctx, "CURRENT", []byte(fmt.Sprintf("MANIFEST-%06d.bin", i)))
		require.NoError(t, err)
	}

	// Read back should get latest (version 3)
	blob, err := store.Open(ctx, "CURRENT")
	require.NoError(t, err)
	defer blob.Close()

	buf := make([]byte, 100)
	n, _ := blob.ReadAt(ctx, buf, 0)
	assert.Equal(t, "MANIFEST-000003.bin", string(buf[:n]))
}

func TestDDBCommitStore_ConcurrentCommits(t *testing.T) {
	ctx := context.Background()
	ddb := newMockDDBClient()
	store, _ := newTestDDBCommitStore(t, ddb, "s3://test-bucket/test/")

	// Initial commit
	err := store.Put(ctx, "CURRENT", []byte("MANIFEST-000001.bin"))
	require.NoError(t, err)

	// Concurrent writers
	var wg sync.WaitGroup
	successes := 0
	conflicts := 0
	var mu sync.Mutex

	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			err := store.Put(ctx, "CURRENT", []byte(fmt.Sprintf("MANIFEST-%06d.bin", id+2)))
			mu.Lock()
			defer mu.Unlock()
			if errors.Is(err, ErrConcurrentModification) {
				conflicts++
			} else if err == nil {
				successes++
			} else {
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}

	wg.Wait()
	assert.Greater(t, successes, 0, "at least one writer should succeed")
	t.Logf("successes: %d, conflicts: %d", successes, conflicts)
}

func TestDDBCommitStore_NotFoundBeforeCommit(t *testing.T) {
	ctx := context.Background()
	ddb := newMockDDBClient()
	store, _ := newTestDDBCommitStore(t, ddb, "s3://test-bucket/test/")

	_, err := store.Open(ctx, "CURRENT")
	require.ErrorIs(t, err, blobstore.ErrNotFound)
}

func TestDDBCommitStore_IsolatedNamespaces(t *testing.T) {
	ctx := context.Background()
	ddb := newMockDDBClient()

	store1, _ := newTestDDBCommitStore(t, ddb, "s3://bucket-a/path/")
	store2, _ := newTestDDBCommitStore(t, ddb, "s3://bucket-b/path/")

	// Commit to each store
	require.NoError(t, store1.Put(ctx, "CURRENT", []byte("MANIFEST-A.bin")))
	require.NoError(t, store2.Put(ctx, "CURRENT", []byte("MANIFEST-B.bin")))

	// Each sees their own manifest
	blob1, _ := store1.Open(ctx, "CURRENT")
	buf := make([]byte, 100)
	n, _ := blob1.ReadAt(ctx, buf, 0)
	assert.Equal(t, "MANIFEST-A.bin", string(buf[:n]))
	blob1.Close()

	blob2, _ := store2.Open(ctx, "CURRENT")
	n, _ = blob2.ReadAt(ctx, buf, 0)
	assert.Equal(t, "MANIFEST-B.bin", string(buf[:n]))
	blob2.Close()
}

func TestDDBCommitStore_TablePointers(t *testing.T) {
	ctx := context.Background()
	ddb := newMockDDBClient()
	store, client := newTestDDBCommitStore(t, ddb, "")

	assert.Equal(t, "s3://test-bucket/test", store.baseURI)

	require.NoError(t, store.Put(ctx, "users/CURRENT", []byte("MANIFEST-000001.bin")))
	require.NoError(t, store.Put(ctx, "items/CURRENT", []byte("MANIFEST-000004.bin")))

	data, err := blobstore.ReadAll(ctx, store, "users/CURRENT")
	require.NoError(t, err)
	assert.Equal(t, "MANIFEST-000001.bin", string(data))

	// The pointer is mirrored to S3 for discovery.
	client.AssertCalled(t, "PutObject", mock.Anything, mock.MatchedBy(func(in *s3.PutObjectInput) bool {
		return *in.Key == "test/items/CURRENT"
	}))

	client.On("DeleteObject", mock.Anything, mock.Anything).Return(&s3.DeleteObjectOutput{}, nil).Once()
	require.NoError(t, store.Delete(ctx, "users/CURRENT"))

	_, err = store.Open(ctx, "users/CURRENT")
	require.ErrorIs(t, err, blobstore.ErrNotFound)

	_, err = store.Open(ctx, "items/CURRENT")
	require.NoError(t, err)
}

func TestDDBCommitStore_RemoveAllClearsHistory(t *testing.T) {
	ctx := context.Background()
	ddb := newMockDDBClient()
	store, client := newTestDDBCommitStore(t, ddb, "s3://test-bucket/test")

	for i := 1; i <= 3; i++ {
		require.NoError(t, store.Put(ctx, fmt.Sprintf("docs/MANIFEST-%06d.bin", i), []byte("m")))
		require.NoError(t, store.Put(ctx, "docs/CURRENT", []byte(fmt.Sprintf("MANIFEST-%06d.bin", i))))
	}

	client.On("ListObjectsV2", mock.Anything, mock.Anything).Return(&s3.ListObjectsV2Output{
		Contents: []s3types.Object{
			{Key: aws.String("test/docs/CURRENT")},
			{Key: aws.String("test/docs/MANIFEST-000003.bin")},
		},
	}, nil)
	client.On("DeleteObjects", mock.Anything, mock.MatchedBy(func(in *s3.DeleteObjectsInput) bool {
		return len(in.Delete.Objects) == 2
	})).Return(&s3.DeleteObjectsOutput{}, nil).Once()

	require.NoError(t, store.RemoveAll(ctx, "docs/"))

	_, err := store.Open(ctx, "docs/CURRENT")
	require.ErrorIs(t, err, blobstore.ErrNotFound)
	assert.Empty(t, ddb.items)
	client.AssertExpectations(t)
}
