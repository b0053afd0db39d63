package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/hupe1980/vectable/blobstore"
)

// currentName is the basename of the manifest pointer blob of a table.
const currentName = "CURRENT"

// DDBCommitStore wraps a Store and routes every CURRENT pointer through
// DynamoDB, which provides the compare-and-swap S3 lacks. Two processes
// committing the same table concurrently cannot both succeed: the loser
// gets ErrConcurrentModification.
//
// All other blobs go straight to S3. After a successful commit the pointer
// is mirrored to S3 so that listing discovers the table; reads always go
// to DynamoDB.
//
// Table schema:
//   - Partition key: base_uri (string), "s3://bucket/prefix/<dir>"
//   - Sort key: version (number), increasing per partition
//
// Create table with:
//
//	aws dynamodb create-table \
//	  --table-name vectable-commits \
//	  --attribute-definitions AttributeName=base_uri,AttributeType=S AttributeName=version,AttributeType=N \
//	  --key-schema AttributeName=base_uri,KeyType=HASH AttributeName=version,KeyType=RANGE \
//	  --billing-mode PAY_PER_REQUEST
type DDBCommitStore struct {
	s3Store   *Store
	ddbClient DDBClient
	tableName string
	baseURI   string
}

var (
	_ blobstore.BlobStore = (*DDBCommitStore)(nil)
	_ blobstore.Remover   = (*DDBCommitStore)(nil)
)

// DDBClient is the interface for DynamoDB operations.
type DDBClient interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

var _ DDBClient = (*dynamodb.Client)(nil)

// ErrConcurrentModification is returned when another writer committed the
// same pointer version first.
var ErrConcurrentModification = errors.New("s3: concurrent modification detected")

// NewDDBCommitStore creates a commit store. When baseURI is empty it is
// derived from the store's bucket and prefix.
func NewDDBCommitStore(s3Store *Store, ddbClient DDBClient, tableName, baseURI string) *DDBCommitStore {
	if baseURI == "" {
		baseURI = "s3://" + path.Join(s3Store.Bucket(), s3Store.Prefix())
	}
	return &DDBCommitStore{
		s3Store:   s3Store,
		ddbClient: ddbClient,
		tableName: tableName,
		baseURI:   strings.TrimSuffix(baseURI, "/"),
	}
}

func isPointer(name string) bool {
	return path.Base(name) == currentName
}

// partition maps a pointer name to its partition key.
func (s *DDBCommitStore) partition(name string) string {
	dir := path.Dir(name)
	if dir == "." {
		return s.baseURI
	}
	return s.baseURI + "/" + dir
}

// Open opens a blob for reading. Pointers are served from DynamoDB.
func (s *DDBCommitStore) Open(ctx context.Context, name string) (blobstore.Blob, error) {
	if !isPointer(name) {
		return s.s3Store.Open(ctx, name)
	}

	version, target, err := s.latest(ctx, s.partition(name))
	if err != nil {
		return nil, err
	}
	if version == 0 {
		return nil, blobstore.ErrNotFound
	}
	return &pointerBlob{content: []byte(target)}, nil
}

// Put writes a blob. Pointers are committed with a conditional write.
func (s *DDBCommitStore) Put(ctx context.Context, name string, data []byte) error {
	if !isPointer(name) {
		return s.s3Store.Put(ctx, name, data)
	}
	if err := s.commit(ctx, s.partition(name), string(data)); err != nil {
		return err
	}
	return s.s3Store.Put(ctx, name, data)
}

// Delete deletes a blob. Deleting a pointer clears its commit history.
func (s *DDBCommitStore) Delete(ctx context.Context, name string) error {
	if isPointer(name) {
		if err := s.clear(ctx, s.partition(name)); err != nil {
			return err
		}
	}
	return s.s3Store.Delete(ctx, name)
}

// List lists blobs with prefix.
func (s *DDBCommitStore) List(ctx context.Context, prefix string) ([]string, error) {
	return s.s3Store.List(ctx, prefix)
}

// RemoveAll deletes all blobs under prefix together with the commit
// history of every pointer found there.
func (s *DDBCommitStore) RemoveAll(ctx context.Context, prefix string) error {
	names, err := s.s3Store.List(ctx, prefix)
	if err != nil {
		return err
	}
	for _, name := range names {
		if isPointer(name) {
			if err := s.clear(ctx, s.partition(name)); err != nil {
				return err
			}
		}
	}
	return s.s3Store.RemoveAll(ctx, prefix)
}

// latest returns the newest committed version of a partition, or 0.
func (s *DDBCommitStore) latest(ctx context.Context, partition string) (uint64, string, error) {
	resp, err := s.ddbClient.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.tableName),
		KeyConditionExpression: aws.String("base_uri = :uri"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":uri": &types.AttributeValueMemberS{Value: partition},
		},
		ScanIndexForward: aws.Bool(false),
		Limit:            aws.Int32(1),
		ConsistentRead:   aws.Bool(true),
	})
	if err != nil {
		return 0, "", fmt.Errorf("s3: query commit table: %w", err)
	}

	if len(resp.Items) == 0 {
		return 0, "", nil
	}

	item := resp.Items[0]
	versionAttr, ok := item["version"].(*types.AttributeValueMemberN)
	if !ok {
		return 0, "", errors.New("s3: invalid version attribute in commit table")
	}
	pathAttr, ok := item["manifest_path"].(*types.AttributeValueMemberS)
	if !ok {
		return 0, "", errors.New("s3: invalid manifest_path attribute in commit table")
	}

	version, err := strconv.ParseUint(versionAttr.Value, 10, 64)
	if err != nil {
		return 0, "", fmt.Errorf("s3: parse version: %w", err)
	}

	return version, pathAttr.Value, nil
}

func (s *DDBCommitStore) commit(ctx context.Context, partition, target string) error {
	current, _, err := s.latest(ctx, partition)
	if err != nil {
		return err
	}

	_, err = s.ddbClient.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item: map[string]types.AttributeValue{
			"base_uri":      &types.AttributeValueMemberS{Value: partition},
			"version":       &types.AttributeValueMemberN{Value: strconv.FormatUint(current+1, 10)},
			"manifest_path": &types.AttributeValueMemberS{Value: target},
		},
		ConditionExpression: aws.String("attribute_not_exists(version)"),
	})
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return ErrConcurrentModification
		}
		return fmt.Errorf("s3: commit version: %w", err)
	}

	return nil
}

// clear removes every committed version of a partition.
func (s *DDBCommitStore) clear(ctx context.Context, partition string) error {
	var startKey map[string]types.AttributeValue

	for {
		resp, err := s.ddbClient.Query(ctx, &dynamodb.QueryInput{
			TableName:              aws.String(s.tableName),
			KeyConditionExpression: aws.String("base_uri = :uri"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":uri": &types.AttributeValueMemberS{Value: partition},
			},
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return fmt.Errorf("s3: query commit table: %w", err)
		}

		for _, item := range resp.Items {
			_, err := s.ddbClient.DeleteItem(ctx, &dynamodb.DeleteItemInput{
				TableName: aws.String(s.tableName),
				Key: map[string]types.AttributeValue{
					"base_uri": item["base_uri"],
					"version":  item["version"],
				},
			})
			if err != nil {
				return fmt.Errorf("s3: delete commit: %w", err)
			}
		}

		if len(resp.LastEvaluatedKey) == 0 {
			return nil
		}
		startKey = resp.LastEvaluatedKey
	}
}

// pointerBlob serves a committed pointer from memory.
type pointerBlob struct {
	content []byte
}

func (b *pointerBlob) Close() error { return nil }

func (b *pointerBlob) Size() int64 { return int64(len(b.content)) }

func (b *pointerBlob) ReadAt(_ context.Context, p []byte, off int64) (int, error) {
	return bytes.NewReader(b.content).ReadAt(p, off)
}

func (b *pointerBlob) Bytes() ([]byte, error) { return b.content, nil }

var _ blobstore.Mappable = (*pointerBlob)(nil)
