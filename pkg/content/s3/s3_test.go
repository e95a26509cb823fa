package s3

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/marmos91/dittoweb/pkg/content"
	contenttesting "github.com/marmos91/dittoweb/pkg/content/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClient is an in-memory stand-in for the S3 API surface the store uses.
type fakeClient struct {
	mu      sync.Mutex
	bucket  string
	objects map[string][]byte
	calls   []string
}

func newFakeClient(bucket string) *fakeClient {
	return &fakeClient{bucket: bucket, objects: make(map[string][]byte)}
}

func (f *fakeClient) record(op, key string) {
	f.calls = append(f.calls, op+" "+key)
}

func (f *fakeClient) HeadBucket(_ context.Context, in *s3.HeadBucketInput, _ ...func(*s3.Options)) (*s3.HeadBucketOutput, error) {
	if aws.ToString(in.Bucket) != f.bucket {
		return nil, &types.NotFound{}
	}
	return &s3.HeadBucketOutput{}, nil
}

func (f *fakeClient) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := aws.ToString(in.Key)
	f.record("get", key)

	data, ok := f.objects[key]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{
		Body:          io.NopCloser(bytes.NewReader(data)),
		ContentLength: aws.Int64(int64(len(data))),
	}, nil
}

func (f *fakeClient) HeadObject(_ context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := aws.ToString(in.Key)
	f.record("head", key)

	data, ok := f.objects[key]
	if !ok {
		return nil, &types.NotFound{}
	}
	return &s3.HeadObjectOutput{ContentLength: aws.Int64(int64(len(data)))}, nil
}

func (f *fakeClient) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	key := aws.ToString(in.Key)
	f.record("put", key)
	f.objects[key] = data
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeClient) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := aws.ToString(in.Key)
	f.record("delete", key)
	delete(f.objects, key)
	return &s3.DeleteObjectOutput{}, nil
}

func TestS3ContentStore(t *testing.T) {
	suite := &contenttesting.StoreTestSuite{
		NewStore: func(t *testing.T) content.WritableContentStore {
			store, err := NewS3ContentStore(context.Background(), S3ContentStoreConfig{
				Client:    newFakeClient("site"),
				Bucket:    "site",
				KeyPrefix: "static/",
			})
			require.NoError(t, err)
			return store
		},
	}

	suite.Run(t)
}

func TestS3ContentStoreKeys(t *testing.T) {
	ctx := context.Background()
	client := newFakeClient("site")
	client.objects["static/img/logo.png"] = []byte("png")

	store, err := NewS3ContentStore(ctx, S3ContentStoreConfig{Client: client, Bucket: "site", KeyPrefix: "static/"})
	require.NoError(t, err)

	data, err := content.ReadAll(ctx, store, "/img/logo.png", 0)
	require.NoError(t, err)
	assert.Equal(t, "png", string(data))
	assert.Contains(t, client.calls, "get static/img/logo.png")
}

func TestNewS3ContentStoreValidation(t *testing.T) {
	ctx := context.Background()

	_, err := NewS3ContentStore(ctx, S3ContentStoreConfig{Bucket: "site"})
	assert.Error(t, err, "client required")

	_, err = NewS3ContentStore(ctx, S3ContentStoreConfig{Client: newFakeClient("site")})
	assert.Error(t, err, "bucket required")

	_, err = NewS3ContentStore(ctx, S3ContentStoreConfig{Client: newFakeClient("site"), Bucket: "other"})
	assert.Error(t, err, "bucket must be reachable")

	_, err = NewS3ContentStore(ctx, S3ContentStoreConfig{Client: newFakeClient("site"), Bucket: "other", SkipBucketCheck: true})
	assert.NoError(t, err)
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, isNotFound(&types.NoSuchKey{}))
	assert.True(t, isNotFound(&types.NotFound{}))
	assert.False(t, isNotFound(errors.New("boom")))
}
