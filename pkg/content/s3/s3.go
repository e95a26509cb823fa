// Package s3 serves static content from an Amazon S3 (or S3-compatible) bucket.
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/marmos91/dittoweb/pkg/content"
	"github.com/marmos91/dittoweb/pkg/metrics"
)

// Client is the subset of *s3.Client used by the store.
type Client interface {
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3ContentStore implements content.WritableContentStore on an S3 bucket.
//
// Path-Based Key Design:
//   - The store key (see content.CleanPath) is the object key, after KeyPrefix
//   - Example: key "img/logo.png" with prefix "site/" reads "site/img/logo.png"
//   - The bucket mirrors the static directory layout
//
// Every read hits S3. Wrap the store with the cache package for hot files.
//
// Thread Safety:
// Safe for concurrent use; the SDK client is.
type S3ContentStore struct {
	client    Client
	bucket    string
	keyPrefix string
	metrics   metrics.ContentMetrics
}

// S3ContentStoreConfig contains configuration for the S3 content store.
type S3ContentStoreConfig struct {
	// Client is the configured S3 client
	Client Client

	// Bucket is the S3 bucket name
	Bucket string

	// KeyPrefix is an optional prefix for all object keys
	// Example: "site/" results in keys like "site/index.html"
	KeyPrefix string

	// Metrics records per-operation latency and bytes. Optional.
	Metrics metrics.ContentMetrics

	// SkipBucketCheck disables the HeadBucket probe in the constructor.
	SkipBucketCheck bool
}

// NewS3ContentStore creates a new S3-based content store.
//
// The bucket must already exist. Unless SkipBucketCheck is set, access is
// verified with a HeadBucket call.
//
// Parameters:
//   - ctx: Context for cancellation and timeouts
//   - cfg: S3 configuration
//
// Returns:
//   - *S3ContentStore: Initialized S3 content store
//   - error: If configuration is incomplete, bucket access fails or the context is cancelled
func NewS3ContentStore(ctx context.Context, cfg S3ContentStoreConfig) (*S3ContentStore, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if cfg.Client == nil {
		return nil, fmt.Errorf("S3 client is required")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("bucket name is required")
	}

	m := cfg.Metrics
	if m == nil {
		m = metrics.NewNoopContentMetrics()
	}

	if !cfg.SkipBucketCheck {
		_, err := cfg.Client.HeadBucket(ctx, &s3.HeadBucketInput{
			Bucket: aws.String(cfg.Bucket),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to access bucket %q: %w", cfg.Bucket, err)
		}
	}

	return &S3ContentStore{
		client:    cfg.Client,
		bucket:    cfg.Bucket,
		keyPrefix: cfg.KeyPrefix,
		metrics:   m,
	}, nil
}

// Name implements content.ContentStore.
func (s *S3ContentStore) Name() string {
	return "s3"
}

// getObjectKey returns the full object key for a store path.
func (s *S3ContentStore) getObjectKey(p string) (string, error) {
	key, err := content.CleanPath(p)
	if err != nil {
		return "", err
	}
	return s.keyPrefix + key, nil
}

// isNotFound matches both GetObject (NoSuchKey) and HeadObject (NotFound) misses.
func isNotFound(err error) bool {
	var noSuchKey *types.NoSuchKey
	var notFound *types.NotFound
	return errors.As(err, &noSuchKey) || errors.As(err, &notFound)
}

// ReadContent downloads the object at p.
//
// Context Cancellation:
// The GetObject call and the returned body respect ctx.
func (s *S3ContentStore) ReadContent(ctx context.Context, p string) (rc io.ReadCloser, err error) {
	start := time.Now()
	defer func() {
		s.metrics.ObserveOperation(s.Name(), "ReadContent", time.Since(start), err)
	}()

	if err = ctx.Err(); err != nil {
		return nil, err
	}

	key, err := s.getObjectKey(p)
	if err != nil {
		return nil, err
	}

	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("content %s: %w", p, content.ErrContentNotFound)
		}
		return nil, fmt.Errorf("failed to get object from S3: %w", err)
	}

	return &metricsReadCloser{ReadCloser: result.Body, store: s.Name(), metrics: s.metrics}, nil
}

// GetContentSize issues a HEAD request for p.
func (s *S3ContentStore) GetContentSize(ctx context.Context, p string) (size uint64, err error) {
	start := time.Now()
	defer func() {
		s.metrics.ObserveOperation(s.Name(), "GetContentSize", time.Since(start), err)
	}()

	if err = ctx.Err(); err != nil {
		return 0, err
	}

	key, err := s.getObjectKey(p)
	if err != nil {
		return 0, err
	}

	result, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return 0, fmt.Errorf("content %s: %w", p, content.ErrContentNotFound)
		}
		return 0, fmt.Errorf("failed to head object: %w", err)
	}

	if result.ContentLength == nil {
		return 0, fmt.Errorf("content length not available for %s", p)
	}
	return uint64(*result.ContentLength), nil
}

// ContentExists issues a HEAD request for p.
func (s *S3ContentStore) ContentExists(ctx context.Context, p string) (bool, error) {
	_, err := s.GetContentSize(ctx, p)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, content.ErrContentNotFound), errors.Is(err, content.ErrInvalidPath):
		return false, nil
	default:
		return false, err
	}
}

// WriteContent uploads data to p in a single PutObject.
func (s *S3ContentStore) WriteContent(ctx context.Context, p string, data []byte) (err error) {
	start := time.Now()
	defer func() {
		s.metrics.ObserveOperation(s.Name(), "WriteContent", time.Since(start), err)
		if err == nil {
			s.metrics.RecordBytes(s.Name(), "write", int64(len(data)))
		}
	}()

	if err = ctx.Err(); err != nil {
		return err
	}

	key, err := s.getObjectKey(p)
	if err != nil {
		return err
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return fmt.Errorf("failed to put object: %w", err)
	}
	return nil
}

// Delete removes the object at p. S3 deletes are idempotent.
func (s *S3ContentStore) Delete(ctx context.Context, p string) (err error) {
	start := time.Now()
	defer func() {
		s.metrics.ObserveOperation(s.Name(), "Delete", time.Since(start), err)
	}()

	if err = ctx.Err(); err != nil {
		return err
	}

	key, err := s.getObjectKey(p)
	if err != nil {
		return err
	}

	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete object: %w", err)
	}
	return nil
}

// metricsReadCloser counts bytes read from an object body.
type metricsReadCloser struct {
	io.ReadCloser
	store   string
	metrics metrics.ContentMetrics
	total   int64
}

func (r *metricsReadCloser) Read(p []byte) (int, error) {
	n, err := r.ReadCloser.Read(p)
	r.total += int64(n)
	return n, err
}

func (r *metricsReadCloser) Close() error {
	r.metrics.RecordBytes(r.store, "read", r.total)
	return r.ReadCloser.Close()
}
