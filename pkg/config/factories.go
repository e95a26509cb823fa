package config

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/retry"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/marmos91/dittoweb/internal/logger"
	"github.com/marmos91/dittoweb/internal/ratelimiter"
	"github.com/marmos91/dittoweb/pkg/handlers"
	"github.com/marmos91/dittoweb/pkg/metrics"
	"github.com/marmos91/dittoweb/pkg/store/users"
	"github.com/marmos91/dittoweb/pkg/workerpool"
)

// DefaultS3MaxRetries is the retry budget when s3.max_retries is unset.
const DefaultS3MaxRetries = 10

// S3ClientConfig holds the statics.store.s3 options.
type S3ClientConfig struct {
	Region          string `mapstructure:"region"`
	Bucket          string `mapstructure:"bucket"`
	KeyPrefix       string `mapstructure:"key_prefix"`
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	MaxRetries      int    `mapstructure:"max_retries"`
	SkipBucketCheck bool   `mapstructure:"skip_bucket_check"`
}

// NewS3Client builds an S3 client from cfg.
//
// A custom endpoint (MinIO, Localstack) switches to path-style addressing.
// Without static credentials the default AWS credential chain is used.
func NewS3Client(ctx context.Context, cfg S3ClientConfig) (*s3.Client, error) {
	// ========================================================================
	// Step 1: Build AWS Config
	// ========================================================================

	var configOptions []func(*awsConfig.LoadOptions) error

	configOptions = append(configOptions, awsConfig.WithRegion(cfg.Region))

	if cfg.Endpoint != "" {
		//nolint:staticcheck // TODO: migrate to BaseEndpoint when AWS SDK v2 stabilizes the new API
		customResolver := aws.EndpointResolverWithOptionsFunc(
			func(service, region string, options ...interface{}) (aws.Endpoint, error) {
				//nolint:staticcheck // TODO: migrate to BaseEndpoint when AWS SDK v2 stabilizes the new API
				return aws.Endpoint{
					URL:               cfg.Endpoint,
					HostnameImmutable: true,
					Source:            aws.EndpointSourceCustom,
				}, nil
			},
		)
		//nolint:staticcheck // TODO: migrate to BaseEndpoint when AWS SDK v2 stabilizes the new API
		configOptions = append(configOptions, awsConfig.WithEndpointResolverWithOptions(customResolver))
	}

	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		credProvider := credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")
		configOptions = append(configOptions, awsConfig.WithCredentialsProvider(credProvider))
	}

	maxRetries := cfg.MaxRetries
	if maxRetries == 0 {
		maxRetries = DefaultS3MaxRetries
	}
	configOptions = append(configOptions, awsConfig.WithRetryer(func() aws.Retryer {
		return retry.NewStandard(func(o *retry.StandardOptions) {
			o.MaxAttempts = maxRetries
		})
	}))

	awsCfg, err := awsConfig.LoadDefaultConfig(ctx, configOptions...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	// ========================================================================
	// Step 2: Create S3 Client
	// ========================================================================

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.UsePathStyle = true
		}
	}), nil
}

// CreatePool starts the worker pool described by cfg.
//
// Panics recovered from work items are logged at ERROR with their stack.
func CreatePool(cfg *PoolConfig, m metrics.PoolMetrics) (*workerpool.Pool, error) {
	policy, err := workerpool.ParseSaturationPolicy(cfg.SaturationPolicy)
	if err != nil {
		return nil, fmt.Errorf("pool: %w", err)
	}
	if cfg.Workers <= 0 {
		return nil, fmt.Errorf("pool: workers must be > 0, got %d", cfg.Workers)
	}
	if cfg.QueueSize < 0 {
		return nil, fmt.Errorf("pool: queue_size must be >= 0, got %d", cfg.QueueSize)
	}

	pool := workerpool.New(cfg.Workers,
		workerpool.WithQueueSize(cfg.QueueSize),
		workerpool.WithSaturationPolicy(policy),
		workerpool.WithMetrics(m),
		workerpool.WithPanicHandler(func(value any, stack []byte) {
			logger.Error("Handler panic: %v\n%s", value, stack)
		}),
	)

	if cfg.QueueSize > 0 {
		logger.Debug("Worker pool: workers=%d queue_size=%d policy=%s", cfg.Workers, cfg.QueueSize, policy)
	} else {
		logger.Debug("Worker pool: workers=%d queue=unbounded", cfg.Workers)
	}
	return pool, nil
}

// CreateFetchHandler builds the fetch handler with its rate limiter.
func CreateFetchHandler(cfg *FetchConfig) *handlers.FetchHandler {
	limiter := ratelimiter.New(cfg.RequestsPerSecond, cfg.Burst)
	logger.Debug("Fetch handler: scheme=%s timeout=%s rate=%s", cfg.Scheme, cfg.Timeout, limiter)

	return handlers.NewFetchHandler(handlers.FetchConfig{
		Scheme:       cfg.Scheme,
		Timeout:      cfg.Timeout,
		MaxBytes:     cfg.MaxBytes,
		AllowedHosts: cfg.AllowedHosts,
		Limiter:      limiter,
	})
}

// CreateHandlerRegistry returns the built-in handlers wired to store and the
// fetch configuration.
func CreateHandlerRegistry(cfg *Config, store users.Store) *handlers.Registry {
	deps := handlers.Deps{
		Fetch: CreateFetchHandler(&cfg.Fetch),
	}
	if store != nil {
		deps.Users = handlers.NewUsersHandlers(store)
	}
	return handlers.Default(deps)
}
