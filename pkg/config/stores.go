package config

import (
	"context"
	"fmt"

	"github.com/marmos91/dittoweb/internal/logger"
	"github.com/marmos91/dittoweb/pkg/content"
	"github.com/marmos91/dittoweb/pkg/content/cache"
	contentfs "github.com/marmos91/dittoweb/pkg/content/fs"
	contentmemory "github.com/marmos91/dittoweb/pkg/content/memory"
	contents3 "github.com/marmos91/dittoweb/pkg/content/s3"
	"github.com/marmos91/dittoweb/pkg/metrics"
	"github.com/marmos91/dittoweb/pkg/store/users"
	"github.com/marmos91/dittoweb/pkg/store/users/badger"
	usersmemory "github.com/marmos91/dittoweb/pkg/store/users/memory"
	"github.com/mitchellh/mapstructure"
)

// CreateStaticStore creates the static file store selected by cfg.Store.Type
// and, when cfg.Cache.Enabled, wraps it in the LRU cache.
//
// Supported types:
//   - "filesystem": pkg/content/fs rooted at filesystem.path
//   - "memory": pkg/content/memory seeded from memory.files (path -> body)
//   - "s3": pkg/content/s3 reading s3.bucket under s3.key_prefix
//
// Parameters:
//   - ctx: Context for initialization operations
//   - cfg: Statics configuration
//   - m: Metrics for the backend and cache (nil members use no-op collectors)
//
// Returns:
//   - content.ContentStore: Ready-to-serve store
//   - error: Configuration or initialization error
func CreateStaticStore(ctx context.Context, cfg *StaticsConfig, m *MetricsResult) (content.ContentStore, error) {
	contentMetrics := metrics.NewNoopContentMetrics()
	cacheMetrics := metrics.NewNoopCacheMetrics()
	if m != nil {
		if m.ContentMetrics != nil {
			contentMetrics = m.ContentMetrics
		}
		if m.CacheMetrics != nil {
			cacheMetrics = m.CacheMetrics
		}
	}

	var (
		store content.ContentStore
		err   error
	)
	switch cfg.Store.Type {
	case "filesystem":
		store, err = createFilesystemStaticStore(ctx, cfg.Store.Filesystem)
	case "memory":
		store, err = createMemoryStaticStore(ctx, cfg.Store.Memory)
	case "s3":
		store, err = createS3StaticStore(ctx, cfg.Store.S3, contentMetrics)
	default:
		return nil, fmt.Errorf("unknown static store type: %q (supported: filesystem, memory, s3)", cfg.Store.Type)
	}
	if err != nil {
		return nil, err
	}

	if !cfg.Cache.Enabled {
		return store, nil
	}

	logger.Debug("Static cache enabled: max_entries=%d max_bytes=%d max_entry_bytes=%d",
		cfg.Cache.MaxEntries, cfg.Cache.MaxBytes, cfg.Cache.MaxEntryBytes)

	return cache.New(store, cache.Config{
		MaxEntries:    cfg.Cache.MaxEntries,
		MaxBytes:      cfg.Cache.MaxBytes,
		MaxEntryBytes: cfg.Cache.MaxEntryBytes,
		Metrics:       cacheMetrics,
	}), nil
}

// createFilesystemStaticStore creates a filesystem-based static store.
func createFilesystemStaticStore(ctx context.Context, options map[string]any) (content.ContentStore, error) {
	type FilesystemStaticStoreConfig struct {
		Path   string `mapstructure:"path"`
		Create bool   `mapstructure:"create"`
	}

	var storeCfg FilesystemStaticStoreConfig
	if err := mapstructure.Decode(options, &storeCfg); err != nil {
		return nil, fmt.Errorf("failed to decode filesystem static store config: %w", err)
	}

	if storeCfg.Path == "" {
		return nil, fmt.Errorf("filesystem static store: path is required")
	}

	store, err := contentfs.NewFSContentStore(ctx, storeCfg.Path, storeCfg.Create)
	if err != nil {
		return nil, fmt.Errorf("failed to create filesystem static store: %w", err)
	}

	logger.Info("Static store: filesystem path=%s", store.BasePath())
	return store, nil
}

// createMemoryStaticStore creates an in-memory static store.
func createMemoryStaticStore(ctx context.Context, options map[string]any) (content.ContentStore, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	type MemoryStaticStoreConfig struct {
		Files map[string]string `mapstructure:"files"`
	}

	var storeCfg MemoryStaticStoreConfig
	if err := mapstructure.Decode(options, &storeCfg); err != nil {
		return nil, fmt.Errorf("failed to decode memory static store config: %w", err)
	}

	files := make(map[string][]byte, len(storeCfg.Files))
	for p, body := range storeCfg.Files {
		files[p] = []byte(body)
	}

	store, err := contentmemory.NewMemoryContentStoreFrom(files)
	if err != nil {
		return nil, fmt.Errorf("failed to create memory static store: %w", err)
	}

	logger.Info("Static store: memory files=%d", len(files))
	return store, nil
}

// createS3StaticStore creates an S3-based static store.
func createS3StaticStore(ctx context.Context, options map[string]any, m metrics.ContentMetrics) (content.ContentStore, error) {
	var storeCfg S3ClientConfig
	if err := mapstructure.Decode(options, &storeCfg); err != nil {
		return nil, fmt.Errorf("failed to decode S3 static store config: %w", err)
	}

	if storeCfg.Bucket == "" {
		return nil, fmt.Errorf("S3 static store: bucket is required")
	}
	if storeCfg.Region == "" {
		return nil, fmt.Errorf("S3 static store: region is required")
	}

	client, err := NewS3Client(ctx, storeCfg)
	if err != nil {
		return nil, err
	}

	store, err := contents3.NewS3ContentStore(ctx, contents3.S3ContentStoreConfig{
		Client:          client,
		Bucket:          storeCfg.Bucket,
		KeyPrefix:       storeCfg.KeyPrefix,
		Metrics:         m,
		SkipBucketCheck: storeCfg.SkipBucketCheck,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 static store: %w", err)
	}

	logger.Info("Static store: s3 bucket=%s, region=%s, prefix=%s",
		storeCfg.Bucket, storeCfg.Region, storeCfg.KeyPrefix)

	return store, nil
}

// CreateUsersStore creates the users store selected by cfg.Type.
//
// Supported types:
//   - "memory": pkg/store/users/memory (ephemeral)
//   - "badger": pkg/store/users/badger (persistent, badger.db_path)
func CreateUsersStore(ctx context.Context, cfg *UsersConfig) (users.Store, error) {
	switch cfg.Type {
	case "memory":
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return usersmemory.NewMemoryUserStore(), nil
	case "badger":
		return createBadgerUsersStore(ctx, cfg.Badger)
	default:
		return nil, fmt.Errorf("unknown users store type: %q (supported: memory, badger)", cfg.Type)
	}
}

// createBadgerUsersStore creates a BadgerDB-based users store.
func createBadgerUsersStore(ctx context.Context, options map[string]any) (users.Store, error) {
	type BadgerUsersStoreOptions struct {
		DBPath   string `mapstructure:"db_path"`
		InMemory bool   `mapstructure:"in_memory"`
	}

	var storeOpts BadgerUsersStoreOptions
	if err := mapstructure.Decode(options, &storeOpts); err != nil {
		return nil, fmt.Errorf("failed to decode badger users store options: %w", err)
	}

	if storeOpts.DBPath == "" && !storeOpts.InMemory {
		return nil, fmt.Errorf("badger users store: db_path is required")
	}

	store, err := badger.NewBadgerUserStore(ctx, badger.BadgerUserStoreConfig{
		DBPath:   storeOpts.DBPath,
		InMemory: storeOpts.InMemory,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create badger users store: %w", err)
	}

	return store, nil
}
