package config

import (
	"context"
	"errors"
	"fmt"

	"github.com/marmos91/dittoweb/internal/logger"
	"github.com/marmos91/dittoweb/pkg/content"
	"github.com/marmos91/dittoweb/pkg/handlers"
	"github.com/marmos91/dittoweb/pkg/route"
	"github.com/marmos91/dittoweb/pkg/store/users"
	"github.com/marmos91/dittoweb/pkg/workerpool"
)

// Runtime holds every component built from a Config: stores, handlers, the
// route tree, the worker pool and metrics. The adapters dispatch against it.
type Runtime struct {
	Users    users.Store
	Handlers *handlers.Registry
	Tree     *route.Tree
	Statics  content.ContentStore
	Pool     *workerpool.Pool
	Metrics  *MetricsResult
}

// InitializeRuntime creates a fully wired Runtime from the provided configuration.
//
// This function orchestrates the complete initialization process:
//  1. Creates the users store
//  2. Registers the built-in handlers
//  3. Builds the route tree from cfg.Routes
//  4. Initializes metrics (admin server lists the tree)
//  5. Creates the static file store
//  6. Starts the worker pool
//
// On error, components created so far are released.
//
// Example:
//
//	cfg, _ := config.Load("config.yaml")
//	rt, err := config.InitializeRuntime(ctx, cfg)
//	if err != nil {
//	    log.Fatalf("Failed to initialize runtime: %v", err)
//	}
//	defer rt.Close()
func InitializeRuntime(ctx context.Context, cfg *Config) (rt *Runtime, err error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration is nil")
	}

	rt = &Runtime{}
	defer func() {
		if err != nil {
			_ = rt.Close()
			rt = nil
		}
	}()

	// Step 1: Users store
	rt.Users, err = CreateUsersStore(ctx, &cfg.Users)
	if err != nil {
		return rt, fmt.Errorf("failed to create users store: %w", err)
	}
	logger.Debug("Users store created (type: %s)", cfg.Users.Type)

	// Step 2: Handlers
	rt.Handlers = CreateHandlerRegistry(cfg, rt.Users)
	logger.Debug("Registered handlers: %v", rt.Handlers.Names())

	// Step 3: Route tree
	rt.Tree, err = BuildRouteTree(cfg, rt.Handlers)
	if err != nil {
		return rt, fmt.Errorf("failed to build route tree: %w", err)
	}
	logger.Debug("Route tree built: %d endpoint(s), not found: %s", len(rt.Tree.Entries()), rt.Tree.NotFound())

	// Step 4: Metrics
	rt.Metrics = InitializeMetrics(cfg, rt.Tree)

	// Step 5: Static store
	rt.Statics, err = CreateStaticStore(ctx, &cfg.Statics, rt.Metrics)
	if err != nil {
		return rt, fmt.Errorf("failed to create static store: %w", err)
	}

	// Step 6: Worker pool
	rt.Pool, err = CreatePool(&cfg.Pool, rt.Metrics.PoolMetrics)
	if err != nil {
		return rt, fmt.Errorf("failed to create worker pool: %w", err)
	}

	return rt, nil
}

// Close drains the worker pool and closes the users store.
//
// Call it after the adapters have stopped.
func (rt *Runtime) Close() error {
	if rt == nil {
		return nil
	}

	var errs []error
	if rt.Pool != nil {
		rt.Pool.Close()
	}
	if rt.Users != nil {
		if err := rt.Users.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close users store: %w", err))
		}
	}
	return errors.Join(errs...)
}
