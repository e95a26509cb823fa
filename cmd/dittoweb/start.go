package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/marmos91/dittoweb/internal/logger"
	"github.com/marmos91/dittoweb/pkg/config"
	"github.com/marmos91/dittoweb/pkg/server"
	"github.com/spf13/cobra"
)

func startCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the server",
		Long: `Load the configuration, build the route tree and serve until SIGINT or SIGTERM.

A missing config file is not an error: built-in defaults are used.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStart(cmd.Context())
		},
	}
}

func runStart(parent context.Context) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.Configure(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output); err != nil {
		return err
	}

	logger.Info("DittoWeb %s (commit %s)", version, commit)
	logger.Info("Log level set to: %s", cfg.Logging.Level)

	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rt, err := config.InitializeRuntime(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := rt.Close(); err != nil {
			logger.Warn("Runtime close: %v", err)
		}
	}()

	adapters, err := config.CreateAdapters(cfg, rt)
	if err != nil {
		return err
	}

	srv := server.New(cfg.Server.ShutdownTimeout)
	for _, a := range adapters {
		if err := srv.AddAdapter(a); err != nil {
			return err
		}
	}
	if rt.Metrics.Server != nil {
		srv.SetAdminServer(rt.Metrics.Server)
	}

	logger.Info("Server is running. Press Ctrl+C to stop.")

	err = srv.Serve(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Server error: %v", err)
		return err
	}
	return nil
}
