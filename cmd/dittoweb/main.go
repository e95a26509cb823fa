package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// configPath is the --config flag shared by every subcommand.
var configPath string

func main() {
	rootCmd := &cobra.Command{
		Use:   "dittoweb",
		Short: "Route-tree HTTP server with a worker pool",
		Long: `DittoWeb serves HTTP/1.1 from a declarative route tree.

Requests are resolved against stacks and endpoints, then answered with a
static file or a named handler on a fixed-size worker pool. Everything
is configured from a single YAML file (see "dittoweb init").`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file (default: $XDG_CONFIG_HOME/dittoweb/config.yaml)")

	rootCmd.AddCommand(
		startCmd(),
		initCmd(),
		routesCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}
