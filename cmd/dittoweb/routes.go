package main

import (
	"fmt"
	"io"
	"os"

	"github.com/marmos91/dittoweb/pkg/config"
	"github.com/marmos91/dittoweb/pkg/route"
	usersmemory "github.com/marmos91/dittoweb/pkg/store/users/memory"
	"github.com/spf13/cobra"
)

func routesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "routes",
		Short: "Print the configured route tree",
		Long:  `Print every endpoint of the configured route tree in resolution order.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			// Handlers are only resolved by name, so the configured users
			// store is not opened.
			reg := config.CreateHandlerRegistry(cfg, usersmemory.NewMemoryUserStore())
			tree, err := config.BuildRouteTree(cfg, reg)
			if err != nil {
				return err
			}

			printRoutes(os.Stdout, tree)
			return nil
		},
	}
}

func printRoutes(w io.Writer, tree *route.Tree) {
	tree.Walk(func(e route.Entry) {
		fmt.Fprintf(w, "%-40s %s\n", e.Path, route.Describe(e.Target))
	})
	fmt.Fprintf(w, "%-40s file %s\n", "(not found)", tree.NotFound())
}
