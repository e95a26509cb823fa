package main

import (
	"fmt"

	"github.com/marmos91/dittoweb/pkg/config"
	"github.com/spf13/cobra"
)

func initCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default configuration file",
		Long: `Write the default configuration, including the demo route tree, to --config
or to the default location when --config is not set.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := configPath
			if path == "" {
				written, err := config.InitConfig(force)
				if err != nil {
					return err
				}
				path = written
			} else if err := config.InitConfigToPath(path, force); err != nil {
				return err
			}

			fmt.Printf("Configuration written to %s\n", path)
			fmt.Printf("Start the server with: dittoweb start --config %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing config file")

	return cmd
}
