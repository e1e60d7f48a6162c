package run

import (
	"fmt"

	"shardlink/internal/conf"

	"github.com/spf13/cobra"
)

func Cmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Connect to the configured login server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := conf.LoadFromFile(configPath)
			if err != nil {
				return fmt.Errorf("failed to load %s: %w", configPath, err)
			}
			return startClient(cfg)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "config.yaml", "Path to the configuration file")

	return cmd
}
