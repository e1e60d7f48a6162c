package main

import (
	"fmt"
	"os"

	"shardlink/cmd/run"
	"shardlink/cmd/table"
	"shardlink/cmd/version"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "shardlink",
		Short:         "Game protocol client transport",
		Long:          `shardlink logs an account in through a login server, follows the relay to the game server and keeps the connection alive.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.AddCommand(run.Cmd())
	rootCmd.AddCommand(table.Cmd())
	rootCmd.AddCommand(version.Cmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
