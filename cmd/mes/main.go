package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/mes/internal/cli"
	"github.com/example/mes/internal/version"
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "mes",
		Short:   "mes - offline-first production event log",
		Version: version.String(),
		Long: `mes records production activity against orders in a local event log,
derives order, stage and lot progress from it, and syncs the log to a
remote system through an outbox.`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(cli.InitCmd())
	rootCmd.AddCommand(cli.OrderCmd())
	rootCmd.AddCommand(cli.RecordCmd())
	rootCmd.AddCommand(cli.SyncCmd())
	rootCmd.AddCommand(cli.RemoteCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
