package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/example/mes/internal/wire"
)

// SyncCmd returns the sync command
func SyncCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Deliver queued events to the remote system",
		Long:  `Flush the outbox, inspect delivery state, and retry failed items.`,
	}

	cmd.AddCommand(syncFlushCmd())
	cmd.AddCommand(syncResetCmd())
	cmd.AddCommand(syncStatusCmd())
	cmd.AddCommand(syncFailedCmd())

	return cmd
}

func syncFlushCmd() *cobra.Command {
	var limit int
	var failureRate float64
	var verbose bool

	cmd := &cobra.Command{
		Use:   "flush",
		Short: "Deliver one batch of pending events",
		Long: `Deliver up to --limit pending events, oldest first.

Delivered events are marked sent; events the remote already holds count as
deduped. Failed events stay failed until 'mes sync reset'.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var rate *float64
			if cmd.Flags().Changed("failure-rate") {
				rate = &failureRate
			}
			_, err := wire.SyncAdapterWithOutput(cmd.OutOrStdout()).Flush(context.Background(), limit, rate, verbose)
			return err
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Maximum events to deliver (default from config)")
	cmd.Flags().Float64Var(&failureRate, "failure-rate", 0, "Simulated failure probability in [0,1] (default from config)")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Print one line per event")

	return cmd
}

func syncResetCmd() *cobra.Command {
	var keepError bool

	cmd := &cobra.Command{
		Use:   "reset [event-id...]",
		Short: "Move failed events back to pending",
		Long:  `Move the given failed events back to pending. With no ids, every failed event is reset.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return wire.SyncAdapterWithOutput(cmd.OutOrStdout()).Reset(context.Background(), args, !keepError)
		},
	}

	cmd.Flags().BoolVar(&keepError, "keep-error", false, "Keep the recorded error message")

	return cmd
}

func syncStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show outbox counts and remote received count",
		RunE: func(cmd *cobra.Command, args []string) error {
			return wire.SyncAdapterWithOutput(cmd.OutOrStdout()).Status(context.Background())
		},
	}
}

func syncFailedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "failed",
		Short: "List failed events",
		RunE: func(cmd *cobra.Command, args []string) error {
			return wire.SyncAdapterWithOutput(cmd.OutOrStdout()).Failed(context.Background())
		},
	}
}

// RemoteCmd returns the remote command
func RemoteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remote",
		Short: "Inspect the simulated remote system",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Forget every event the remote has received",
		RunE: func(cmd *cobra.Command, args []string) error {
			return wire.SyncAdapterWithOutput(cmd.OutOrStdout()).ClearRemote(context.Background())
		},
	})

	return cmd
}
