package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	cliadapter "github.com/example/mes/internal/adapters/cli"
	"github.com/example/mes/internal/wire"
)

// OrderCmd returns the order command
func OrderCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "order",
		Short: "Manage production orders",
		Long:  `Create production orders and inspect their progress.`,
	}

	cmd.AddCommand(orderCreateCmd())
	cmd.AddCommand(orderListCmd())
	cmd.AddCommand(orderShowCmd())

	return cmd
}

func orderCreateCmd() *cobra.Command {
	var in cliadapter.CreateOrderInput

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a production order",
		Long: `Create a production order with a frozen copy of its routing.

Operations are given as OPERATION:SEQUENCE[:STANDARD_MINUTES[:NAME]], or read
from a JSON routing file. Lot and hybrid tracking split the quantity into lots
of --lot-size pieces, the last lot taking the remainder.

Examples:
  mes order create --product 6f1c... --quantity 100 --mode piece --op cut:1:1.5 --op sew:2:4
  mes order create --product 6f1c... --quantity 50 --mode lot --lot-size 12 --routing-file routing.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return wire.OrderAdapterWithOutput(cmd.OutOrStdout()).Create(context.Background(), in)
		},
	}

	cmd.Flags().StringVarP(&in.ProductID, "product", "p", "", "Product id (uuid)")
	cmd.Flags().IntVarP(&in.Quantity, "quantity", "q", 0, "Pieces requested")
	cmd.Flags().StringVarP(&in.TrackingMode, "mode", "m", "piece", "Tracking mode (piece, lot, hybrid)")
	cmd.Flags().IntVar(&in.LotSize, "lot-size", 0, "Pieces per lot (lot and hybrid tracking)")
	cmd.Flags().StringVar(&in.Notes, "notes", "", "Free-text notes")
	cmd.Flags().StringVarP(&in.WorkshopID, "workshop", "w", "", "Workshop id (default from config)")
	cmd.Flags().StringVar(&in.RoutingID, "routing", "", "Routing id the operations were copied from")
	cmd.Flags().StringArrayVar(&in.Operations, "op", nil, "Routing operation OPERATION:SEQUENCE[:STANDARD_MINUTES[:NAME]] (repeatable)")
	cmd.Flags().StringVar(&in.RoutingFile, "routing-file", "", "JSON routing snapshot file")
	_ = cmd.MarkFlagRequired("product")
	_ = cmd.MarkFlagRequired("quantity")
	cmd.MarkFlagsMutuallyExclusive("op", "routing-file")

	return cmd
}

func orderListCmd() *cobra.Command {
	var workshopID string
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List orders with their completion",
		RunE: func(cmd *cobra.Command, args []string) error {
			return wire.OrderAdapterWithOutput(cmd.OutOrStdout()).List(context.Background(), workshopID, limit)
		},
	}

	cmd.Flags().StringVarP(&workshopID, "workshop", "w", "", "Filter by workshop")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Maximum number of orders (0 for all)")

	return cmd
}

func orderShowCmd() *cobra.Command {
	var worked float64

	cmd := &cobra.Command{
		Use:   "show [order-id]",
		Short: "Show order progress, stages and lots",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var workedMinutes *float64
			if cmd.Flags().Changed("worked-minutes") {
				if worked < 0 {
					return fmt.Errorf("--worked-minutes must not be negative")
				}
				workedMinutes = &worked
			}
			_, err := wire.OrderAdapterWithOutput(cmd.OutOrStdout()).Show(context.Background(), args[0], workedMinutes)
			return err
		},
	}

	cmd.Flags().Float64Var(&worked, "worked-minutes", 0, "Minutes worked on the order, to report efficiency")

	return cmd
}
