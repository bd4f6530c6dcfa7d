package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/example/mes/internal/ctxutil"
	"github.com/example/mes/internal/ports/primary"
	"github.com/example/mes/internal/wire"
)

// RecordCmd returns the record command
func RecordCmd() *cobra.Command {
	var req primary.RecordProductionRequest

	cmd := &cobra.Command{
		Use:   "record",
		Short: "Record pieces done at an operation",
		Long: `Record pieces done (and scrapped) at one operation of an order.

The record is checked against the order's routing and tracking mode, then
appended to the local event log and queued for sync.

Examples:
  mes record --order <id> --operation cut --operator OP-7 --done 12
  mes record --order <id> --operation sew --operator OP-7 --lot <lot-id> --done 10 --scrap 1`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := ctxutil.WithStation(context.Background(), ctxutil.Station{
				OperatorID:   req.OperatorID,
				WorkCenterID: req.WorkCenterID,
			})
			return wire.RecordAdapterWithOutput(cmd.OutOrStdout()).Record(ctx, req)
		},
	}

	cmd.Flags().StringVarP(&req.OrderID, "order", "o", "", "Order id")
	cmd.Flags().StringVar(&req.OperationID, "operation", "", "Operation id from the order's routing")
	cmd.Flags().StringVar(&req.OperatorID, "operator", "", "Operator id")
	cmd.Flags().StringVar(&req.WorkCenterID, "work-center", "", "Work center id")
	cmd.Flags().StringVar(&req.LotID, "lot", "", "Lot id (required for lot-tracked orders)")
	cmd.Flags().IntVar(&req.QtyDonePieces, "done", 0, "Pieces done")
	cmd.Flags().IntVar(&req.QtyScrapPieces, "scrap", 0, "Pieces scrapped (counted within done)")
	cmd.Flags().StringVar(&req.Note, "note", "", "Free-text note")
	_ = cmd.MarkFlagRequired("order")
	_ = cmd.MarkFlagRequired("operation")
	_ = cmd.MarkFlagRequired("operator")

	return cmd
}
