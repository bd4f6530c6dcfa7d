// Package cli provides thin CLI adapters that translate between CLI concerns
// and application services. Adapters handle argument parsing, output formatting,
// but delegate business logic to services.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"
	json "github.com/goccy/go-json"

	"github.com/example/mes/internal/core/aggregation"
	"github.com/example/mes/internal/core/routing"
	"github.com/example/mes/internal/ports/primary"
)

// OrderAdapter is a thin adapter that translates CLI operations to
// OrderService and ProgressService calls.
type OrderAdapter struct {
	orders   primary.OrderService
	progress primary.ProgressService
	out      io.Writer
}

// NewOrderAdapter creates a new OrderAdapter with the given services.
func NewOrderAdapter(orders primary.OrderService, progress primary.ProgressService, out io.Writer) *OrderAdapter {
	return &OrderAdapter{
		orders:   orders,
		progress: progress,
		out:      out,
	}
}

// CreateOrderInput carries the raw flag values of `order create`.
type CreateOrderInput struct {
	ProductID    string
	Quantity     int
	TrackingMode string
	LotSize      int
	Notes        string
	WorkshopID   string
	RoutingID    string
	Operations   []string // OPERATION:SEQUENCE[:STANDARD_MINUTES[:NAME]]
	RoutingFile  string   // JSON routing snapshot, used when Operations is empty
}

// Create creates a new production order.
func (a *OrderAdapter) Create(ctx context.Context, in CreateOrderInput) error {
	routingID := in.RoutingID
	var ops []primary.RoutingOperation
	switch {
	case len(in.Operations) > 0:
		for _, raw := range in.Operations {
			op, err := ParseOperation(raw)
			if err != nil {
				return err
			}
			ops = append(ops, op)
		}
	case in.RoutingFile != "":
		snapshot, err := readRoutingFile(in.RoutingFile)
		if err != nil {
			return err
		}
		if routingID == "" {
			routingID = snapshot.ID
		}
		for _, op := range snapshot.Operations {
			ops = append(ops, primary.RoutingOperation{
				OperationID:     op.OperationID,
				Sequence:        op.Sequence,
				StandardMinutes: op.StandardMinutes,
				Name:            op.Name,
			})
		}
	default:
		return fmt.Errorf("must specify --op or --routing-file")
	}

	resp, err := a.orders.CreateOrder(ctx, primary.CreateOrderRequest{
		ProductID:         in.ProductID,
		QuantityRequested: in.Quantity,
		TrackingMode:      in.TrackingMode,
		LotSize:           in.LotSize,
		Notes:             in.Notes,
		WorkshopID:        in.WorkshopID,
		RoutingID:         routingID,
		Operations:        ops,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "✓ Created order %s (%d pieces, %s tracking)\n",
		resp.OrderID, resp.Order.QuantityRequested, resp.Order.TrackingMode)
	for _, l := range resp.Lots {
		fmt.Fprintf(a.out, "  lot %d: %s (%d pieces)\n", l.LotNumber, l.ID, l.PlannedPieces)
	}
	return nil
}

// List lists orders with their completion.
func (a *OrderAdapter) List(ctx context.Context, workshopID string, limit int) error {
	orders, err := a.progress.ListOrders(ctx, primary.OrderFilters{
		WorkshopID: workshopID,
		Limit:      limit,
	})
	if err != nil {
		return fmt.Errorf("failed to list orders: %w", err)
	}

	if len(orders) == 0 {
		fmt.Fprintln(a.out, "No orders found")
		return nil
	}

	fmt.Fprintf(a.out, "\n%-36s %-8s %8s %8s %8s %7s\n", "ID", "MODE", "TARGET", "DONE", "SCRAP", "%")
	fmt.Fprintln(a.out, "──────────────────────────────────────────────────────────────────────────────────")
	for _, o := range orders {
		fmt.Fprintf(a.out, "%-36s %-8s %8d %8d %8d %7s\n",
			o.OrderID, o.TrackingMode, o.TargetPieces, o.CompletedPieces, o.ScrapPieces, percent(o.CompletionPercent))
	}
	fmt.Fprintln(a.out)

	return nil
}

// Show displays the progress of one order, its stages and its lots.
func (a *OrderAdapter) Show(ctx context.Context, orderID string, workedMinutes *float64) (*primary.OrderProgressView, error) {
	view, err := a.progress.GetOrderProgress(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to get order progress: %w", err)
	}

	o, p := view.Order, view.Progress
	fmt.Fprintf(a.out, "\nOrder:    %s\n", o.ID)
	fmt.Fprintf(a.out, "Product:  %s\n", o.ProductID)
	fmt.Fprintf(a.out, "Tracking: %s", o.TrackingMode)
	if o.LotSize > 0 {
		fmt.Fprintf(a.out, " (lot size %d)", o.LotSize)
	}
	fmt.Fprintln(a.out)
	if o.Notes != "" {
		fmt.Fprintf(a.out, "Notes:    %s\n", o.Notes)
	}
	fmt.Fprintf(a.out, "Created:  %s\n", o.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(a.out, "\nTarget %d | completed %d | WIP %d | scrap %d | processed %d | %s\n",
		p.TargetPieces, p.CompletedPieces, p.WIPPieces, p.ScrapPieces, p.ProcessedPieces,
		completionLabel(p.CompletionPercent))
	if p.AvgStageProgress != nil {
		fmt.Fprintf(a.out, "Average stage progress: %s\n", percent(*p.AvgStageProgress))
	}
	fmt.Fprintf(a.out, "Standard minutes produced: %.2f\n", p.StandardMinutesProducedTotal)

	if workedMinutes != nil {
		eff, err := a.progress.GetEfficiency(ctx, orderID, workedMinutes)
		if err != nil {
			return nil, fmt.Errorf("failed to compute efficiency: %w", err)
		}
		if eff == nil {
			fmt.Fprintln(a.out, "Efficiency: n/a")
		} else {
			fmt.Fprintf(a.out, "Efficiency: %s\n", percent(*eff))
		}
	}

	if len(view.Stages) > 0 {
		fmt.Fprintf(a.out, "\n%-4s %-20s %8s %8s %10s\n", "SEQ", "OPERATION", "DONE", "SCRAP", "STD MIN")
		for _, s := range view.Stages {
			fmt.Fprintf(a.out, "%-4d %-20s %8d %8d %10.2f\n", s.Sequence, s.OperationID, s.DonePieces, s.ScrapPieces, s.StandardMinutesProduced)
		}
	}

	if len(view.Lots) > 0 {
		fmt.Fprintf(a.out, "\n%-4s %-36s %7s %6s %6s %6s %s\n", "#", "LOT", "PLANNED", "DONE", "SCRAP", "LEFT", "STATUS")
		for _, l := range view.Lots {
			fmt.Fprintf(a.out, "%-4d %-36s %7d %6d %6d %6d %s\n",
				l.LotNumber, l.LotID, l.PlannedPieces, l.DonePieces, l.ScrapPieces, l.RemainingPieces, lotStatusLabel(l))
		}
	}
	fmt.Fprintln(a.out)

	return view, nil
}

// ParseOperation parses OPERATION:SEQUENCE[:STANDARD_MINUTES[:NAME]].
func ParseOperation(raw string) (primary.RoutingOperation, error) {
	parts := strings.SplitN(raw, ":", 4)
	if len(parts) < 2 || parts[0] == "" {
		return primary.RoutingOperation{}, fmt.Errorf("invalid operation %q: expected OPERATION:SEQUENCE[:STANDARD_MINUTES[:NAME]]", raw)
	}

	seq, err := strconv.Atoi(parts[1])
	if err != nil {
		return primary.RoutingOperation{}, fmt.Errorf("invalid sequence in operation %q: %w", raw, err)
	}

	op := primary.RoutingOperation{OperationID: parts[0], Sequence: seq}
	if len(parts) > 2 && parts[2] != "" {
		op.StandardMinutes, err = strconv.ParseFloat(parts[2], 64)
		if err != nil {
			return primary.RoutingOperation{}, fmt.Errorf("invalid standard minutes in operation %q: %w", raw, err)
		}
	}
	if len(parts) > 3 {
		op.Name = parts[3]
	}
	return op, nil
}

func readRoutingFile(path string) (routing.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return routing.Snapshot{}, fmt.Errorf("failed to read routing file: %w", err)
	}
	var snapshot routing.Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return routing.Snapshot{}, fmt.Errorf("failed to parse routing file %s: %w", path, err)
	}
	return snapshot, nil
}

func percent(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64) + "%"
}

func completionLabel(v float64) string {
	label := percent(v) + " complete"
	if v >= 100 {
		return color.New(color.FgGreen).Sprint(label)
	}
	return label
}

func lotStatusLabel(l aggregation.LotProgress) string {
	var label string
	switch l.Status {
	case aggregation.LotDone:
		label = color.New(color.FgGreen).Sprint(l.Status)
	case aggregation.LotInProgress:
		label = color.New(color.FgYellow).Sprint(l.Status)
	default:
		label = string(l.Status)
	}
	if l.OverProduced {
		label += color.New(color.FgHiMagenta).Sprint(" [over-produced]")
	}
	return label
}
