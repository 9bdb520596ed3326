package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/omsdash/omsctl/internal/export"
	"github.com/omsdash/omsctl/internal/mutation"
	"github.com/omsdash/omsctl/internal/oms"
	"github.com/omsdash/omsctl/internal/scope"
	"github.com/omsdash/omsctl/internal/services"
	"github.com/omsdash/omsctl/internal/usecase"
	"github.com/omsdash/omsctl/internal/view"
)

func newOrdersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "orders",
		Aliases: []string{"order"},
		Short:   "List and edit the orders of a month",
	}
	cmd.AddCommand(newOrdersListCmd())
	cmd.AddCommand(newOrdersAddCmd())
	cmd.AddCommand(newOrdersEditCmd())
	cmd.AddCommand(newOrdersExportCmd())
	cmd.AddCommand(newMonthFileCmd())
	cmd.AddCommand(newDesignerCmd())
	return cmd
}

type monthFlags struct {
	month  string
	offset int
}

func (m *monthFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&m.month, "month", "", "Month partition (YYYY-MM), current month if omitted")
	cmd.Flags().IntVar(&m.offset, "offset", 0, "Months to move from --month, e.g. -1 for the previous month")
}

func (m *monthFlags) resolve() (string, error) {
	sc, err := usecase.ResolveScope(usecase.ScopeOptions{Month: m.month, Offset: m.offset})
	if err != nil {
		return "", err
	}
	return scope.FormatScope(sc), nil
}

// loadOrders opens an order screen on the month and loads it together with
// the reference data.
func loadOrders(ctx context.Context, app *usecase.App, month string) (*usecase.Orders, error) {
	screen := app.OrdersScreen()
	md, err := app.Metadata().Load(ctx)
	if err != nil {
		logger.Warn("reference data incomplete", "error", err)
	}
	screen.SetMetadata(md)
	if err := screen.Load(ctx, month); err != nil {
		return nil, err
	}
	return screen, nil
}

func newOrdersListCmd() *cobra.Command {
	var (
		months  monthFlags
		filter  string
		asc     bool
		offline bool
		format  string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the orders of a month, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}
			month, err := months.resolve()
			if err != nil {
				return err
			}
			key := view.SortKey{Field: usecase.OrderDateField, Direction: view.Desc}
			if asc {
				key.Direction = view.Asc
			}

			ctx := cmd.Context()
			var orders []oms.Order
			storeName := func(ref string) string { return ref }

			if offline {
				orders, err = offlineOrders(ctx, month)
				if err != nil {
					return err
				}
				orders = view.Apply(orders, filter, key, usecase.NewOrderSchema(nil))
			} else {
				app, closeApp, err := openApp(true)
				if err != nil {
					return err
				}
				defer closeApp()

				screen, err := loadOrders(ctx, app, month)
				if err != nil {
					return err
				}
				screen.SetFilter(filter)
				screen.SetSort(key)
				orders = screen.Visible()
				storeName = screen.StoreName
			}

			if format == "json" {
				return outputJSON(cmd, orders)
			}
			outputOrdersTable(cmd, orders, storeName)
			return nil
		},
	}

	months.register(cmd)
	cmd.Flags().StringVar(&filter, "filter", "", "Case-insensitive text matched against id, SKU, tracking, store name and handler")
	cmd.Flags().BoolVar(&asc, "asc", false, "Oldest first")
	cmd.Flags().BoolVar(&offline, "offline", false, "Show the last fetched copy from the local cache")
	cmd.Flags().StringVar(&format, "format", "table", "Output format: table or json")
	return cmd
}

func offlineOrders(ctx context.Context, month string) ([]oms.Order, error) {
	dbCtx, closeDB, err := openCache()
	if err != nil {
		return nil, err
	}
	defer closeDB()

	var orders []oms.Order
	snap, err := services.NewSnapshotService(dbCtx).Load(ctx, services.SnapshotOrders, month, &orders)
	if errors.Is(err, services.ErrNotFound) {
		return nil, fmt.Errorf("no cached orders for %s: run 'oms orders list --month %s' online first", month, month)
	}
	if err != nil {
		return nil, err
	}
	logger.Info("showing cached orders", "month", month, "fetched_at", snap.FetchedAt)
	return orders, nil
}

// parseItem reads SKU[:QTY[:UNIT[:NOTE]]].
func parseItem(raw string) oms.OrderItem {
	parts := strings.SplitN(raw, ":", 4)
	item := oms.OrderItem{SKU: strings.TrimSpace(parts[0])}
	if len(parts) > 1 {
		item.Quantity = strings.TrimSpace(parts[1])
	}
	if len(parts) > 2 {
		item.Type = strings.TrimSpace(parts[2])
	}
	if len(parts) > 3 {
		item.Note = parts[3]
	}
	return item
}

func waitTask(ctx context.Context, task *mutation.Task) error {
	select {
	case <-task.Done():
		return task.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

func newOrdersAddCmd() *cobra.Command {
	var (
		draft usecase.OrderDraft
		items []string
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create an order",
		Long: `Create an order in the month its date falls in.

Items are given as SKU[:QTY[:UNIT[:NOTE]]]; rows without a SKU are ignored and
the first remaining row becomes the order line.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			for _, raw := range items {
				draft.Items = append(draft.Items, parseItem(raw))
			}

			app, closeApp, err := openApp(true)
			if err != nil {
				return err
			}
			defer closeApp()

			ctx := cmd.Context()
			month := scope.MonthOf(draft.Date, scope.Current(timeNow()))
			screen, err := loadOrders(ctx, app, month)
			if err != nil {
				return err
			}
			defer screen.Close()

			task, err := screen.Create(ctx, draft)
			if err != nil {
				return err
			}
			if err := waitTask(ctx, task); err != nil {
				return fmt.Errorf("order %s was not saved: %w", task.RecordID, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added order %s to %s\n", task.RecordID, month)
			return nil
		},
	}

	cmd.Flags().StringVar(&draft.ID, "id", "", "Order id (required)")
	cmd.Flags().StringVar(&draft.Date, "date", "", "Order date (YYYY-MM-DD), today if omitted")
	cmd.Flags().StringVar(&draft.StoreRef, "store", "", "Store id or name (required)")
	cmd.Flags().StringArrayVar(&items, "item", nil, "Item as SKU[:QTY[:UNIT[:NOTE]]], repeatable")
	cmd.Flags().StringVar(&draft.Tracking, "tracking", "", "Tracking number")
	cmd.Flags().StringVar(&draft.Link, "link", "", "Design link")
	cmd.Flags().StringVar(&draft.Status, "status", "", "Status (default Pending)")
	cmd.Flags().StringVar(&draft.ActionRole, "assign", "", "Username the order is assigned to")
	cmd.Flags().BoolVar(&draft.IsChecked, "checked", false, "Mark the order as checked")
	_ = cmd.MarkFlagRequired("id")
	_ = cmd.MarkFlagRequired("store")
	return cmd
}

func newOrdersEditCmd() *cobra.Command {
	var (
		months monthFlags
		patch  oms.OrderPatch
	)

	cmd := &cobra.Command{
		Use:   "edit <order-id>",
		Short: "Update the editable fields of an order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			month, err := months.resolve()
			if err != nil {
				return err
			}
			app, closeApp, err := openApp(true)
			if err != nil {
				return err
			}
			defer closeApp()

			ctx := cmd.Context()
			screen, err := loadOrders(ctx, app, month)
			if err != nil {
				return err
			}
			defer screen.Close()

			order, ok := screen.Collection().Find(args[0])
			if !ok {
				return fmt.Errorf("order %s not found in %s", args[0], month)
			}

			flags := cmd.Flags()
			set := func(name string, dst *string, src string) {
				if flags.Changed(name) {
					*dst = src
				}
			}
			set("sku", &order.SKU, patch.SKU)
			set("unit", &order.Type, patch.Type)
			set("quantity", &order.Quantity, patch.Quantity)
			set("note", &order.Note, patch.Note)
			set("tracking", &order.Tracking, patch.Tracking)
			set("link", &order.Link, patch.Link)
			set("status", &order.Status, patch.Status)
			set("assign", &order.ActionRole, patch.ActionRole)
			if flags.Changed("checked") {
				order.IsChecked = patch.IsChecked
			}

			task, err := screen.Edit(ctx, order)
			if err != nil {
				return err
			}
			if err := waitTask(ctx, task); err != nil {
				return fmt.Errorf("order %s was not updated: %w", order.ID, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated order %s\n", order.ID)
			return nil
		},
	}

	months.register(cmd)
	cmd.Flags().StringVar(&patch.SKU, "sku", "", "SKU")
	cmd.Flags().StringVar(&patch.Type, "unit", "", "Fulfilment unit")
	cmd.Flags().StringVar(&patch.Quantity, "quantity", "", "Quantity")
	cmd.Flags().StringVar(&patch.Note, "note", "", "Note")
	cmd.Flags().StringVar(&patch.Tracking, "tracking", "", "Tracking number")
	cmd.Flags().StringVar(&patch.Link, "link", "", "Design link")
	cmd.Flags().StringVar(&patch.Status, "status", "", "Status")
	cmd.Flags().StringVar(&patch.ActionRole, "assign", "", "Username the order is assigned to")
	cmd.Flags().BoolVar(&patch.IsChecked, "checked", false, "Checked flag")
	return cmd
}

func newOrdersExportCmd() *cobra.Command {
	var (
		months  monthFlags
		out     string
		offline bool
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the orders of a month to an XLSX workbook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			month, err := months.resolve()
			if err != nil {
				return err
			}
			if out == "" {
				out = fmt.Sprintf("orders-%s.xlsx", month)
			}

			ctx := cmd.Context()
			var orders []oms.Order
			var storeName func(string) string
			if offline {
				if orders, err = offlineOrders(ctx, month); err != nil {
					return err
				}
			} else {
				app, closeApp, err := openApp(true)
				if err != nil {
					return err
				}
				defer closeApp()
				screen, err := loadOrders(ctx, app, month)
				if err != nil {
					return err
				}
				orders = screen.Visible()
				storeName = screen.StoreName
			}

			//nolint:gosec // G304: path comes from the user
			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", out, err)
			}
			if err := export.Orders(f, orders, storeName); err != nil {
				_ = f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d orders to %s\n", len(orders), out)
			return nil
		},
	}

	months.register(cmd)
	cmd.Flags().StringVarP(&out, "output", "o", "", "Output file (default orders-YYYY-MM.xlsx)")
	cmd.Flags().BoolVar(&offline, "offline", false, "Export the last fetched copy from the local cache")
	return cmd
}

func newMonthFileCmd() *cobra.Command {
	var months monthFlags

	cmd := &cobra.Command{
		Use:   "month-file",
		Short: "Create the order file of a month",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			month, err := months.resolve()
			if err != nil {
				return err
			}
			app, closeApp, err := openApp(true)
			if err != nil {
				return err
			}
			defer closeApp()

			if err := app.Orders.CreateMonthFile(cmd.Context(), month); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created order file for %s\n", month)
			return nil
		},
	}
	months.register(cmd)
	return cmd
}

func newDesignerCmd() *cobra.Command {
	var (
		months monthFlags
		format string
	)

	cmd := &cobra.Command{
		Use:   "designer",
		Short: "List the orders of a month assigned to designers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}
			month, err := months.resolve()
			if err != nil {
				return err
			}
			app, closeApp, err := openApp(true)
			if err != nil {
				return err
			}
			defer closeApp()

			screen, err := loadOrders(cmd.Context(), app, month)
			if err != nil {
				return err
			}
			queue := screen.DesignerQueue()
			if format == "json" {
				return outputJSON(cmd, queue)
			}
			outputOrdersTable(cmd, queue, screen.StoreName)
			return nil
		},
	}
	months.register(cmd)
	cmd.Flags().StringVar(&format, "format", "table", "Output format: table or json")
	return cmd
}
