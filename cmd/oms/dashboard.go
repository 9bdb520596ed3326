package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/omsdash/omsctl/internal/oms"
	"github.com/omsdash/omsctl/internal/refresh"
	"github.com/omsdash/omsctl/internal/services"
	"github.com/omsdash/omsctl/internal/usecase"
)

func newDashboardCmd() *cobra.Command {
	var (
		watch    bool
		snapshot bool
		format   string
	)

	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Show revenue and growth figures of the store registry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}
			app, closeApp, err := openApp(true)
			if err != nil {
				return err
			}
			defer closeApp()

			screen := app.StoresScreen()
			ctx := cmd.Context()

			if !watch {
				if err := screen.Load(ctx, ""); err != nil {
					return err
				}
				if snapshot {
					if err := screen.Snapshot(ctx); err != nil {
						return err
					}
				}
				return renderDashboard(ctx, cmd, screen, format)
			}

			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			reloaded := make(chan struct{}, 1)
			opts := app.ScreenOptions()
			opts.OnReload = func(error) {
				select {
				case reloaded <- struct{}{}:
				default:
				}
			}
			screen = usecase.NewStores(app.Stores, app.Stats, opts)
			if err := screen.Watch(ctx, ""); err != nil {
				if errors.Is(err, refresh.ErrLocked) {
					return fmt.Errorf("another oms process is already watching the dashboard")
				}
				return err
			}
			defer screen.Close()

			if err := renderDashboard(ctx, cmd, screen, format); err != nil {
				return err
			}
			for {
				select {
				case <-ctx.Done():
					return nil
				case <-reloaded:
					if err := renderDashboard(ctx, cmd, screen, format); err != nil {
						logger.Warn("dashboard render failed", "error", err)
					}
				}
			}
		},
	}

	cmd.Flags().BoolVar(&watch, "watch", false, "Keep refreshing until interrupted")
	cmd.Flags().BoolVar(&snapshot, "snapshot", false, "Record today's daily snapshot first")
	cmd.Flags().StringVar(&format, "format", "table", "Output format: table or json")
	return cmd
}

func money(v int64) string {
	return decimal.NewFromInt(v).StringFixedBank(0)
}

func renderDashboard(ctx context.Context, cmd *cobra.Command, screen *usecase.Stores, format string) error {
	d, err := screen.Dashboard(ctx)
	if err != nil {
		return err
	}
	if format == "json" {
		return outputJSON(cmd, dashboardJSON(d))
	}

	summary := newTable(cmd)
	summary.SetTitle("Store dashboard")
	summary.AppendHeader(table.Row{"Metric", "Value"})
	summary.AppendRows([]table.Row{
		{"Revenue", money(d.Metrics.Revenue)},
		{"Net income", money(d.Metrics.NetIncome)},
		{"Inventory value", money(d.Metrics.InventoryValue)},
		{"Debt", money(d.Metrics.Debt)},
		{"Listings now", d.Growth.TotalListingNow},
		{"Sales now", d.Growth.TotalSaleNow},
		{"Listing growth today", signed(d.Growth.Listing)},
		{"Sale growth today", signed(d.Growth.Sale)},
	})
	summary.SetColumnConfigs([]table.ColumnConfig{{Number: 2, Align: text.AlignRight}})
	summary.Render()

	if len(d.DailyRevenue) > 0 {
		revenue := newTable(cmd)
		revenue.SetTitle("Daily revenue")
		revenue.AppendHeader(table.Row{"Date", "Revenue"})
		for _, r := range d.DailyRevenue {
			revenue.AppendRow(table.Row{oms.FormatDisplayDate(r.Date), money(r.Amount)})
		}
		revenue.SetColumnConfigs([]table.ColumnConfig{{Number: 2, Align: text.AlignRight}})
		revenue.Render()
	}
	return nil
}

func signed(v int64) string {
	if v > 0 {
		return fmt.Sprintf("+%d", v)
	}
	return fmt.Sprintf("%d", v)
}

type dashboardOutput struct {
	Stores       int                  `json:"stores"`
	Metrics      oms.DashboardMetrics `json:"metrics"`
	Growth       oms.Growth           `json:"growth"`
	DailyRevenue []oms.DailyRevenue   `json:"dailyRevenue"`
}

func dashboardJSON(d services.Dashboard) dashboardOutput {
	return dashboardOutput{
		Stores:       len(d.Stores),
		Metrics:      d.Metrics,
		Growth:       d.Growth,
		DailyRevenue: d.DailyRevenue,
	}
}
