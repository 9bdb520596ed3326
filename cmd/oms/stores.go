package main

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/omsdash/omsctl/internal/oms"
	"github.com/omsdash/omsctl/internal/services"
)

func newStoresCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "stores",
		Aliases: []string{"store"},
		Short:   "Manage the store registry",
	}
	cmd.AddCommand(newStoresListCmd())
	cmd.AddCommand(newStoresAddCmd())
	cmd.AddCommand(newStoresDeleteCmd())
	cmd.AddCommand(newStoresHistoryCmd())
	return cmd
}

func newStoresListCmd() *cobra.Command {
	var (
		filter string
		live   bool
		format string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stores",
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
			if err := screen.Load(cmd.Context(), ""); err != nil {
				return err
			}
			screen.SetFilter(filter)

			stores := screen.Visible()
			if live {
				kept := stores[:0]
				for _, s := range stores {
					if s.IsLive() {
						kept = append(kept, s)
					}
				}
				stores = kept
			}

			if format == "json" {
				return outputJSON(cmd, stores)
			}
			outputStoresTable(cmd, stores)
			return nil
		},
	}

	cmd.Flags().StringVar(&filter, "filter", "", "Case-insensitive text matched against id, name and region")
	cmd.Flags().BoolVar(&live, "live", false, "Only live stores")
	cmd.Flags().StringVar(&format, "format", "table", "Output format: table or json")
	return cmd
}

func outputStoresTable(cmd *cobra.Command, stores []oms.Store) {
	t := newTable(cmd)
	t.AppendHeader(table.Row{"ID", "Name", "Region", "Status", "Listing", "Sale", "URL"})
	for _, s := range stores {
		t.AppendRow(table.Row{s.ID, s.Name, s.Region, s.Status, s.Listing, s.Sale, wrapString(s.URL, 40)})
	}
	t.Render()
}

func newStoresAddCmd() *cobra.Command {
	var in services.NewStore

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Register a store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in.Name = args[0]
			app, closeApp, err := openApp(true)
			if err != nil {
				return err
			}
			defer closeApp()

			ctx := cmd.Context()
			screen := app.StoresScreen()
			if err := screen.Load(ctx, ""); err != nil {
				return err
			}
			defer screen.Close()

			task, err := screen.Add(ctx, in)
			if err != nil {
				return err
			}
			if err := waitTask(ctx, task); err != nil {
				return fmt.Errorf("store %s was not saved: %w", in.Name, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added store %s (%s)\n", in.Name, task.RecordID)
			return nil
		},
	}
	cmd.Flags().StringVar(&in.URL, "url", "", "Store URL")
	cmd.Flags().StringVar(&in.Region, "region", "", "Region")
	return cmd
}

func newStoresDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <store-id>",
		Short: "Remove a store from the registry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, closeApp, err := openApp(true)
			if err != nil {
				return err
			}
			defer closeApp()

			ctx := cmd.Context()
			screen := app.StoresScreen()
			if err := screen.Load(ctx, ""); err != nil {
				return err
			}
			if _, ok := screen.Collection().Find(args[0]); !ok {
				return fmt.Errorf("store %s not found", args[0])
			}
			if err := screen.Delete(ctx, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted store %s\n", args[0])
			return nil
		},
	}
	return cmd
}

func newStoresHistoryCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "history <store-id>",
		Short: "Show the daily listing and sale history of a store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}
			app, closeApp, err := openApp(false)
			if err != nil {
				return err
			}
			defer closeApp()

			history, err := app.Stores.GetStoreHistory(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if format == "json" {
				return outputJSON(cmd, history)
			}

			t := newTable(cmd)
			t.AppendHeader(table.Row{"Date", "Listing", "Sale"})
			for _, h := range history {
				t.AppendRow(table.Row{oms.FormatDisplayDate(h.Date), h.Listing, h.Sale})
			}
			t.Render()
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "table", "Output format: table or json")
	return cmd
}
