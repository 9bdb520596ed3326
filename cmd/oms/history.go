package main

import (
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/omsdash/omsctl/internal/database"
	"github.com/omsdash/omsctl/internal/mutation"
	"github.com/omsdash/omsctl/internal/services"
)

func newHistoryCmd() *cobra.Command {
	var (
		limit     int
		record    string
		abandoned bool
		prune     time.Duration
		clearAll  bool
		format    string
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show the local journal of dispatched writes",
		Long: `Show the local journal of dispatched writes.

Entries still marked pending belong to a process that exited before its
write resolved; list them with --abandoned.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}
			dbCtx, closeDB, err := openCache()
			if err != nil {
				return err
			}
			defer closeDB()

			ctx := cmd.Context()
			journal := services.NewMutationJournal(dbCtx)

			if clearAll {
				if err := database.ClearDatabase(dbCtx); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Cleared the local cache")
				return nil
			}

			if prune > 0 {
				n, err := journal.Prune(ctx, timeNow().Add(-prune))
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Pruned %d entries\n", n)
				return nil
			}

			var entries []mutation.Entry
			switch {
			case abandoned:
				entries, err = journal.Abandoned(ctx)
			case record != "":
				entries, err = journal.ForRecord(ctx, record)
			default:
				entries, err = journal.Recent(ctx, limit)
			}
			if err != nil {
				return err
			}

			if format == "json" {
				return outputJSON(cmd, entries)
			}
			t := newTable(cmd)
			t.AppendHeader(table.Row{"Started", "Kind", "Record", "Scope", "Status", "Error"})
			for _, e := range entries {
				t.AppendRow(table.Row{
					e.StartedAt.Local().Format("2006-01-02 15:04:05"),
					e.Kind,
					e.RecordID,
					e.Scope,
					e.Status,
					wrapString(e.Error, 40),
				})
			}
			t.Render()
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Number of entries")
	cmd.Flags().StringVar(&record, "record", "", "Only entries of this order or store id")
	cmd.Flags().BoolVar(&abandoned, "abandoned", false, "Only entries that never resolved")
	cmd.Flags().BoolVar(&clearAll, "clear", false, "Delete every journal entry and cached snapshot")
	cmd.Flags().DurationVar(&prune, "prune", 0, "Delete entries older than this age, for example 720h")
	cmd.Flags().StringVar(&format, "format", "table", "Output format: table or json")
	return cmd
}
