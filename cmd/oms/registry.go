package main

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func newRolesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "roles",
		Short: "Manage the role taxonomy",
	}

	var format string
	list := &cobra.Command{
		Use:   "list",
		Short: "List roles by rank",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}
			app, closeApp, err := openApp(false)
			if err != nil {
				return err
			}
			defer closeApp()

			roles, err := app.Roles.GetRoles(cmd.Context())
			if err != nil {
				return err
			}
			sort.SliceStable(roles, func(i, j int) bool { return roles[i].Level < roles[j].Level })

			if format == "json" {
				return outputJSON(cmd, roles)
			}
			t := newTable(cmd)
			t.AppendHeader(table.Row{"Role", "Level"})
			for _, r := range roles {
				t.AppendRow(table.Row{r.Name, r.Level})
			}
			t.Render()
			return nil
		},
	}
	list.Flags().StringVar(&format, "format", "table", "Output format: table or json")

	add := &cobra.Command{
		Use:   "add <name> <level>",
		Short: "Add a role. Lower levels rank higher",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			level, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid level %q: %w", args[1], err)
			}
			app, closeApp, err := openApp(false)
			if err != nil {
				return err
			}
			defer closeApp()

			if err := app.Roles.AddRole(cmd.Context(), args[0], level); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added role %s at level %d\n", args[0], level)
			return nil
		},
	}

	cmd.AddCommand(list, add)
	return cmd
}

func newUnitsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "units",
		Short: "Manage fulfilment units",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List units",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, closeApp, err := openApp(false)
			if err != nil {
				return err
			}
			defer closeApp()

			units, err := app.Units.GetUnits(cmd.Context())
			if err != nil {
				return err
			}
			for _, u := range units {
				fmt.Fprintln(cmd.OutOrStdout(), u)
			}
			return nil
		},
	}

	add := &cobra.Command{
		Use:   "add <unit>",
		Short: "Add a unit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, closeApp, err := openApp(false)
			if err != nil {
				return err
			}
			defer closeApp()

			if err := app.Units.AddUnit(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added unit %s\n", args[0])
			return nil
		},
	}

	cmd.AddCommand(list, add)
	return cmd
}
