package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/omsdash/omsctl/internal/oms"
	"github.com/omsdash/omsctl/internal/roles"
	"github.com/omsdash/omsctl/internal/services"
)

func newUsersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "users",
		Aliases: []string{"user"},
		Short:   "Manage dashboard accounts",
	}
	cmd.AddCommand(newUsersListCmd())
	cmd.AddCommand(newUsersAddCmd())
	cmd.AddCommand(newUsersUpdateCmd())
	return cmd
}

func newUsersListCmd() *cobra.Command {
	var (
		assignable bool
		format     string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List users",
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

			users, err := app.Auth.GetUsers(cmd.Context())
			if err != nil {
				return err
			}
			if assignable {
				if cfg.Role == "" {
					return fmt.Errorf("--assignable needs a role: run 'oms login' or pass --role")
				}
				users = roles.Assignable(app.Hierarchy, cfg.Role, users, func(u oms.User) string { return u.Role })
			}

			if format == "json" {
				return outputJSON(cmd, users)
			}
			outputUsersTable(cmd, users)
			return nil
		},
	}

	cmd.Flags().BoolVar(&assignable, "assignable", false, "Only users the current role may assign work to")
	cmd.Flags().StringVar(&format, "format", "table", "Output format: table or json")
	return cmd
}

func outputUsersTable(cmd *cobra.Command, users []oms.User) {
	t := newTable(cmd)
	t.AppendHeader(table.Row{"Username", "Full name", "Role", "Status", "Email", "Phone"})
	for _, u := range users {
		t.AppendRow(table.Row{u.Username, u.FullName, u.Role, u.Status, u.Email, u.Phone})
	}
	t.Render()
}

func newUsersAddCmd() *cobra.Command {
	var in services.NewUser

	cmd := &cobra.Command{
		Use:   "add <username>",
		Short: "Create an account",
		Long:  "Create an account. The password is read from the terminal unless --password is given.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in.Username = args[0]
			if in.Password == "" {
				pw, err := readPassword(cmd, "Password for "+in.Username+": ")
				if err != nil {
					return err
				}
				in.Password = pw
			}

			app, closeApp, err := openApp(false)
			if err != nil {
				return err
			}
			defer closeApp()

			if err := app.Auth.CreateUser(cmd.Context(), in); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created user %s\n", in.Username)
			return nil
		},
	}

	cmd.Flags().StringVar(&in.Password, "password", "", "Password (prompted when omitted)")
	cmd.Flags().StringVar(&in.FullName, "name", "", "Full name")
	cmd.Flags().StringVar(&in.Role, "role-name", "", "Role of the new user")
	cmd.Flags().StringVar(&in.Email, "email", "", "Email address")
	cmd.Flags().StringVar(&in.Phone, "phone", "", "Phone number")
	return cmd
}

func newUsersUpdateCmd() *cobra.Command {
	var role, status string

	cmd := &cobra.Command{
		Use:   "update <username>",
		Short: "Change the role or status of an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if role == "" && status == "" {
				return fmt.Errorf("nothing to update: pass --role-name or --status")
			}
			app, closeApp, err := openApp(false)
			if err != nil {
				return err
			}
			defer closeApp()

			if err := app.Auth.UpdateUser(cmd.Context(), args[0], role, status); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated user %s\n", args[0])
			return nil
		},
	}

	cmd.Flags().StringVar(&role, "role-name", "", "New role")
	cmd.Flags().StringVar(&status, "status", "", "New status, for example Active or Inactive")
	return cmd
}

// readPassword prompts on stderr and reads without echo when stdin is a
// terminal. Otherwise a single line is read from stdin.
func readPassword(cmd *cobra.Command, prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		var line string
		if _, err := fmt.Fscanln(cmd.InOrStdin(), &line); err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return strings.TrimSpace(line), nil
	}

	fmt.Fprint(cmd.ErrOrStderr(), prompt)
	pw, err := term.ReadPassword(fd)
	fmt.Fprintln(cmd.ErrOrStderr())
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(pw), nil
}
