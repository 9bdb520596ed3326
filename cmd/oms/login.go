package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/omsdash/omsctl/internal/config"
)

func newLoginCmd() *cobra.Command {
	var (
		username string
		password string
		noSave   bool
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and remember the user in the config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if username == "" {
				username = cfg.Username
			}
			if username == "" {
				return fmt.Errorf("--username is required")
			}
			if password == "" {
				pw, err := readPassword(cmd, "Password: ")
				if err != nil {
					return err
				}
				password = pw
			}

			app, closeApp, err := openApp(false)
			if err != nil {
				return err
			}
			defer closeApp()

			user, err := app.Auth.Login(cmd.Context(), username, password)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s (%s)\n", user.Username, user.Role)
			if noSave {
				return nil
			}

			cfg.Username = user.Username
			cfg.Role = user.Role
			if err := config.WriteDefault(configPath, cfg, true); err != nil {
				return err
			}
			logger.Info("saved login", "username", user.Username, "config", configPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "Account name")
	cmd.Flags().StringVar(&password, "password", "", "Password (prompted when omitted)")
	cmd.Flags().BoolVar(&noSave, "no-save", false, "Do not write the user to the config file")
	return cmd
}
