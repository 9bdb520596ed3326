package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/omsdash/omsctl/internal/config"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the config file",
	}

	var (
		endpoint string
		force    bool
	)
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config file with the default settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := config.Default()
			out.Endpoint = endpoint
			if err := config.WriteDefault(configPath, out, force); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", configPath)
			return nil
		},
	}
	initCmd.Flags().StringVar(&endpoint, "endpoint", "", "Backend endpoint URL")
	initCmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the resolved configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, err := yaml.Marshal(cfg)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "# %s\n%s", configPath, out)
			return nil
		},
	}

	path := &cobra.Command{
		Use:   "path",
		Short: "Print the locations of local state",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "config: %s\n", configPath)
			fmt.Fprintf(w, "cache:  %s\n", config.GetDBPath())
			fmt.Fprintf(w, "log:    %s\n", config.GetLogPath())
			fmt.Fprintf(w, "locks:  %s\n", config.GetLockDir())
		},
	}

	cmd.AddCommand(initCmd, show, path)
	return cmd
}
