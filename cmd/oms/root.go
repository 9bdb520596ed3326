package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/omsdash/omsctl/internal/config"
	"github.com/omsdash/omsctl/internal/database"
	"github.com/omsdash/omsctl/internal/logging"
	"github.com/omsdash/omsctl/internal/usecase"
)

var (
	configPath string
	cfg        config.Config
	logger     *slog.Logger
	logCloser  io.Closer
)

var rootCmd = &cobra.Command{
	Use:           "oms",
	Short:         "omsctl - order management from the terminal",
	Long:          "omsctl reads and edits the orders, stores and users of a spreadsheet-backed order-management backend.",
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: false,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		v, err := config.New(configPath)
		if err != nil {
			return err
		}
		flags := cmd.Flags()
		for key, flag := range map[string]string{
			"endpoint":  "endpoint",
			"log_level": "log-level",
			"username":  "user",
			"role":      "role",
		} {
			if f := flags.Lookup(flag); f != nil {
				_ = v.BindPFlag(key, f)
			}
		}
		return loadConfig(v, cmd.ErrOrStderr())
	},
	PersistentPostRun: func(_ *cobra.Command, _ []string) {
		if logCloser != nil {
			_ = logCloser.Close()
		}
	},
}

func loadConfig(v *viper.Viper, stderr io.Writer) error {
	loaded, err := config.Load(v)
	if err != nil {
		return err
	}
	cfg = loaded

	l, closer, err := logging.Init(cfg.LogLevel, config.GetLogPath(), stderr)
	if err != nil {
		return err
	}
	logger, logCloser = l, closer
	return nil
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", config.GetConfigPath(), "Config file path")
	flags.String("endpoint", "", "Backend endpoint URL (overrides config)")
	flags.String("log-level", "", "Log level: debug, info, warn or error")
	flags.String("user", "", "Username recorded as handler of new orders")
	flags.String("role", "", "Role of the user, used for assignment rules")

	rootCmd.AddCommand(newLoginCmd())
	rootCmd.AddCommand(newOrdersCmd())
	rootCmd.AddCommand(newStoresCmd())
	rootCmd.AddCommand(newDashboardCmd())
	rootCmd.AddCommand(newUsersCmd())
	rootCmd.AddCommand(newRolesCmd())
	rootCmd.AddCommand(newUnitsCmd())
	rootCmd.AddCommand(newHistoryCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newMCPCmd())
}

// openApp wires the services. The returned func releases the cache
// database.
func openApp(withDB bool) (*usecase.App, func(), error) {
	if cfg.Endpoint == "" {
		return nil, nil, fmt.Errorf("no endpoint configured: run 'oms config init --endpoint URL' or set OMS_ENDPOINT")
	}
	if !withDB {
		return usecase.NewApp(cfg, nil, nil, logger), func() {}, nil
	}

	dbCtx, err := database.CreateDatabase("")
	if err != nil {
		return nil, nil, err
	}
	app := usecase.NewApp(cfg, dbCtx, nil, logger)
	return app, func() { _ = database.CloseDatabase(dbCtx) }, nil
}
