package main

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/andreasstove999/ecommerce-system/services/rental-service-go/internal/config"
	"github.com/andreasstove999/ecommerce-system/services/rental-service-go/internal/logging"
)

type app struct {
	cfg    config.Config
	logger *zap.Logger
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:          "rental-service",
		Short:        "Equipment rental catalog, inventory, quoting and fulfillment service",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			a.cfg = config.Load()
			logger, err := logging.New(a.cfg.AppEnv, a.cfg.LogLevel)
			if err != nil {
				return err
			}
			a.logger = logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.serve(cmd.Context())
		},
	}

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the HTTP API (default)",
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.serve(cmd.Context())
			},
		},
		&cobra.Command{
			Use:   "migrate",
			Short: "Apply database migrations and exit",
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.migrate()
			},
		},
		&cobra.Command{
			Use:   "clear-equipment",
			Short: "Delete every equipment catalog row",
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.clearEquipment(cmd)
			},
		},
	)
	return root
}
