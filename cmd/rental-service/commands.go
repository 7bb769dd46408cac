package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/andreasstove999/ecommerce-system/services/rental-service-go/internal/catalog"
	"github.com/andreasstove999/ecommerce-system/services/rental-service-go/internal/db"
)

func (a *app) migrate() error {
	if err := db.RunMigrations(a.cfg.DatabaseDSN, a.logger); err != nil {
		a.logger.Error("db migrate", zap.Error(err))
		return err
	}
	return nil
}

func (a *app) clearEquipment(cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	pool, err := db.NewPool(ctx, a.cfg.DatabaseDSN)
	if err != nil {
		return fmt.Errorf("db connect: %w", err)
	}
	defer pool.Close()

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Clearing existing equipment...")
	remaining, err := catalog.NewPostgresRepository(pool, nil).DeleteAll(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, "Cleared existing equipment")
	fmt.Fprintf(out, "Current count: %d\n", remaining)
	return nil
}
