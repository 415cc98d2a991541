package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spec-kit/smart-resolve/internal/classifier"
	"github.com/spec-kit/smart-resolve/internal/observability"
	"github.com/spec-kit/smart-resolve/internal/persistence"
)

var listMigrationsFlag bool

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the embedded database migrations",
	RunE:  runMigrate,
}

var classifierHealthCmd = &cobra.Command{
	Use:   "classifier-health",
	Short: "Probe the classification service",
	RunE:  runClassifierHealth,
}

func init() {
	migrateCmd.Flags().BoolVar(&listMigrationsFlag, "list", false, "List embedded migrations without applying them")
}

func runMigrate(cmd *cobra.Command, args []string) error {
	if listMigrationsFlag {
		names, err := persistence.MigrationNames()
		if err != nil {
			return err
		}
		for _, name := range names {
			fmt.Fprintln(cmd.OutOrStdout(), name)
		}
		return nil
	}

	cfg, logger, err := bootstrap()
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	pg, err := persistence.NewPostgres(cmd.Context(), cfg.Postgres, logger)
	if err != nil {
		return err
	}
	defer pg.Close()

	if err := persistence.RunMigrations(cmd.Context(), pg.PoolHandle(), logger); err != nil {
		logger.Error("migrations failed", zap.Error(err))
		return err
	}
	return nil
}

func runClassifierHealth(cmd *cobra.Command, args []string) error {
	cfg, logger, err := bootstrap()
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Classifier.Timeout()+time.Second)
	defer cancel()

	client := classifier.NewHTTPClient(cfg.Classifier, logger, observability.NewMetrics())
	if !client.CheckHealth(ctx) {
		return fmt.Errorf("classification service at %s is unavailable", cfg.Classifier.BaseURL)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "ok")
	return nil
}
