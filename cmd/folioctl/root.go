package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/josh-kwaku/folio-ledger/internal/config"
	"github.com/josh-kwaku/folio-ledger/internal/domain"
	"github.com/josh-kwaku/folio-ledger/internal/events"
	"github.com/josh-kwaku/folio-ledger/internal/logging"
	"github.com/josh-kwaku/folio-ledger/internal/repository"
	"github.com/josh-kwaku/folio-ledger/internal/service/billing"
)

const version = "1.0.0"

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "folioctl",
		Short: "Operator tooling for the folio ledger",
		Long: `folioctl runs schema migrations, issues staff tokens and performs
maintenance against the folio ledger database.

Configuration is read from the environment (and a .env file when present),
using the same variables as the API server.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newMigrateCmd(),
		newTokenCmd(),
		newInvoiceCmd(),
		newRecalcCmd(),
		newHousekeepCmd(),
	)
	return root
}

// loadConfig reads the environment and initialises the default logger.
func loadConfig() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	return cfg, logging.Init("folioctl", cfg.LogLevel, cfg.AppEnv), nil
}

func openDB(ctx context.Context, cfg *config.Config) (*sql.DB, error) {
	db, err := repository.NewPostgresDB(ctx, cfg.DBDriver, cfg.DatabaseURL, repository.PoolConfig{
		MaxOpenConns:     cfg.DBMaxOpenConns,
		MaxIdleConns:     cfg.DBMaxIdleConns,
		ConnMaxLifetimeS: cfg.DBConnMaxLifetimeS,
		ConnMaxIdleTimeS: cfg.DBConnMaxIdleTimeS,
	})
	if err != nil {
		return nil, fmt.Errorf("openDB: %w", err)
	}
	return db, nil
}

func newService(db *sql.DB, cfg *config.Config, logger *slog.Logger) (*billing.Service, error) {
	loyalty, err := config.LoadLoyalty(cfg.LoyaltyTiersFile)
	if err != nil {
		return nil, err
	}
	return billing.NewPostgresService(db, billing.Options{
		Emitter:         events.NewLogEmitter(logger),
		Tiers:           billing.NewTierTable(loyalty),
		DefaultCurrency: domain.Currency(cfg.DefaultCurrency),
		InvoiceDueDays:  cfg.InvoiceDueDays,
	}), nil
}
