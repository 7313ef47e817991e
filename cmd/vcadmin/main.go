// Package main is the operator CLI: schema migrations and ledger consistency checks.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/volunteer-connect/backend/config"
	"github.com/volunteer-connect/backend/internal/signups"
	"github.com/volunteer-connect/backend/pkg/database"
)

// App holds the command dependencies.
type App struct {
	cfg    *config.Config
	pool   *pgxpool.Pool
	logger *zap.Logger
	ctx    context.Context
}

var (
	verbose bool
	app     *App
)

// errDrift signals that check-counts found inconsistent events.
var errDrift = errors.New("volunteer counters out of sync")

func main() {
	rootCmd := &cobra.Command{
		Use:           "vcadmin",
		Short:         "Volunteer Connect operator tools",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initApp()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if app != nil {
				app.pool.Close()
				_ = app.logger.Sync()
			}
		},
	}
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(checkCountsCmd())

	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errDrift) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}

func initApp() error {
	logger, err := newLogger(verbose)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), logger)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	app = &App{cfg: cfg, pool: pool, logger: logger, ctx: ctx}
	return nil
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := database.Migrate(app.ctx, app.pool, app.logger); err != nil {
				return fmt.Errorf("failed to migrate: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Migrations applied")
			return nil
		},
	}
}

func checkCountsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check-counts",
		Short: "Report events whose volunteer counter disagrees with their signups",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			drift, err := signups.NewRepository(app.pool).CountDrift(app.ctx)
			if err != nil {
				return err
			}
			return reportDrift(cmd, drift)
		},
	}
}

func reportDrift(cmd *cobra.Command, drift []signups.CountDrift) error {
	out := cmd.OutOrStdout()
	if len(drift) == 0 {
		fmt.Fprintln(out, "All event counters are consistent")
		return nil
	}
	fmt.Fprintf(out, "Found %d inconsistent events:\n\n", len(drift))
	for _, d := range drift {
		fmt.Fprintf(out, "- #%d %s\n", d.EventID, d.Title)
		for _, p := range d.Problems() {
			fmt.Fprintf(out, "    %s\n", p)
		}
	}
	return errDrift
}

func newLogger(debug bool) (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	if !debug {
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	return cfg.Build()
}
