package main

import (
	"fmt"
	"log/slog"

	"github.com/kiranshivaraju/testopsbot/internal/config"
	"github.com/kiranshivaraju/testopsbot/internal/store"
	"github.com/spf13/cobra"
)

func newMigrateCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations and exit",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			db, err := config.LoadDatabase()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if err := store.RunMigrations(db.URL, opts.migrationsDir); err != nil {
				return err
			}
			slog.Info("database migrations applied", "dir", opts.migrationsDir)
			return nil
		},
	}

	cmd.AddCommand(newMigrateDownCmd(opts))
	return cmd
}

func newMigrateDownCmd(opts *rootOptions) *cobra.Command {
	var steps int

	cmd := &cobra.Command{
		Use:   "down",
		Short: "Revert the most recent migrations",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			if steps <= 0 {
				return fmt.Errorf("--steps must be positive, got %d", steps)
			}
			db, err := config.LoadDatabase()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if err := store.RollbackMigrations(db.URL, opts.migrationsDir, steps); err != nil {
				return err
			}
			slog.Info("database migrations reverted", "steps", steps)
			return nil
		},
	}

	cmd.Flags().IntVar(&steps, "steps", 1, "number of migrations to revert")
	return cmd
}
