// Package main is the entrypoint for the testopsbot process.
package main

import (
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

const defaultMigrationsDir = "migrations"

type rootOptions struct {
	migrationsDir string
}

func main() {
	slog.SetDefault(newLogger(os.Stdout, slog.LevelInfo))

	if err := newRootCmd().Execute(); err != nil {
		slog.Error("testopsbot failed", "error", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "testopsbot",
		Short: "Telegram bot that launches and watches TestOps runs",
		Long: `testopsbot lets allow-listed chat users pick a project and job,
fill in its parameters, name the run and launch it. Started runs are
watched until they close and a pass/fail summary is posted back.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), opts)
		},
	}

	root.PersistentFlags().StringVar(&opts.migrationsDir, "migrations", defaultMigrationsDir,
		"directory holding the SQL migrations")

	root.AddCommand(newServeCmd(opts))
	root.AddCommand(newMigrateCmd(opts))

	return root
}

func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}
