package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/taskflow/taskflow/internal/migrate"
)

func newMigrateCmd(rt *ctl) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	run := func(fn func(ctx context.Context, db *sql.DB, logger *slog.Logger) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, _ []string) error {
			if err := rt.requireDatabaseURL(); err != nil {
				return err
			}
			db, err := migrate.Open(rt.databaseURL)
			if err != nil {
				return err
			}
			defer db.Close()

			// goose reports progress through the logger; always show it here.
			rt.verbose = true
			return fn(cmd.Context(), db, rt.logger(cmd))
		}
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE:  run(migrate.Up),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back the most recent migration",
		Args:  cobra.NoArgs,
		RunE:  run(migrate.Down),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show applied and pending migrations",
		Args:  cobra.NoArgs,
		RunE:  run(migrate.Status),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the current schema version",
		Args:  cobra.NoArgs,
		RunE: run(func(ctx context.Context, db *sql.DB, _ *slog.Logger) error {
			v, err := migrate.Version(ctx, db)
			if err != nil {
				return err
			}
			if rt.output == "json" {
				return printJSON(cmd.OutOrStdout(), map[string]int64{"version": v})
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), v)
			return err
		}),
	})

	return cmd
}
