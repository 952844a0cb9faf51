package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/taskflow/taskflow/internal/auth"
	"github.com/taskflow/taskflow/internal/repository"
	"github.com/taskflow/taskflow/internal/service"
)

// ctl holds what the commands need from the outside world. Tests swap
// openStore for an in-memory store.
type ctl struct {
	databaseURL string
	output      string
	timezone    string
	verbose     bool

	openStore func(ctx context.Context, databaseURL string) (repository.Store, func(), error)
	hasher    *auth.Hasher
}

func defaultCtl() *ctl {
	return &ctl{
		openStore: func(ctx context.Context, databaseURL string) (repository.Store, func(), error) {
			repo, err := repository.New(ctx, databaseURL)
			if err != nil {
				return nil, nil, err
			}
			return repo, repo.Close, nil
		},
		hasher: auth.NewHasher(auth.DefaultParams),
	}
}

func execute() int {
	rootCmd := newRootCmd(defaultCtl())
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func newRootCmd(rt *ctl) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "taskflowctl",
		Short:         "TaskFlow administration tool",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if !cmd.Flags().Changed("database-url") {
				if v := os.Getenv("DATABASE_URL"); v != "" {
					rt.databaseURL = v
				}
			}
			if !cmd.Flags().Changed("timezone") {
				if v := os.Getenv("TIMEZONE"); v != "" {
					rt.timezone = v
				}
			}
			if rt.output != "table" && rt.output != "json" {
				return fmt.Errorf("unsupported output format %q: use 'table' or 'json'", rt.output)
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&rt.databaseURL, "database-url", "", "PostgreSQL connection string (default $DATABASE_URL)")
	rootCmd.PersistentFlags().StringVarP(&rt.output, "output", "o", "table", "Output format (table, json)")
	rootCmd.PersistentFlags().StringVar(&rt.timezone, "timezone", "UTC", "Timezone deciding the current day (default $TIMEZONE)")
	rootCmd.PersistentFlags().BoolVarP(&rt.verbose, "verbose", "v", false, "Log progress to stderr")

	rootCmd.AddCommand(newMigrateCmd(rt))
	rootCmd.AddCommand(newUserCmd(rt))
	rootCmd.AddCommand(newStatsCmd(rt))
	rootCmd.AddCommand(newBudgetsCmd(rt))

	return rootCmd
}

func (rt *ctl) logger(cmd *cobra.Command) *slog.Logger {
	if !rt.verbose {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func (rt *ctl) requireDatabaseURL() error {
	if rt.databaseURL == "" {
		return fmt.Errorf("--database-url or DATABASE_URL is required")
	}
	return nil
}

// withStore opens the store, builds the service dependencies and runs fn.
func (rt *ctl) withStore(cmd *cobra.Command, fn func(ctx context.Context, deps service.Deps) error) error {
	if err := rt.requireDatabaseURL(); err != nil {
		return err
	}

	loc, err := time.LoadLocation(rt.timezone)
	if err != nil {
		return fmt.Errorf("invalid timezone %q: %w", rt.timezone, err)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	store, closeStore, err := rt.openStore(ctx, rt.databaseURL)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer closeStore()

	return fn(ctx, service.Deps{
		Store:    store,
		Logger:   rt.logger(cmd),
		Location: loc,
	})
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
