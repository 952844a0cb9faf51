package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/taskflow/taskflow/internal/model"
	"github.com/taskflow/taskflow/internal/repository"
	"github.com/taskflow/taskflow/internal/schema"
	"github.com/taskflow/taskflow/internal/service"
)

// userStats is the combined analytics of one account.
type userStats struct {
	User         *model.User                   `json:"user"`
	Tasks        *service.TaskAnalytics        `json:"tasks"`
	Habits       *service.HabitAnalytics       `json:"habits"`
	Transactions *service.TransactionAnalytics `json:"transactions"`
}

func lookupUser(ctx context.Context, store repository.Store, email string) (*model.User, error) {
	user, err := store.Users().GetByEmail(ctx, schema.NormalizeEmail(email))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("no user with email %q", email)
	}
	return user, err
}

func newStatsCmd(rt *ctl) *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show task, habit and transaction analytics of a user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return rt.withStore(cmd, func(ctx context.Context, deps service.Deps) error {
				user, err := lookupUser(ctx, deps.Store, email)
				if err != nil {
					return err
				}

				out := userStats{User: user}
				if out.Tasks, err = service.NewTaskService(deps).Analytics(ctx, user.ID); err != nil {
					return err
				}
				if out.Habits, err = service.NewHabitService(deps).Analytics(ctx, user.ID); err != nil {
					return err
				}
				if out.Transactions, err = service.NewTransactionService(deps).Analytics(ctx, user.ID); err != nil {
					return err
				}

				if rt.output == "json" {
					return printJSON(cmd.OutOrStdout(), out)
				}
				return printStats(cmd.OutOrStdout(), out)
			})
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email of the account")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

func printStats(w io.Writer, s userStats) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	fmt.Fprintf(tw, "USER\t%s <%s>\n", s.User.Name, s.User.Email)
	fmt.Fprintf(tw, "TASKS\t%d total\t%d completed\t%d unfinished\n", s.Tasks.Total, s.Tasks.Completed, s.Tasks.Unfinished)
	printCounts(tw, "  priority", s.Tasks.Priorities)
	printCounts(tw, "  category", s.Tasks.Categories)
	fmt.Fprintf(tw, "HABITS\t%d total\t%d active\t%d inactive\n", s.Habits.Total, s.Habits.Active, s.Habits.Inactive)
	printCounts(tw, "  frequency", s.Habits.Frequencies)
	fmt.Fprintf(tw, "TRANSACTIONS\t%d total\t%d income\t%d expense\n", s.Transactions.Total, s.Transactions.Income, s.Transactions.Expense)
	fmt.Fprintf(tw, "  amounts\tincome %s\texpense %s\n",
		s.Transactions.Totals[string(model.TransactionIncome)],
		s.Transactions.Totals[string(model.TransactionExpense)])

	return tw.Flush()
}

func printCounts(w io.Writer, label string, counts map[string]int) {
	keys := make([]string, 0, len(counts))
	for k, n := range counts {
		if n > 0 {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return
	}
	sort.Strings(keys)

	fmt.Fprintf(w, "%s", label)
	for _, k := range keys {
		fmt.Fprintf(w, "\t%s=%d", k, counts[k])
	}
	fmt.Fprintln(w)
}
