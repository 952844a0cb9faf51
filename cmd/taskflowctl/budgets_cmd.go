package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/taskflow/taskflow/internal/model"
	"github.com/taskflow/taskflow/internal/service"
)

func newBudgetsCmd(rt *ctl) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "budgets",
		Short: "Maintain budgets",
	}
	cmd.AddCommand(newBudgetsRecalculateCmd(rt))
	return cmd
}

func newBudgetsRecalculateCmd(rt *ctl) *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "recalculate",
		Short: "Recompute the spent amount of every budget of a user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return rt.withStore(cmd, func(ctx context.Context, deps service.Deps) error {
				user, err := lookupUser(ctx, deps.Store, email)
				if err != nil {
					return err
				}

				budgets, err := deps.Store.Budgets().All(ctx, user.ID)
				if err != nil {
					return fmt.Errorf("load budgets: %w", err)
				}

				svc := service.NewBudgetService(deps)
				updated := make([]*model.Budget, 0, len(budgets))
				for _, b := range budgets {
					fresh, err := svc.Recalculate(ctx, user.ID, b.ID)
					if err != nil {
						return fmt.Errorf("recalculate budget %s: %w", b.ID, err)
					}
					updated = append(updated, fresh)
				}

				if rt.output == "json" {
					return printJSON(cmd.OutOrStdout(), updated)
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tCATEGORY\tRANGE\tAMOUNT\tSPENT")
				for _, b := range updated {
					fmt.Fprintf(tw, "%s\t%s\t%s..%s\t%s\t%s\n", b.ID, b.Category, b.StartDate, b.EndDate, b.Amount, b.Spent)
				}
				return tw.Flush()
			})
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email of the account")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}
