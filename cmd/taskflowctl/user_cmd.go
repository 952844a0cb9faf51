package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/taskflow/taskflow/internal/service"
)

func newUserCmd(rt *ctl) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage accounts",
	}
	cmd.AddCommand(newUserCreateCmd(rt))
	return cmd
}

func newUserCreateCmd(rt *ctl) *cobra.Command {
	var name, email, password string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an account",
		Long:  "Create an account with the same validation rules as the signup endpoint.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			body, err := json.Marshal(map[string]string{
				"name":             name,
				"email":            email,
				"password":         password,
				"confirm_password": password,
			})
			if err != nil {
				return err
			}

			return rt.withStore(cmd, func(ctx context.Context, deps service.Deps) error {
				svc := service.NewAuthService(deps, rt.hasher, nil, service.AuthConfig{})
				user, err := svc.Register(ctx, body)
				if err != nil {
					return err
				}

				if rt.output == "json" {
					return printJSON(cmd.OutOrStdout(), user)
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "created user %s <%s> id=%s\n", user.Name, user.Email, user.ID)
				return err
			})
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Display name")
	cmd.Flags().StringVar(&email, "email", "", "Login email")
	cmd.Flags().StringVar(&password, "password", "", "Initial password")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}
