package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/AminArria/sponsorly/internal/di"
	"github.com/AminArria/sponsorly/internal/dto"
	"github.com/AminArria/sponsorly/internal/service"
)

func newUserCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage users",
		Long:  "Accounts are registered elsewhere; this mirrors them into the local users table.",
	}

	var req dto.CreateUserRequest
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			infra, err := di.OpenStore(ctx, a.cfg)
			if err != nil {
				return err
			}
			defer infra.Close(ctx)

			user, err := service.NewUserService(infra.Store).Create(ctx, &req)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", user.ID, user.Slug)
			return nil
		},
	}
	createCmd.Flags().StringVar(&req.Slug, "slug", "", "URL slug of the user (required)")
	createCmd.Flags().StringVar(&req.Email, "email", "", "Email address (required)")
	createCmd.Flags().StringVar(&req.Name, "name", "", "Display name")

	cmd.AddCommand(createCmd)
	return cmd
}
