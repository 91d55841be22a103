package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/AminArria/sponsorly/internal/di"
	"github.com/AminArria/sponsorly/internal/service"
	"github.com/AminArria/sponsorly/pkg/middleware"
)

func newTokenCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Development access tokens",
	}

	var ttl time.Duration
	issueCmd := &cobra.Command{
		Use:   "issue <user-slug>",
		Short: "Sign an access token for an existing user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			infra, err := di.OpenStore(ctx, a.cfg)
			if err != nil {
				return err
			}
			defer infra.Close(ctx)

			user, err := service.NewUserService(infra.Store).GetBySlug(ctx, args[0])
			if err != nil {
				return err
			}

			if ttl <= 0 {
				ttl = a.cfg.JWT.AccessTokenTTL
			}
			token, err := middleware.GenerateToken(a.cfg.JWT.Secret, a.cfg.JWT.Issuer, user.ID, user.Slug, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	issueCmd.Flags().DurationVar(&ttl, "ttl", 0, "Token lifetime (defaults to JWT_ACCESS_TOKEN_TTL)")

	cmd.AddCommand(issueCmd)
	return cmd
}
