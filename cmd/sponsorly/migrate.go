package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/AminArria/sponsorly/internal/di"
)

func newMigrateCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			infra, err := di.OpenStore(ctx, a.cfg)
			if err != nil {
				return err
			}
			defer infra.Close(ctx)

			applied, err := infra.Migrate(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "applied %d migration(s)\n", applied)
			return nil
		},
	}
}
