package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/AminArria/sponsorly/pkg/config"
	"github.com/AminArria/sponsorly/pkg/logger"
)

// app carries state shared by the subcommands
type app struct {
	configPath string
	cfg        *config.Config
}

func main() {
	if err := newRootCommand().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "sponsorly",
		Short: "Newsletter sponsorship scheduling",
		Long: `sponsorly schedules newsletter issues, computes their sponsor windows and
lets sponsors offer for and confirm the single sponsorship slot of each issue.

Configuration is read from the environment and an optional .env file.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.loadConfig()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "Path to a .env style config file")

	rootCmd.AddCommand(newServeCommand(a))
	rootCmd.AddCommand(newMigrateCommand(a))
	rootCmd.AddCommand(newScheduleCommand())
	rootCmd.AddCommand(newUserCommand(a))
	rootCmd.AddCommand(newTokenCommand(a))

	return rootCmd
}

func (a *app) loadConfig() error {
	var err error
	if a.configPath != "" {
		a.cfg, err = config.LoadWithPath(a.configPath)
	} else {
		a.cfg, err = config.Load()
	}
	if err != nil {
		return err
	}

	level := "info"
	if a.cfg.App.Debug {
		level = "debug"
	}
	return logger.Init(&logger.Config{
		Level:       level,
		ServiceName: a.cfg.App.Name,
		Development: a.cfg.IsDevelopment(),
		OutputPath:  "stderr",
	})
}
