package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/AminArria/sponsorly/internal/di"
	"github.com/AminArria/sponsorly/pkg/config"
	"github.com/AminArria/sponsorly/pkg/logger"
	"github.com/AminArria/sponsorly/pkg/telemetry"
)

func newServeCommand(a *app) *cobra.Command {
	var migrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.serve(cmd.Context(), migrate)
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", false, "Apply pending migrations before serving (always on for sqlite)")

	return cmd
}

func (a *app) serve(ctx context.Context, migrate bool) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := a.cfg
	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	if _, err := telemetry.Init(ctx, &telemetry.Config{
		Enabled:        cfg.OTel.Enabled,
		ServiceName:    cfg.OTel.ServiceName,
		ServiceVersion: cfg.App.Version,
		Environment:    cfg.App.Environment,
		CollectorAddr:  cfg.OTel.CollectorAddr,
		SampleRatio:    cfg.OTel.SampleRatio,
	}); err != nil {
		return err
	}

	infra, err := di.NewInfrastructure(ctx, cfg)
	if err != nil {
		return err
	}

	if migrate || cfg.Database.Driver == config.DriverSQLite {
		applied, err := infra.Migrate(ctx)
		if err != nil {
			infra.Close(ctx)
			return err
		}
		logger.Info("Migrations applied", zap.Int("count", applied))
	}

	container, err := di.NewContainer(ctx, &di.ContainerConfig{Config: cfg, Infra: infra})
	if err != nil {
		infra.Close(ctx)
		return err
	}

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      container.Router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down HTTP server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	err = g.Wait()

	closeCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	container.Close(closeCtx)
	if terr := telemetry.Shutdown(closeCtx); terr != nil {
		logger.Warn("telemetry shutdown failed", zap.Error(terr))
	}
	_ = logger.Sync()

	return err
}
