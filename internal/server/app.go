// Package server initializes and runs the healthsync sync server.
// It selects the storage backend, serves the gRPC sync contract and the
// Prometheus /metrics endpoint, and shuts both down on SIGINT/SIGTERM.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dmitrijs2005/healthsync/internal/logging"
	"github.com/dmitrijs2005/healthsync/internal/server/config"
	"github.com/dmitrijs2005/healthsync/internal/server/envelopes"
	"github.com/dmitrijs2005/healthsync/internal/server/shared/db"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	gs "github.com/dmitrijs2005/healthsync/internal/server/grpc"
)

type App struct {
	config          *config.Config
	logger          logging.Logger
	repos           db.RepositoryManager
	envelopeService *envelopes.Service
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {

	logger := logging.NewJSON(os.Stdout, slog.LevelInfo)

	repos, err := db.New(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	es := envelopes.NewService(repos.Envelopes(), logger)

	return &App{config: c, logger: logger, repos: repos, envelopeService: es}, nil
}

func (app *App) initSignalHandler(ctx context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
}

func (app *App) startGRPCServer(ctx context.Context) error {

	s, err := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.envelopeService)
	if err != nil {
		return err
	}

	return s.Run(ctx)
}

func (app *App) startMetricsServer(ctx context.Context) error {

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              app.config.MetricsAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), app.config.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			app.logger.Warn(ctx, "metrics server shutdown", "error", err)
		}
	}()

	app.logger.Info(ctx, "Starting metrics server", "address", app.config.MetricsAddr)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Run serves until a termination signal arrives or one of the servers
// fails, then stops the other one and closes storage.
func (app *App) Run(ctx context.Context) error {

	ctx, stop := app.initSignalHandler(ctx)
	defer stop()

	app.logger.Info(ctx, "Starting app...", "storage", app.config.StorageKind)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return app.startGRPCServer(gctx)
	})

	if app.config.MetricsAddr != "" {
		g.Go(func() error {
			return app.startMetricsServer(gctx)
		})
	}

	err := g.Wait()

	if cerr := app.repos.Close(); cerr != nil {
		app.logger.Error(ctx, "storage close", "error", cerr)
	}

	if err != nil {
		app.logger.Error(ctx, "server stopped", "error", err)
		return err
	}

	app.logger.Info(ctx, "server stopped")
	return nil
}
