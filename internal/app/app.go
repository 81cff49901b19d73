// Package app assembles and runs the fieldsync service: local storage,
// sync engine, connectivity monitor and the HTTP surface for UI
// collaborators.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/inqbatorchris/fieldsync/internal/config"
	"github.com/inqbatorchris/fieldsync/internal/connectivity"
	"github.com/inqbatorchris/fieldsync/internal/httpapi"
	"github.com/inqbatorchris/fieldsync/internal/logging"
	"github.com/inqbatorchris/fieldsync/internal/remote"
	"github.com/inqbatorchris/fieldsync/internal/repositories"
	"github.com/inqbatorchris/fieldsync/internal/services"
	"github.com/inqbatorchris/fieldsync/internal/syncer"
)

const shutdownTimeout = 5 * time.Second

// App owns the wired-together service components.
type App struct {
	config  *config.Config
	logger  logging.Logger
	zl      *zap.Logger
	repos   *repositories.Repositories
	remote  *remote.HTTPClient
	engine  *syncer.Engine
	service *services.CaptureService
}

// NewApp builds the application from configuration: logger, database with
// migrations, remote client, sync engine and capture service.
func NewApp(c *config.Config) (*App, error) {
	zl, err := zap.NewProduction()
	if err != nil {
		return nil, fmt.Errorf("logger init error: %w", err)
	}
	logger := logging.NewZapLogger(zl)

	repos, err := repositories.InitDatabase(context.Background(), c.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rc := remote.NewHTTPClient(c.RemoteBaseURL, c.RequestTimeout)

	engine := syncer.New(syncer.Config{
		MaxAttempts:          c.MaxSyncAttempts,
		RetryBase:            c.RetryBase,
		RetainCompleted:      c.RetainCompleted,
		RebindPhotosToServer: c.RebindPhotosToServer,
	}, repos.DB, repos.Entities, repos.Photos, repos.Queue, rc, logger)

	svc := services.NewCaptureService(repos, logger)

	return &App{
		config:  c,
		logger:  logger,
		zl:      zl,
		repos:   repos,
		remote:  rc,
		engine:  engine,
		service: svc,
	}, nil
}

// Run starts the monitor and HTTP server and blocks until a termination
// signal arrives, then shuts down gracefully.
func (app *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app.logger.Info(ctx, "starting fieldsync",
		"db", app.config.DatabasePath, "listen", app.config.ListenAddr)

	// entries stranded in_flight by a crash go back in line first
	if err := app.engine.Recover(ctx); err != nil {
		return err
	}

	monitor := connectivity.NewMonitor(app.remote,
		app.config.OnlineCheckInterval, app.config.DebounceWindow,
		func() { app.engine.TriggerSync(ctx) }, app.logger)
	go monitor.Run(ctx)

	router := httpapi.NewRouter(ctx, app.service, app.engine, monitor, app.logger)
	srv := &http.Server{Addr: app.config.ListenAddr, Handler: router}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		app.logger.Error(ctx, "http server failed", "error", err)
		return err
	case <-ctx.Done():
	}

	app.logger.Info(ctx, "shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		app.logger.Error(ctx, "http shutdown failed", "error", err)
	}

	if err := app.repos.DB.Close(); err != nil {
		app.logger.Error(ctx, "db close failed", "error", err)
	}
	_ = app.zl.Sync()
	return nil
}
