// Package app wires configuration, clients, pipelines and the HTTP surface
// into one process and owns its lifecycle.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/yungbote/notion-ai-webhook/internal/config"
	"github.com/yungbote/notion-ai-webhook/internal/data/repos"
	apphttp "github.com/yungbote/notion-ai-webhook/internal/http"
	"github.com/yungbote/notion-ai-webhook/internal/observability"
	"github.com/yungbote/notion-ai-webhook/internal/platform/logger"
)

type App struct {
	Log      *logger.Logger
	Cfg      config.Config
	Clients  Clients
	DB       *gorm.DB
	Repos    *repos.Repos
	Services Services
	Metrics  *observability.Metrics
	Server   *apphttp.Server

	shutdownOtel func(context.Context) error
	cancel       context.CancelFunc
}

func New(ctx context.Context, log *logger.Logger, cfg config.Config) (*App, error) {
	shutdownOtel := observability.InitOTel(ctx, log, observability.OtelConfig{
		Enabled:     cfg.Otel.Enabled,
		ServiceName: cfg.Otel.ServiceName,
		Environment: cfg.Otel.Environment,
		Version:     cfg.Version,
		Endpoint:    cfg.Otel.Endpoint,
		Headers:     observability.ParseHeaders(cfg.Otel.Headers),
		Insecure:    cfg.Otel.Insecure,
		SampleRatio: cfg.Otel.SampleRatio,
	})
	metrics := observability.Init(cfg.MetricsEnabled)

	clients, err := wireClients(ctx, log, cfg)
	if err != nil {
		stopOtel(ctx, log, shutdownOtel)
		return nil, err
	}

	theDB, reposet, err := wireLedger(log, cfg)
	if err != nil {
		clients.Close()
		stopOtel(ctx, log, shutdownOtel)
		return nil, err
	}
	if err := metrics.RegisterDB(theDB, "run_ledger"); err != nil {
		log.Warn("register ledger db metrics failed", "error", err)
	}

	serviceset, err := wireServices(log, cfg, clients, reposet)
	if err != nil {
		clients.Close()
		closeDB(log, theDB)
		stopOtel(ctx, log, shutdownOtel)
		return nil, err
	}

	handlerset := wireHandlers(log, serviceset, reposet)
	server := wireServer(log, cfg, metrics, handlerset)

	return &App{
		Log:          log,
		Cfg:          cfg,
		Clients:      clients,
		DB:           theDB,
		Repos:        reposet,
		Services:     serviceset,
		Metrics:      metrics,
		Server:       server,
		shutdownOtel: shutdownOtel,
	}, nil
}

// Start launches background collectors.
func (a *App) Start() {
	if a == nil || a.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel
	a.Metrics.StartRedisCollector(ctx, a.Log, a.Clients.Redis, 15*time.Second)
}

// Serve runs the HTTP server until ctx is done, then shuts down gracefully.
func (a *App) Serve(ctx context.Context) error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	a.Start()

	errCh := make(chan error, 1)
	go func() {
		a.Log.Info("HTTP server listening", "port", a.Cfg.Port)
		errCh <- a.Server.Run()
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	return a.Shutdown()
}

// Shutdown stops the server, then waits up to SHUTDOWN_TIMEOUT for
// background runs.
func (a *App) Shutdown() error {
	a.Log.Info("Shutting down...", "timeout", a.Cfg.ShutdownTimeout)
	ctx, cancel := context.WithTimeout(context.Background(), a.Cfg.ShutdownTimeout)
	defer cancel()

	var errs []error
	if err := a.Server.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("http shutdown: %w", err))
	}
	if err := a.Services.Runner.Drain(ctx); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	stopOtel(context.Background(), a.Log, a.shutdownOtel)
	a.Clients.Close()
	closeDB(a.Log, a.DB)
	if a.Log != nil {
		a.Log.Sync()
	}
}

func stopOtel(ctx context.Context, log *logger.Logger, shutdown func(context.Context) error) {
	if shutdown == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := shutdown(ctx); err != nil {
		log.Warn("otel shutdown failed", "error", err)
	}
}

func closeDB(log *logger.Logger, gdb *gorm.DB) {
	if gdb == nil {
		return
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return
	}
	if err := sqlDB.Close(); err != nil {
		log.Warn("close run ledger failed", "error", err)
	}
}
