// Package runtime assembles the pipeline and manages its lifecycle.
package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/strataweb/strata/internal/config"
	"github.com/strataweb/strata/internal/negotiate"
	"github.com/strataweb/strata/internal/pipeline"
	"github.com/strataweb/strata/internal/ports"
	"github.com/strataweb/strata/internal/server"
)

// App is the assembled pipeline application. Its dependency set is built
// once from options and is immutable after Start: stages, interceptors and
// routes cannot be changed while requests are in flight.
type App struct {
	cfg        *config.Config
	logger     *slog.Logger
	store      ports.TraversalStore
	ownedStore bool
	negotiator ports.Negotiator

	registry *pipeline.Registry
	resolver *pipeline.Resolver
	executor *pipeline.Executor
	server   *server.Server

	mu      sync.Mutex
	started bool
	cancel  context.CancelFunc
}

// New builds an App from options. Stage, interceptor and route options are
// applied in order; pipeline ordering is still governed by each element's
// declared order, not by option position.
func New(opts ...Option) (*App, error) {
	app := &App{
		logger:     slog.Default(),
		negotiator: negotiate.New(),
		registry:   pipeline.NewRegistry(),
		resolver:   pipeline.NewResolver(),
	}

	for _, opt := range opts {
		if err := opt(app); err != nil {
			return nil, fmt.Errorf("apply option: %w", err)
		}
	}

	if app.cfg == nil {
		cfg, err := config.Load("")
		if err != nil {
			return nil, fmt.Errorf("load default config: %w", err)
		}
		app.cfg = cfg
	}

	return app, nil
}

// Executor exposes the pipeline executor. It is built lazily so embedders
// can run traversals without the HTTP server (e.g. in tests).
func (a *App) Executor() *pipeline.Executor {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.buildLocked()
	return a.executor
}

func (a *App) buildLocked() {
	if a.executor != nil {
		return
	}
	a.registry.Freeze()
	a.executor = pipeline.NewExecutor(pipeline.ExecutorConfig{
		Registry:   a.registry,
		Resolver:   a.resolver,
		Negotiator: a.negotiator,
		Logger:     a.logger,
	})
}

// Start freezes the pipeline and begins serving HTTP. It returns once the
// listener is up; the server runs until Shutdown.
func (a *App) Start(ctx context.Context) error {
	a.mu.Lock()
	if a.started {
		a.mu.Unlock()
		return fmt.Errorf("app already started")
	}
	a.started = true
	a.buildLocked()
	a.server = server.New(a.cfg.Server.Port, a.cfg.Server.RequestTimeout, a.executor, a.logger)

	ctx, a.cancel = context.WithCancel(ctx)
	a.mu.Unlock()

	go func() {
		if err := a.server.Start(); err != nil {
			a.logger.Error("server stopped", slog.String("error", err.Error()))
		}
	}()

	a.logger.Info("app started",
		slog.Int("port", a.cfg.Server.Port),
		slog.Int("stages", len(a.registry.Stages())),
		slog.Int("interceptors", len(a.registry.Interceptors())))
	return nil
}

// Shutdown drains the server and closes owned resources.
func (a *App) Shutdown(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.logger.Info("shutting down")

	if a.cancel != nil {
		a.cancel()
	}
	if a.server != nil {
		if err := a.server.Shutdown(ctx); err != nil {
			a.logger.Error("server shutdown failed", slog.String("error", err.Error()))
			return err
		}
	}
	if a.store != nil && a.ownedStore {
		if err := a.store.Close(); err != nil {
			a.logger.Error("store close failed", slog.String("error", err.Error()))
		}
	}

	a.logger.Info("shutdown complete")
	return nil
}
