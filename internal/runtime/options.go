package runtime

import (
	"fmt"
	"log/slog"

	"github.com/strataweb/strata/internal/config"
	"github.com/strataweb/strata/internal/pipeline"
	"github.com/strataweb/strata/internal/ports"
	"github.com/strataweb/strata/internal/storage/sqldb"
)

// Option is a functional option for assembling an App.
type Option func(*App) error

// WithConfig uses an already-loaded configuration.
func WithConfig(cfg *config.Config) Option {
	return func(a *App) error {
		a.cfg = cfg
		return nil
	}
}

// WithConfigFile loads configuration from a YAML file plus the environment.
func WithConfigFile(path string) Option {
	return func(a *App) error {
		cfg, err := config.Load(path)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		a.cfg = cfg
		return nil
	}
}

// WithLogger sets the structured logger used throughout the app.
func WithLogger(logger *slog.Logger) Option {
	return func(a *App) error {
		a.logger = logger
		return nil
	}
}

// WithSQLite opens a SQLite-backed traversal store at path.
func WithSQLite(path string) Option {
	return func(a *App) error {
		store, err := sqldb.Open(path)
		if err != nil {
			return fmt.Errorf("open sqlite store: %w", err)
		}
		a.store = store
		a.ownedStore = true
		return nil
	}
}

// WithStore uses an externally owned traversal store. The app will not
// close it on shutdown.
func WithStore(store ports.TraversalStore) Option {
	return func(a *App) error {
		a.store = store
		return nil
	}
}

// WithNegotiator replaces the default content negotiator.
func WithNegotiator(n ports.Negotiator) Option {
	return func(a *App) error {
		a.negotiator = n
		return nil
	}
}

// WithStage registers a pipeline stage at the given order.
func WithStage(stage ports.Stage, order int) Option {
	return func(a *App) error {
		a.registry.RegisterStage(stage, order)
		return nil
	}
}

// WithInterceptor registers an interceptor at the given order.
func WithInterceptor(i ports.Interceptor, order int) Option {
	return func(a *App) error {
		a.registry.RegisterInterceptor(i, order)
		return nil
	}
}

// WithRoute registers a handler for method and pattern. Ambiguous patterns
// fail here, at assembly time.
func WithRoute(method, pattern string, handler ports.Handler) Option {
	return func(a *App) error {
		return a.resolver.Register(method, pattern, handler)
	}
}

// WithWebhookStage registers an external webhook stage from configuration.
func WithWebhookStage(cfg config.WebhookConfig) Option {
	return func(a *App) error {
		onError := ports.HookAction(cfg.OnError)
		a.registry.RegisterStage(pipeline.NewWebhookStage(pipeline.WebhookStageConfig{
			Name:    cfg.Name,
			URL:     cfg.URL,
			Timeout: cfg.Timeout,
			OnError: onError,
			Retries: cfg.Retries,
			Headers: cfg.Headers,
		}), cfg.Order)
		return nil
	}
}

// Store exposes the configured traversal store, if any.
func (a *App) Store() ports.TraversalStore {
	return a.store
}
