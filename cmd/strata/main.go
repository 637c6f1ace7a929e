package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/strataweb/strata/internal/config"
	"github.com/strataweb/strata/internal/domain"
	"github.com/strataweb/strata/internal/interceptors"
	"github.com/strataweb/strata/internal/ports"
	"github.com/strataweb/strata/internal/stages"
	"github.com/strataweb/strata/internal/storage/sqldb"
	"github.com/strataweb/strata/internal/telemetry"
	"github.com/strataweb/strata/pkg/strata"
)

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	configPath := os.Getenv("STRATA_CONFIG")
	if configPath == "" {
		configPath = "config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logLevel := new(slog.LevelVar)
	logLevel.Set(parseLevel(cfg.Log.Level))
	logger := newLogger(cfg.Log.Format, logLevel)
	slog.SetDefault(logger)

	shutdownTracer, err := telemetry.Init("strata", logger)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			logger.Error("failed to shutdown tracer", slog.String("error", err.Error()))
		}
	}()

	store, err := sqldb.Open(cfg.Storage.Path)
	if err != nil {
		log.Fatalf("Failed to open traversal store: %v", err)
	}
	defer store.Close()

	opts := []strata.Option{
		strata.WithConfig(cfg),
		strata.WithLogger(logger),
		strata.WithStore(store),

		// Request id first, access log right behind it, auth before
		// anything application-visible.
		strata.WithStage(stages.NewRequestID(), 10),
		strata.WithStage(stages.NewAccessLog(logger), 20),
		strata.WithInterceptor(interceptors.NewTracing(), 10),
		strata.WithInterceptor(interceptors.NewRecording(store, logger), 20),
	}

	if len(cfg.Auth.Keys) > 0 {
		opts = append(opts, strata.WithStage(stages.NewAPIKeyAuth(cfg.Auth.Keys), 30))
	}
	if len(cfg.Pipeline.ResponseHeaders) > 0 {
		opts = append(opts, strata.WithStage(stages.NewResponseHeaders(cfg.Pipeline.ResponseHeaders), 40))
	}
	for _, wh := range cfg.Pipeline.Webhooks {
		opts = append(opts, strata.WithWebhookStage(wh))
	}

	opts = append(opts, opsRoutes(store)...)

	app, err := strata.New(opts...)
	if err != nil {
		log.Fatalf("Failed to assemble app: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Config changes at runtime only adjust the log level; the pipeline
	// itself is immutable once started.
	if err := config.Watch(ctx, configPath, logger, func(next *config.Config) {
		logLevel.Set(parseLevel(next.Log.Level))
	}); err != nil {
		logger.Warn("config watch unavailable", slog.String("error", err.Error()))
	}

	if err := app.Start(ctx); err != nil {
		log.Fatalf("Failed to start: %v", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutdown signal received")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := app.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// opsRoutes are the built-in operational endpoints.
func opsRoutes(store ports.TraversalStore) []strata.Option {
	return []strata.Option{
		strata.WithRoute("GET", "/healthz", func(ctx context.Context, req *domain.Request, attrs domain.Attributes) (any, error) {
			return map[string]string{"status": "ok"}, nil
		}),

		strata.WithRoute("POST", "/v1/echo", func(ctx context.Context, req *domain.Request, attrs domain.Attributes) (any, error) {
			return map[string]any{
				"method": req.Method,
				"path":   req.Path,
				"body":   string(req.Body),
			}, nil
		}),

		strata.WithRoute("GET", "/v1/traversals", func(ctx context.Context, req *domain.Request, attrs domain.Attributes) (any, error) {
			limit := 50
			if raw := req.Query.Get("limit"); raw != "" {
				parsed, err := strconv.Atoi(raw)
				if err != nil || parsed <= 0 {
					return nil, domain.ErrValidation("limit must be a positive integer")
				}
				limit = parsed
			}
			recs, err := store.ListRecentTraversals(ctx, limit)
			if err != nil {
				return nil, err
			}
			return recs, nil
		}),

		strata.WithRoute("GET", "/v1/traversals/{id}", func(ctx context.Context, req *domain.Request, attrs domain.Attributes) (any, error) {
			id, _ := attrs.PathVar("id")
			rec, err := store.GetTraversal(ctx, id)
			if err != nil {
				return nil, err
			}
			if rec == nil {
				return nil, domain.NewError(domain.KindRouteNotFound, "traversal not found")
			}
			return rec, nil
		}),
	}
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func newLogger(format string, level slog.Leveler) *slog.Logger {
	if format == "text" {
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}
