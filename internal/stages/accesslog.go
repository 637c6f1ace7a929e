package stages

import (
	"context"
	"log/slog"
	"time"

	"github.com/strataweb/strata/internal/domain"
	"github.com/strataweb/strata/internal/ports"
)

const attrLogStart = "accesslog.start"

// AccessLog emits structured start/finish lines for every request. Being a
// stage, it sees short-circuited and unrouted requests too.
type AccessLog struct {
	logger *slog.Logger
}

// NewAccessLog creates the access log stage.
func NewAccessLog(logger *slog.Logger) *AccessLog {
	if logger == nil {
		logger = slog.Default()
	}
	return &AccessLog{logger: logger}
}

// Name returns the stage identifier.
func (s *AccessLog) Name() string { return "access_log" }

// Inbound logs the request start.
func (s *AccessLog) Inbound(ctx context.Context, exch *domain.Exchange) (ports.HookAction, error) {
	exch.Attributes[attrLogStart] = time.Now()

	requestID, _ := exch.Attributes[domain.AttrRequestID].(string)
	s.logger.Info("request started",
		slog.String("request_id", requestID),
		slog.String("method", exch.Request.Method),
		slog.String("path", exch.Request.Path),
	)
	return ports.ActionContinue, nil
}

// Outbound logs the final status and duration.
func (s *AccessLog) Outbound(ctx context.Context, exch *domain.Exchange) error {
	requestID, _ := exch.Attributes[domain.AttrRequestID].(string)

	attrs := []slog.Attr{
		slog.String("request_id", requestID),
		slog.String("method", exch.Request.Method),
		slog.String("path", exch.Request.Path),
		slog.Int("status", exch.Response.StatusCode),
	}
	if start, ok := exch.Attributes[attrLogStart].(time.Time); ok {
		attrs = append(attrs, slog.Duration("duration", time.Since(start)))
	}
	if route, ok := exch.Attributes[domain.AttrRoute].(string); ok {
		attrs = append(attrs, slog.String("route", route))
	}

	s.logger.LogAttrs(ctx, slog.LevelInfo, "request completed", attrs...)
	return nil
}

var _ ports.Stage = (*AccessLog)(nil)
