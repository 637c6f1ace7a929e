// Package interceptors provides the built-in pipeline interceptors.
package interceptors

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/strataweb/strata/internal/domain"
	"github.com/strataweb/strata/internal/ports"
)

const attrSpan = "tracing.span"

// Tracing opens a span per handled request. The span starts in PreHandle
// and ends in AfterCompletion, so it covers the handler and every later
// interceptor, and it ends exactly once even on failure.
type Tracing struct {
	tracer trace.Tracer
}

// NewTracing creates the tracing interceptor.
func NewTracing() *Tracing {
	return &Tracing{tracer: otel.Tracer("strata/pipeline")}
}

// Name returns the interceptor identifier.
func (t *Tracing) Name() string { return "tracing" }

// PreHandle starts the handler span.
func (t *Tracing) PreHandle(ctx context.Context, exch *domain.Exchange, route *ports.Route) (bool, error) {
	_, span := t.tracer.Start(ctx, route.Method+" "+route.Pattern,
		trace.WithAttributes(
			attribute.String("http.method", exch.Request.Method),
			attribute.String("http.route", route.Pattern),
			attribute.String("http.target", exch.Request.Path),
		))
	exch.Attributes[attrSpan] = span
	return true, nil
}

// PostHandle is a no-op; the final status is only known at completion.
func (t *Tracing) PostHandle(ctx context.Context, exch *domain.Exchange) error {
	return nil
}

// AfterCompletion records the status and closes the span.
func (t *Tracing) AfterCompletion(ctx context.Context, exch *domain.Exchange, cause error) error {
	span, ok := exch.Attributes[attrSpan].(trace.Span)
	if !ok {
		return nil
	}

	span.SetAttributes(attribute.Int("http.status_code", exch.Response.StatusCode))
	if cause != nil {
		span.RecordError(cause)
		span.SetStatus(codes.Error, cause.Error())
	}
	span.End()
	return nil
}

var _ ports.Interceptor = (*Tracing)(nil)
