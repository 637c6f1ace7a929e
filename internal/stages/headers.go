package stages

import (
	"context"

	"github.com/strataweb/strata/internal/domain"
	"github.com/strataweb/strata/internal/ports"
)

// ResponseHeaders sets static headers on every response on the way out.
type ResponseHeaders struct {
	headers map[string]string
}

// NewResponseHeaders creates the header transform stage.
func NewResponseHeaders(headers map[string]string) *ResponseHeaders {
	return &ResponseHeaders{headers: headers}
}

// Name returns the stage identifier.
func (s *ResponseHeaders) Name() string { return "response_headers" }

// Inbound is a no-op.
func (s *ResponseHeaders) Inbound(ctx context.Context, exch *domain.Exchange) (ports.HookAction, error) {
	return ports.ActionContinue, nil
}

// Outbound applies the configured headers.
func (s *ResponseHeaders) Outbound(ctx context.Context, exch *domain.Exchange) error {
	for k, v := range s.headers {
		exch.Response.Header.Set(k, v)
	}
	return nil
}

var _ ports.Stage = (*ResponseHeaders)(nil)
