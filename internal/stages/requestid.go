// Package stages provides the built-in pipeline stages.
package stages

import (
	"context"

	"github.com/google/uuid"

	"github.com/strataweb/strata/internal/domain"
	"github.com/strataweb/strata/internal/ports"
)

// RequestID assigns each traversal a unique id, reusing an inbound
// X-Request-ID when the client supplied one, and echoes it on the response.
type RequestID struct{}

// NewRequestID creates the request id stage.
func NewRequestID() *RequestID {
	return &RequestID{}
}

// Name returns the stage identifier.
func (s *RequestID) Name() string { return "request_id" }

// Inbound binds the request id attribute.
func (s *RequestID) Inbound(ctx context.Context, exch *domain.Exchange) (ports.HookAction, error) {
	id := exch.Request.Header.Get("X-Request-ID")
	if id == "" {
		id = uuid.New().String()
	}
	exch.Attributes[domain.AttrRequestID] = id
	return ports.ActionContinue, nil
}

// Outbound echoes the id on the response.
func (s *RequestID) Outbound(ctx context.Context, exch *domain.Exchange) error {
	if id, ok := exch.Attributes[domain.AttrRequestID].(string); ok {
		exch.Response.Header.Set("X-Request-ID", id)
	}
	return nil
}

var _ ports.Stage = (*RequestID)(nil)
