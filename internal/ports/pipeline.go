// Package ports defines the interfaces the pipeline core exposes to and
// consumes from its collaborators.
package ports

import (
	"context"

	"github.com/strataweb/strata/internal/domain"
)

// HookAction is the verdict of a stage's inbound hook.
type HookAction string

const (
	// ActionContinue lets traversal proceed to the next element.
	ActionContinue HookAction = "continue"

	// ActionShortCircuit ends forward traversal. The hook is expected to
	// have written the early response before returning it.
	ActionShortCircuit HookAction = "short_circuit"
)

// Stage is a coarse pipeline element run for every request, routed or not.
// Inbound hooks run in ascending registration order, outbound hooks in
// strict reverse (LIFO) for the stages whose inbound hook ran.
type Stage interface {
	// Name returns the unique identifier for this stage.
	Name() string

	// Inbound runs on the way in. It may mutate attributes, or write the
	// response and return ActionShortCircuit to skip everything up to its
	// own outbound hook.
	Inbound(ctx context.Context, exch *domain.Exchange) (HookAction, error)

	// Outbound runs on the way out and may transform the response.
	Outbound(ctx context.Context, exch *domain.Exchange) error
}

// Route is an immutable mapping from a method and path pattern to a
// handler, registered at startup and looked up read-only per request.
type Route struct {
	Method  string
	Pattern string
	Handler Handler
}

// Interceptor is a finer-grained pipeline element run only for requests
// that resolved to a handler.
type Interceptor interface {
	// Name returns the unique identifier for this interceptor.
	Name() string

	// PreHandle runs before the handler, in ascending order. Returning
	// false stops the chain: the handler is skipped, and AfterCompletion
	// is owed to every earlier interceptor but not this one.
	PreHandle(ctx context.Context, exch *domain.Exchange, route *Route) (bool, error)

	// PostHandle runs after a successful handler invocation, in
	// descending order. It is skipped entirely when the handler or a
	// later PreHandle failed.
	PostHandle(ctx context.Context, exch *domain.Exchange) error

	// AfterCompletion runs exactly once per interceptor whose PreHandle
	// succeeded, in descending order, regardless of errors anywhere in
	// the traversal. err carries the captured forward-phase error, if
	// any. Errors returned here are logged and otherwise ignored.
	AfterCompletion(ctx context.Context, exch *domain.Exchange, err error) error
}

// Handler is the application callable selected by routing. It returns a
// domain value that content negotiation serializes into the response body.
type Handler func(ctx context.Context, req *domain.Request, attrs domain.Attributes) (any, error)

// Negotiator serializes a handler's domain value according to the
// request's Accept header.
type Negotiator interface {
	// Negotiate returns the serialized body and its media type, or a
	// KindNotAcceptable error when no representation satisfies accept.
	Negotiate(accept string, v any) (body []byte, mediaType string, err error)
}
