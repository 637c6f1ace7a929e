package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/strataweb/strata/internal/domain"
	"github.com/strataweb/strata/internal/ports"
)

// Executor drives one request through the full pipeline. All dependencies
// are fixed at construction and read-only afterwards, so a single Executor
// serves any number of concurrent traversals without locking.
//
// Policy for handler failures: post-handle hooks are skipped (there is no
// handler output to post-process); after-completion hooks still run for
// every interceptor whose pre-handle succeeded and receive the captured
// error. An interceptor whose pre-handle returned stop does not count as
// entered and is not owed an after-completion call.
type Executor struct {
	stages       []ports.Stage
	interceptors []ports.Interceptor
	resolver     *Resolver
	negotiator   ports.Negotiator
	translator   *Translator
	logger       *slog.Logger
}

// ExecutorConfig carries the executor's immutable dependency set.
type ExecutorConfig struct {
	Registry   *Registry
	Resolver   *Resolver
	Negotiator ports.Negotiator
	Logger     *slog.Logger
}

// NewExecutor builds an executor from a frozen registry and route table.
func NewExecutor(cfg ExecutorConfig) *Executor {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{
		stages:       cfg.Registry.Stages(),
		interceptors: cfg.Registry.Interceptors(),
		resolver:     cfg.Resolver,
		negotiator:   cfg.Negotiator,
		translator:   NewTranslator(),
		logger:       logger,
	}
}

// Execute runs one traversal and returns its outcome. Exactly one finalized
// response is produced per call. Cleanup phases run even when ctx is
// canceled mid-traversal; only response transmission is the caller's
// concern.
func (e *Executor) Execute(ctx context.Context, req *domain.Request) *domain.Outcome {
	start := time.Now()
	exch := domain.NewExchange(req)

	var (
		fwdErr       *domain.Error // first forward-phase error
		shortCircuit bool
		entered      int // stages whose inbound hook ran (even partially)
		preDone      int // interceptors whose pre-handle succeeded
		routePattern string
		hookErrors   []domain.HookError
	)

	// Entering: stage inbound hooks, ascending.
	for i, stage := range e.stages {
		entered = i + 1
		action, err := e.safeInbound(ctx, stage, exch)
		if err != nil {
			fwdErr = hookError(stage.Name(), err)
			break
		}
		if action == ports.ActionShortCircuit {
			shortCircuit = true
			break
		}
	}

	// RoutingDone through PostIntercepting only run on a clean entry.
	if fwdErr == nil && !shortCircuit {
		match, ok := e.resolver.Resolve(req.Method, req.Path)
		if !ok {
			// Not an exceptional path: synthesize the not-found response
			// now so every stage's outbound hook can still transform it.
			fwdErr = domain.ErrRouteNotFound(req.Method, req.Path)
		} else {
			routePattern = match.Route.Pattern
			exch.Attributes[domain.AttrRoute] = routePattern
			for name, value := range match.PathVars {
				exch.Attributes.SetPathVar(name, value)
			}

			fwdErr, shortCircuit, preDone = e.runForward(ctx, exch, match.Route)
		}
	}

	// Cleanup must run even if the caller disconnected.
	cleanupCtx := context.WithoutCancel(ctx)

	// A forward error owns the response unless a hook already wrote one.
	if fwdErr != nil && exch.Response.StatusCode == 0 {
		e.translator.Translate(fwdErr, exch.Response)
	}

	// PostIntercepting: descending, best-effort, only after a successful
	// handler invocation.
	if fwdErr == nil && !shortCircuit {
		for i := preDone - 1; i >= 0; i-- {
			ic := e.interceptors[i]
			if err := e.safePostHandle(cleanupCtx, ic, exch); err != nil {
				hookErrors = append(hookErrors, domain.HookError{Phase: "post_handle", Hook: ic.Name(), Err: err})
				e.logger.Error("post-handle hook failed",
					slog.String("interceptor", ic.Name()),
					slog.String("error", err.Error()))
			}
		}
	}

	// Exiting: outbound hooks, descending, only for stages entered.
	for i := entered - 1; i >= 0; i-- {
		stage := e.stages[i]
		if err := e.safeOutbound(cleanupCtx, stage, exch); err != nil {
			hookErrors = append(hookErrors, domain.HookError{Phase: "outbound", Hook: stage.Name(), Err: err})
			e.logger.Error("outbound hook failed",
				slog.String("stage", stage.Name()),
				slog.String("error", err.Error()))
		}
	}

	// Completing: after-completion, descending, unconditional for every
	// interceptor past pre-handle. Errors are swallowed into the log and
	// never touch the finalized response.
	var capturedErr error
	if fwdErr != nil {
		capturedErr = fwdErr
	}
	for i := preDone - 1; i >= 0; i-- {
		ic := e.interceptors[i]
		if err := e.safeAfterCompletion(cleanupCtx, ic, exch, capturedErr); err != nil {
			hookErrors = append(hookErrors, domain.HookError{Phase: "after_completion", Hook: ic.Name(), Err: err})
			e.logger.Error("after-completion hook failed",
				slog.String("interceptor", ic.Name()),
				slog.String("error", err.Error()))
		}
	}

	if exch.Response.StatusCode == 0 {
		exch.Response.StatusCode = http.StatusOK
	}
	exch.Response.Finalize()

	outcome := &domain.Outcome{
		Response:   exch.Response,
		Route:      routePattern,
		HookErrors: hookErrors,
		Duration:   time.Since(start),
	}
	switch {
	case fwdErr != nil:
		outcome.State = domain.OutcomeFailed
		outcome.Err = fwdErr
	case shortCircuit:
		outcome.State = domain.OutcomeShortCircuited
	default:
		outcome.State = domain.OutcomeCompleted
	}
	return outcome
}

// runForward drives PreIntercepting and Handling for a resolved route.
func (e *Executor) runForward(ctx context.Context, exch *domain.Exchange, route *ports.Route) (fwdErr *domain.Error, shortCircuit bool, preDone int) {
	for _, ic := range e.interceptors {
		proceed, err := e.safePreHandle(ctx, ic, exch, route)
		if err != nil {
			return hookError(ic.Name(), err), false, preDone
		}
		if !proceed {
			// The stopping interceptor is not owed after-completion; the
			// ones before it are.
			return nil, true, preDone
		}
		preDone++
	}

	value, err := e.safeHandler(ctx, route.Handler, exch)
	if err != nil {
		return handlerError(err), false, preDone
	}

	if value == nil {
		exch.Response.Write(http.StatusNoContent, "", nil)
		return nil, false, preDone
	}

	body, mediaType, err := e.negotiator.Negotiate(exch.Request.Accept(), value)
	if err != nil {
		return handlerError(err), false, preDone
	}
	exch.Response.Write(http.StatusOK, mediaType, body)
	return nil, false, preDone
}

func (e *Executor) safeInbound(ctx context.Context, s ports.Stage, exch *domain.Exchange) (action ports.HookAction, err error) {
	defer recoverTo(&err)
	return s.Inbound(ctx, exch)
}

func (e *Executor) safeOutbound(ctx context.Context, s ports.Stage, exch *domain.Exchange) (err error) {
	defer recoverTo(&err)
	return s.Outbound(ctx, exch)
}

func (e *Executor) safePreHandle(ctx context.Context, ic ports.Interceptor, exch *domain.Exchange, route *ports.Route) (proceed bool, err error) {
	defer recoverTo(&err)
	return ic.PreHandle(ctx, exch, route)
}

func (e *Executor) safePostHandle(ctx context.Context, ic ports.Interceptor, exch *domain.Exchange) (err error) {
	defer recoverTo(&err)
	return ic.PostHandle(ctx, exch)
}

func (e *Executor) safeAfterCompletion(ctx context.Context, ic ports.Interceptor, exch *domain.Exchange, cause error) (err error) {
	defer recoverTo(&err)
	return ic.AfterCompletion(ctx, exch, cause)
}

func (e *Executor) safeHandler(ctx context.Context, h ports.Handler, exch *domain.Exchange) (value any, err error) {
	defer recoverTo(&err)
	return h(ctx, exch.Request, exch.Attributes)
}

// recoverTo converts a panic in a hook or handler into an ordinary error so
// the cleanup phases still run in order.
func recoverTo(err *error) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("panic: %v", r)
	}
}

// hookError normalizes a stage/interceptor failure, preserving canonical
// errors (validation, unauthorized, ...) so they translate to their own
// status instead of a generic hook failure.
func hookError(hook string, err error) *domain.Error {
	var perr *domain.Error
	if errors.As(err, &perr) {
		if perr.Hook == "" {
			perr.Hook = hook
		}
		return perr
	}
	return domain.ErrHookFailed(hook, err)
}

// handlerError normalizes a handler or negotiation failure.
func handlerError(err error) *domain.Error {
	var perr *domain.Error
	if errors.As(err, &perr) {
		return perr
	}
	return domain.ErrHandlerFailed(err)
}
