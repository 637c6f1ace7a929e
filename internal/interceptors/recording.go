package interceptors

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/strataweb/strata/internal/domain"
	"github.com/strataweb/strata/internal/ports"
)

const attrRecordStart = "recording.start"

// Recording persists a traversal record for every routed request. It writes
// in AfterCompletion, the only hook guaranteed to run once the request was
// routed, so failed and short-circuited traversals are recorded too.
type Recording struct {
	store  ports.TraversalStore
	logger *slog.Logger
}

// NewRecording creates the recording interceptor.
func NewRecording(store ports.TraversalStore, logger *slog.Logger) *Recording {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recording{store: store, logger: logger}
}

// Name returns the interceptor identifier.
func (r *Recording) Name() string { return "recording" }

// PreHandle stamps the start time.
func (r *Recording) PreHandle(ctx context.Context, exch *domain.Exchange, route *ports.Route) (bool, error) {
	exch.Attributes[attrRecordStart] = time.Now()
	return true, nil
}

// PostHandle is a no-op.
func (r *Recording) PostHandle(ctx context.Context, exch *domain.Exchange) error {
	return nil
}

// AfterCompletion writes the record. Persistence failures are returned so
// the executor logs them, but they can never affect the response.
func (r *Recording) AfterCompletion(ctx context.Context, exch *domain.Exchange, cause error) error {
	rec := &ports.TraversalRecord{
		ID:         recordID(exch),
		Method:     exch.Request.Method,
		Path:       exch.Request.Path,
		StatusCode: exch.Response.StatusCode,
		Outcome:    string(domain.OutcomeCompleted),
		CreatedAt:  time.Now(),
	}
	if route, ok := exch.Attributes[domain.AttrRoute].(string); ok {
		rec.Route = route
	}
	if start, ok := exch.Attributes[attrRecordStart].(time.Time); ok {
		rec.Duration = time.Since(start)
	}
	if cause != nil {
		rec.Outcome = string(domain.OutcomeFailed)
		var perr *domain.Error
		if errors.As(cause, &perr) {
			rec.ErrorKind = string(perr.Kind)
		} else {
			rec.ErrorKind = string(domain.KindServer)
		}
		rec.ErrorMessage = cause.Error()
	}

	return r.store.SaveTraversal(ctx, rec)
}

func recordID(exch *domain.Exchange) string {
	if id, ok := exch.Attributes[domain.AttrRequestID].(string); ok && id != "" {
		return id
	}
	return uuid.New().String()
}

var _ ports.Interceptor = (*Recording)(nil)
