package server

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/strataweb/strata/internal/domain"
	"github.com/strataweb/strata/internal/pipeline"
)

// maxBodyBytes caps buffered request bodies.
const maxBodyBytes = 8 << 20

// Adapter converts net/http requests into pipeline traversals. The executor
// always runs its cleanup phases; only the response write is skipped when
// the client has gone away.
type Adapter struct {
	executor *pipeline.Executor
	logger   *slog.Logger
}

// NewAdapter creates the http->pipeline bridge.
func NewAdapter(executor *pipeline.Executor, logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{executor: executor, logger: logger}
}

// ServeHTTP implements http.Handler.
func (a *Adapter) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		http.Error(w, "failed to read request body", http.StatusBadRequest)
		return
	}

	req := &domain.Request{
		Method: r.Method,
		Path:   r.URL.Path,
		Header: r.Header,
		Query:  r.URL.Query(),
		Body:   body,
	}

	outcome := a.executor.Execute(r.Context(), req)

	// Client disconnected mid-traversal: cleanup already ran inside the
	// executor, only transmission is skipped. A deadline expiry is not a
	// disconnect; the translated error still goes out.
	if r.Context().Err() == context.Canceled {
		a.logger.Warn("client gone, response not sent",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path))
		return
	}

	resp := outcome.Response
	for key, values := range resp.Header {
		for _, v := range values {
			w.Header().Add(key, v)
		}
	}
	w.WriteHeader(resp.StatusCode)
	if len(resp.Body) > 0 {
		if _, err := w.Write(resp.Body); err != nil {
			a.logger.Warn("response write failed", slog.String("error", err.Error()))
		}
	}
}
