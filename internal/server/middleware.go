package server

import (
	"context"
	"net/http"
	"time"
)

// TimeoutMiddleware bounds each request's context lifetime. The pipeline's
// cleanup phases are immune to the deadline; only forward work is cut off.
func TimeoutMiddleware(timeout time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
