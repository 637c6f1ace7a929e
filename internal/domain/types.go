// Package domain provides the canonical request, response and outcome
// types that flow through one pipeline traversal.
package domain

import (
	"net/http"
	"net/url"
)

// Well-known attribute keys bound by the built-in stages and the resolver.
const (
	AttrRequestID = "request_id"
	AttrPrincipal = "principal"
	AttrRoute     = "route_pattern"
)

// Attributes is the request-scoped side channel stages and interceptors use
// to pass values forward. It is owned exclusively by a single traversal and
// must never be shared across requests.
type Attributes map[string]any

// PathVar returns the bound path variable for name, if any.
func (a Attributes) PathVar(name string) (string, bool) {
	v, ok := a["path."+name].(string)
	return v, ok
}

// SetPathVar binds a resolved path variable under its declared name.
func (a Attributes) SetPathVar(name, value string) {
	a["path."+name] = value
}

// Request is the immutable-at-entry view of one incoming request. Stages
// must not reassign its fields; mutable per-request state belongs in the
// Exchange's Attributes.
type Request struct {
	Method string
	Path   string
	Header http.Header
	Query  url.Values
	Body   []byte
}

// Accept returns the request's Accept header, defaulting to wildcard.
func (r *Request) Accept() string {
	if r.Header == nil {
		return "*/*"
	}
	if v := r.Header.Get("Accept"); v != "" {
		return v
	}
	return "*/*"
}

// Response is the mutable accumulator built up as the pipeline runs. It is
// finalized exactly once, after which further writes are ignored.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte

	finalized bool
}

// NewResponse returns an empty response accumulator.
func NewResponse() *Response {
	return &Response{Header: make(http.Header)}
}

// Finalize marks the response complete. The first call wins; later calls
// are no-ops so cleanup hooks can never perturb a response being sent.
func (r *Response) Finalize() bool {
	if r.finalized {
		return false
	}
	r.finalized = true
	return true
}

// Finalized reports whether the response has been finalized.
func (r *Response) Finalized() bool { return r.finalized }

// Write replaces the status and body unless the response was finalized.
func (r *Response) Write(status int, contentType string, body []byte) {
	if r.finalized {
		return
	}
	r.StatusCode = status
	if contentType != "" {
		r.Header.Set("Content-Type", contentType)
	}
	r.Body = body
}

// Exchange bundles the request, the response accumulator and the attributes
// map for one traversal. Hooks receive the same Exchange for the whole
// lifetime of the request.
type Exchange struct {
	Request    *Request
	Response   *Response
	Attributes Attributes
}

// NewExchange creates the per-traversal triple for a request.
func NewExchange(req *Request) *Exchange {
	return &Exchange{
		Request:    req,
		Response:   NewResponse(),
		Attributes: make(Attributes),
	}
}
