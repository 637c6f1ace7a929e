package pipeline

import (
	"fmt"
	"strings"

	"github.com/strataweb/strata/internal/ports"
)

// Resolver maps an incoming method and path to a registered route. The
// route table is populated at startup and immutable afterwards, so Resolve
// is a pure function of its inputs.
type Resolver struct {
	routes []*compiledRoute
}

type compiledRoute struct {
	route    ports.Route
	segments []segment
	varCount int
	// prefixLen is the number of literal segments before the first
	// variable segment, used as the specificity tie-breaker.
	prefixLen int
}

type segment struct {
	literal string
	varName string // non-empty for {name} segments
}

// Match is the result of a successful route lookup.
type Match struct {
	Route    *ports.Route
	PathVars map[string]string
}

// NewResolver creates an empty route table.
func NewResolver() *Resolver {
	return &Resolver{}
}

// Register adds a route. Patterns use single-segment variables, e.g.
// /users/{id}/posts. Registering a pattern that can tie with an existing
// one on some request path is a configuration error reported here, never
// at request time.
func (r *Resolver) Register(method, pattern string, handler ports.Handler) error {
	segs, err := parsePattern(pattern)
	if err != nil {
		return fmt.Errorf("route %s %s: %w", method, pattern, err)
	}

	cr := &compiledRoute{
		route:    ports.Route{Method: strings.ToUpper(method), Pattern: pattern, Handler: handler},
		segments: segs,
	}
	for _, s := range segs {
		if s.varName != "" {
			cr.varCount++
		}
	}
	for _, s := range segs {
		if s.varName != "" {
			break
		}
		cr.prefixLen++
	}

	for _, existing := range r.routes {
		if existing.route.Method != cr.route.Method {
			continue
		}
		if ambiguous(existing, cr) {
			return fmt.Errorf("route %s %s is ambiguous with %s", method, pattern, existing.route.Pattern)
		}
	}

	r.routes = append(r.routes, cr)
	return nil
}

// MustRegister is Register that panics on configuration errors.
func (r *Resolver) MustRegister(method, pattern string, handler ports.Handler) {
	if err := r.Register(method, pattern, handler); err != nil {
		panic(err)
	}
}

// Resolve returns the most specific route matching method and path, or
// false when none matches. Fewest variable segments wins, then the longest
// literal prefix; exact ties were rejected at registration.
func (r *Resolver) Resolve(method, path string) (*Match, bool) {
	method = strings.ToUpper(method)
	parts := splitPath(path)

	var best *compiledRoute
	for _, cr := range r.routes {
		if cr.route.Method != method || len(cr.segments) != len(parts) {
			continue
		}
		if !matches(cr.segments, parts) {
			continue
		}
		if best == nil || moreSpecific(cr, best) {
			best = cr
		}
	}
	if best == nil {
		return nil, false
	}

	vars := make(map[string]string)
	for i, s := range best.segments {
		if s.varName != "" {
			vars[s.varName] = parts[i]
		}
	}
	return &Match{Route: &best.route, PathVars: vars}, true
}

func matches(segs []segment, parts []string) bool {
	for i, s := range segs {
		if s.varName == "" && s.literal != parts[i] {
			return false
		}
	}
	return true
}

func moreSpecific(a, b *compiledRoute) bool {
	if a.varCount != b.varCount {
		return a.varCount < b.varCount
	}
	return a.prefixLen > b.prefixLen
}

// ambiguous reports whether two routes of the same method could both match
// some path with equal specificity.
func ambiguous(a, b *compiledRoute) bool {
	if len(a.segments) != len(b.segments) {
		return false
	}
	if a.varCount != b.varCount || a.prefixLen != b.prefixLen {
		return false
	}
	for i := range a.segments {
		as, bs := a.segments[i], b.segments[i]
		if as.varName == "" && bs.varName == "" && as.literal != bs.literal {
			return false
		}
	}
	return true
}

func parsePattern(pattern string) ([]segment, error) {
	if pattern == "" || pattern[0] != '/' {
		return nil, fmt.Errorf("pattern must start with /")
	}
	parts := splitPath(pattern)
	segs := make([]segment, 0, len(parts))
	for _, p := range parts {
		switch {
		case strings.HasPrefix(p, "{") && strings.HasSuffix(p, "}"):
			name := p[1 : len(p)-1]
			if name == "" {
				return nil, fmt.Errorf("empty path variable name")
			}
			if strings.ContainsAny(name, "{}") {
				return nil, fmt.Errorf("malformed path variable %q", p)
			}
			segs = append(segs, segment{varName: name})
		case strings.ContainsAny(p, "{}"):
			return nil, fmt.Errorf("malformed segment %q", p)
		case p == "":
			return nil, fmt.Errorf("empty path segment")
		default:
			segs = append(segs, segment{literal: p})
		}
	}
	return segs, nil
}

// splitPath normalizes a path into its segments. The root path yields an
// empty slice; trailing slashes are ignored.
func splitPath(path string) []string {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}
