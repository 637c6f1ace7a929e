package pipeline

import (
	"sort"

	"github.com/strataweb/strata/internal/ports"
)

// Registry holds the ordered stage and interceptor lists. Registration
// happens at startup; after Freeze the lists are read-only and safe for
// concurrent traversals without locking.
type Registry struct {
	stages       []stageEntry
	interceptors []interceptorEntry
	frozen       bool
}

type stageEntry struct {
	stage ports.Stage
	order int
	seq   int
}

type interceptorEntry struct {
	interceptor ports.Interceptor
	order       int
	seq         int
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// RegisterStage adds a stage at the given order. Duplicate orders are
// permitted; ties resolve by registration sequence.
func (r *Registry) RegisterStage(stage ports.Stage, order int) {
	if r.frozen {
		panic("pipeline: RegisterStage after Freeze")
	}
	r.stages = append(r.stages, stageEntry{stage: stage, order: order, seq: len(r.stages)})
}

// RegisterInterceptor adds an interceptor at the given order, with the same
// tie rules as stages. Interceptors run only on routed requests.
func (r *Registry) RegisterInterceptor(i ports.Interceptor, order int) {
	if r.frozen {
		panic("pipeline: RegisterInterceptor after Freeze")
	}
	r.interceptors = append(r.interceptors, interceptorEntry{interceptor: i, order: order, seq: len(r.interceptors)})
}

// Freeze sorts both lists and marks the registry immutable.
func (r *Registry) Freeze() {
	sort.SliceStable(r.stages, func(i, j int) bool {
		return r.stages[i].order < r.stages[j].order
	})
	sort.SliceStable(r.interceptors, func(i, j int) bool {
		return r.interceptors[i].order < r.interceptors[j].order
	})
	r.frozen = true
}

// Stages returns the stages in ascending order. The returned slice is
// shared; callers must not mutate it.
func (r *Registry) Stages() []ports.Stage {
	out := make([]ports.Stage, len(r.stages))
	for i, e := range r.stages {
		out[i] = e.stage
	}
	return out
}

// Interceptors returns the interceptors in ascending order.
func (r *Registry) Interceptors() []ports.Interceptor {
	out := make([]ports.Interceptor, len(r.interceptors))
	for i, e := range r.interceptors {
		out[i] = e.interceptor
	}
	return out
}
