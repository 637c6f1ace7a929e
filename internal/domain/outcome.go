package domain

import "time"

// OutcomeState is the terminal state of one traversal.
type OutcomeState string

const (
	// OutcomeCompleted means the handler ran and produced the response.
	OutcomeCompleted OutcomeState = "completed"

	// OutcomeShortCircuited means a stage or interceptor deliberately
	// ended forward traversal with an early response.
	OutcomeShortCircuited OutcomeState = "short_circuited"

	// OutcomeFailed means a forward-phase error drove the traversal into
	// cleanup and the response was produced by the error translator.
	OutcomeFailed OutcomeState = "failed"
)

// HookError records a failure in a best-effort cleanup phase. Cleanup
// errors never abort sibling hooks and never override the response.
type HookError struct {
	Phase string // "post_handle", "outbound" or "after_completion"
	Hook  string
	Err   error
}

// Outcome is the terminal result of one traversal. Exactly one Outcome is
// produced per request, and its Response is always finalized.
type Outcome struct {
	State    OutcomeState
	Response *Response

	// Err is the captured forward-phase error when State is OutcomeFailed.
	Err error

	// HookErrors collects cleanup-phase failures recorded best-effort.
	HookErrors []HookError

	// Route is the matched pattern, empty when routing found nothing or
	// a stage short-circuited before routing.
	Route string

	Duration time.Duration
}
