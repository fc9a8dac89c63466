package runner

import "github.com/ZeraTS/ironbullet-sub001/internal/engine"

// DefaultContinueStatuses is the retry-triggering status set used when a
// Pipeline's RunnerSettings.ContinueStatuses is empty (spec.md §4.F:
// "continue_statuses (default includes Retry)").
var DefaultContinueStatuses = []string{string(engine.StatusRetry)}

// Policy is one job's retry/classification configuration, resolved from
// pipeline.RunnerSettings into the engine.Status-keyed form classify/
// orchestrator code consumes directly.
type Policy struct {
	ContinueStatuses map[engine.Status]bool
	MaxRetries       int

	LowerThreadsOnRetry     bool
	RetryThreadReductionPct int

	PauseOnRatelimit bool
	PauseMs          int64
}

// NewPolicy builds a Policy from a Pipeline's RunnerSettings fields.
func NewPolicy(continueStatuses []string, maxRetries int, lowerThreadsOnRetry bool, retryThreadReductionPct int, pauseOnRatelimit bool, pauseMs int64) Policy {
	if len(continueStatuses) == 0 {
		continueStatuses = DefaultContinueStatuses
	}
	set := make(map[engine.Status]bool, len(continueStatuses))
	for _, s := range continueStatuses {
		set[engine.Status(s)] = true
	}
	return Policy{
		ContinueStatuses:        set,
		MaxRetries:              maxRetries,
		LowerThreadsOnRetry:     lowerThreadsOnRetry,
		RetryThreadReductionPct: retryThreadReductionPct,
		PauseOnRatelimit:        pauseOnRatelimit,
		PauseMs:                 pauseMs,
	}
}

// ShouldRetry reports whether a record that just finished with status,
// having already been attempted attempt times (0-based), should be
// re-run rather than finalized.
func (p Policy) ShouldRetry(status engine.Status, attempt int) bool {
	return p.ContinueStatuses[status] && attempt < p.MaxRetries
}
