package core

import "sync"

// StepLimiter enforces the hard ceiling on node executions within one turn.
// It bounds worst-case latency and guards against reflect/retry cycles
// compounding unboundedly.
type StepLimiter struct {
	max   int
	count int
	mu    sync.Mutex
}

// NewStepLimiter creates a limiter allowing at most max node executions.
// If max == 0, execution is unlimited.
func NewStepLimiter(max int) *StepLimiter {
	return &StepLimiter{max: max}
}

// Increment counts one node execution and returns *RoutingLimitError once
// the ceiling is exceeded.
func (sl *StepLimiter) Increment() error {
	sl.mu.Lock()
	defer sl.mu.Unlock()

	sl.count++
	if sl.max > 0 && sl.count > sl.max {
		return &RoutingLimitError{Steps: sl.count - 1}
	}

	return nil
}

// Count returns the number of node executions so far.
func (sl *StepLimiter) Count() int {
	sl.mu.Lock()
	defer sl.mu.Unlock()

	return sl.count
}

// Remaining returns how many executions are left, or -1 when unlimited.
func (sl *StepLimiter) Remaining() int {
	sl.mu.Lock()
	defer sl.mu.Unlock()

	if sl.max == 0 {
		return -1
	}

	return sl.max - sl.count
}
