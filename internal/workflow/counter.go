package workflow

import "github.com/meridian-hooks/meridian/internal/statestore"

// Scope selects one of the two action counters.
type Scope int

const (
	// ScopeGlobal counts every action since the last stop gate fired.
	ScopeGlobal Scope = iota
	// ScopePlan counts actions taken while in plan mode, since the last
	// plan approval.
	ScopePlan
)

func (s Scope) String() string {
	if s == ScopePlan {
		return "plan"
	}
	return "global"
}

func (s Scope) key() string {
	if s == ScopePlan {
		return statestore.KeyPlanActionCounter
	}
	return statestore.KeyActionCounter
}

// Counter tracks how much work the agent has done.
type Counter struct {
	store *statestore.Store
}

// NewCounter creates a Counter over store.
func NewCounter(store *statestore.Store) *Counter {
	return &Counter{store: store}
}

// Count returns the current value of scope.
func (c *Counter) Count(scope Scope) int {
	return c.store.Count(scope.key())
}

// Increment adds one to scope and returns the new value.
func (c *Counter) Increment(scope Scope) int {
	return c.store.Increment(scope.key())
}

// Reset sets scope back to 0.
func (c *Counter) Reset(scope Scope) {
	c.store.ResetCounter(scope.key())
}

// RecordAction counts one action: always globally, and in the plan scope
// too while plan mode is on.
func (c *Counter) RecordAction() {
	c.Increment(ScopeGlobal)
	if CurrentMode(c.store) == ModePlan {
		c.Increment(ScopePlan)
	}
}
