package workflow

import (
	"testing"

	"github.com/meridian-hooks/meridian/internal/statestore"
)

func TestCounter_IncrementAndReset(t *testing.T) {
	env := newTestEnv(t, nil)
	c := NewCounter(env.Store)

	for i := 1; i <= 5; i++ {
		if got := c.Increment(ScopeGlobal); got != i {
			t.Fatalf("Increment() = %d, want %d", got, i)
		}
	}
	c.Reset(ScopeGlobal)
	c.Reset(ScopeGlobal)
	if got := c.Count(ScopeGlobal); got != 0 {
		t.Errorf("Count() after reset = %d, want 0", got)
	}
	c.Increment(ScopeGlobal)
	if got := c.Count(ScopeGlobal); got != 1 {
		t.Errorf("Count() = %d, want 1", got)
	}
}

func TestCounter_ScopesAreIndependent(t *testing.T) {
	env := newTestEnv(t, nil)
	c := NewCounter(env.Store)

	c.Increment(ScopePlan)
	c.Increment(ScopePlan)
	c.Increment(ScopeGlobal)
	c.Reset(ScopeGlobal)

	if got := c.Count(ScopePlan); got != 2 {
		t.Errorf("plan Count() = %d, want 2", got)
	}
	if got := c.Count(ScopeGlobal); got != 0 {
		t.Errorf("global Count() = %d, want 0", got)
	}
}

func TestCounter_RecordAction(t *testing.T) {
	tests := []struct {
		name       string
		mode       string
		wantGlobal int
		wantPlan   int
	}{
		{"no mode recorded", "", 3, 0},
		{"other mode", "other", 3, 0},
		{"plan mode", "plan", 3, 3},
		{"plan mode with newline", "plan\n", 3, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, nil)
			if tt.mode != "" {
				env.Store.Set(statestore.KeyPlanMode, tt.mode)
			}
			c := NewCounter(env.Store)
			for range 3 {
				c.RecordAction()
			}
			if got := c.Count(ScopeGlobal); got != tt.wantGlobal {
				t.Errorf("global = %d, want %d", got, tt.wantGlobal)
			}
			if got := c.Count(ScopePlan); got != tt.wantPlan {
				t.Errorf("plan = %d, want %d", got, tt.wantPlan)
			}
		})
	}
}

func TestScope_String(t *testing.T) {
	if ScopeGlobal.String() != "global" || ScopePlan.String() != "plan" {
		t.Errorf("unexpected scope names %q, %q", ScopeGlobal, ScopePlan)
	}
}
