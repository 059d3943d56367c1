package workflow

import (
	"strings"

	"github.com/meridian-hooks/meridian/internal/hook"
	"github.com/meridian-hooks/meridian/internal/statestore"
)

// PlanTracker records the plan file the agent is editing as the active
// plan.
type PlanTracker struct {
	env *Env
}

// NewPlanTracker creates the active-plan tracker.
func NewPlanTracker(env *Env) *PlanTracker {
	return &PlanTracker{env: env}
}

// Track handles a PostToolUse event.
func (t *PlanTracker) Track(ev *hook.Event) {
	if ev.ToolName != "Edit" && ev.ToolName != "Write" {
		return
	}
	path := ev.Input("file_path")
	if !strings.Contains(path, ".claude/plans/") || !strings.HasSuffix(path, ".md") {
		return
	}
	t.env.Store.Set(statestore.KeyActivePlan, path+"\n")
}
