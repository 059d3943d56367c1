package workflow

import (
	"context"

	"github.com/meridian-hooks/meridian/internal/hook"
)

// StopGateNotice is the user-visible message when the checklist is shown.
const StopGateNotice = "[Meridian] Running pre-stop checklist."

// StopGate shows the pre-stop checklist once per stop after a
// non-trivial amount of work.
type StopGate struct {
	env     *Env
	counter *Counter
}

// NewStopGate creates the pre-stop gate.
func NewStopGate(env *Env, counter *Counter) *StopGate {
	return &StopGate{env: env, counter: counter}
}

// OnStop decides a Stop event when no loop is active.
func (g *StopGate) OnStop(ctx context.Context, ev *hook.Event) hook.Decision {
	// The host sets stop_hook_active when the agent is already stopping
	// because of this gate.
	if ev.StopHookActive {
		g.counter.Reset(ScopeGlobal)
		return hook.Allowed()
	}

	if threshold := g.env.Config.StopHookMinActions; threshold > 0 {
		if n := g.counter.Count(ScopeGlobal); n < threshold {
			g.env.Logger.Debug("stop checklist skipped for trivial task", "actions", n, "min_actions", threshold)
			g.counter.Reset(ScopeGlobal)
			return hook.Allowed()
		}
	}

	reason := stopChecklist(ctx, g.env)
	g.counter.Reset(ScopeGlobal)
	return hook.Denied(reason).WithSystemMessage(StopGateNotice)
}
