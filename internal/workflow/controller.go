package workflow

import (
	"context"

	"github.com/meridian-hooks/meridian/internal/hook"
	"github.com/meridian-hooks/meridian/internal/statestore"
)

// Controller routes one lifecycle event to the gates registered for it and
// folds their answers into a single decision.
type Controller struct {
	env *Env

	counter    *Counter
	tracker    *Tracker
	review     *PlanReview
	compaction *PreCompaction
	loop       *WorkUntil
	ack        *ContextAck
	stopGate   *StopGate
	docs       *DocsResearcher
	session    *Session
	plans      *PlanTracker
	planSync   *PlanSync
}

// NewController wires every gate over env.
func NewController(env *Env) *Controller {
	env = env.withDefaults()
	counter := NewCounter(env.Store)
	compaction := NewPreCompaction(env)
	ack := NewContextAck(env)
	return &Controller{
		env:        env,
		counter:    counter,
		tracker:    NewTracker(env.Store, env.Config),
		review:     NewPlanReview(env, counter),
		compaction: compaction,
		loop:       NewWorkUntil(env, counter),
		ack:        ack,
		stopGate:   NewStopGate(env, counter),
		docs:       NewDocsResearcher(env),
		session:    NewSession(env, compaction, ack),
		plans:      NewPlanTracker(env),
		planSync:   NewPlanSync(env),
	}
}

// Handle decides ev. It never fails: anything that goes wrong inside a
// gate degrades to allow.
func (c *Controller) Handle(ctx context.Context, ev *hook.Event) hook.Decision {
	logger := c.env.Logger.WithEvent(string(ev.Name))
	if ev.SessionID != "" {
		logger = logger.WithSession(ev.SessionID)
	}

	var d hook.Decision
	switch ev.Name {
	case hook.SessionStart:
		d = c.session.Start(ev.Source)
	case hook.UserPromptSubmit:
		d = c.tracker.ObservePrompt(ev.PermissionMode)
		c.counter.RecordAction()
	case hook.PreToolUse:
		d = c.preToolUse(ctx, ev)
	case hook.PostToolUse:
		d = c.postToolUse(ev)
	case hook.Stop:
		d = c.stop(ctx, ev)
	case hook.SubagentStop:
		d = c.docs.OnSubagentStop(ev)
	case hook.SessionEnd:
		d = c.session.End()
	default:
		logger.Debug("ignoring unknown event")
		return hook.Allowed()
	}

	logger.Info("event handled",
		"tool", ev.ToolName,
		"verdict", d.Verdict.String(),
		"advisory", d.Context != "",
	)
	return d
}

// preToolUse runs the gates in order. The first deny short-circuits the
// rest so that later gates do not consume their one-shot flags.
func (c *Controller) preToolUse(ctx context.Context, ev *hook.Event) hook.Decision {
	gates := []func() hook.Decision{
		c.ack.Check,
		func() hook.Decision { return CheckTaskOutput(ev) },
		func() hook.Decision { return c.planSync.Sync(ev) },
		func() hook.Decision { return c.compaction.Check(ctx, ev) },
		func() hook.Decision {
			if ev.ToolName != ToolExitPlanMode {
				return hook.Allowed()
			}
			return c.review.CheckExit()
		},
	}

	d := hook.Allowed()
	for _, gate := range gates {
		d = d.Merge(gate())
		if d.IsDeny() {
			return d
		}
	}
	return d
}

func (c *Controller) postToolUse(ev *hook.Event) hook.Decision {
	d := c.tracker.ObserveTool(ev.ToolName)
	c.counter.RecordAction()
	if ev.ToolName == ToolExitPlanMode {
		d = d.Merge(c.review.Approve())
	}
	c.docs.Track(ev)
	c.plans.Track(ev)
	return d
}

func (c *Controller) stop(ctx context.Context, ev *hook.Event) hook.Decision {
	// A stop requested by the pre-compaction prompt must go through so the
	// user can restart with a fresh context.
	if c.env.Config.AutoCompactOff && c.env.Store.Flag(statestore.KeyPreCompaction) == statestore.FlagPresent {
		if ev.StopHookActive {
			c.counter.Reset(ScopeGlobal)
		}
		return hook.Allowed()
	}
	if c.loop.Active() {
		return c.loop.OnStop(ctx, ev)
	}
	return c.stopGate.OnStop(ctx, ev)
}
