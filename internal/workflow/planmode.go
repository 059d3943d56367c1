package workflow

import (
	"strings"

	"github.com/meridian-hooks/meridian/internal/config"
	"github.com/meridian-hooks/meridian/internal/hook"
	"github.com/meridian-hooks/meridian/internal/statestore"
)

// Mode is the persisted plan-mode token.
type Mode string

const (
	ModePlan  Mode = "plan"
	ModeOther Mode = "other"
)

// Tool names the host reports for plan-mode transitions.
const (
	ToolEnterPlanMode = "EnterPlanMode"
	ToolExitPlanMode  = "ExitPlanMode"
)

// CurrentMode reads the stored mode. Anything but "plan" is ModeOther.
func CurrentMode(store *statestore.Store) Mode {
	raw, _ := store.Get(statestore.KeyPlanMode)
	if Mode(strings.TrimSpace(raw)) == ModePlan {
		return ModePlan
	}
	return ModeOther
}

// Tracker is the only writer of plan-mode-state.
type Tracker struct {
	store *statestore.Store
	cfg   *config.Config
}

// NewTracker creates a Tracker.
func NewTracker(store *statestore.Store, cfg *config.Config) *Tracker {
	return &Tracker{store: store, cfg: cfg}
}

// ObservePrompt records the permission mode of a submitted prompt and
// returns the planning reminder when it switches plan mode on.
func (t *Tracker) ObservePrompt(permissionMode string) hook.Decision {
	mode := ModeOther
	if permissionMode == string(ModePlan) {
		mode = ModePlan
	}

	previous := CurrentMode(t.store)
	t.save(mode)

	if mode == ModePlan && previous != ModePlan {
		return hook.Advise(t.reminder())
	}
	return hook.Allowed()
}

// ObserveTool records mode changes made through the plan-mode tools.
func (t *Tracker) ObserveTool(tool string) hook.Decision {
	switch tool {
	case ToolEnterPlanMode:
		t.save(ModePlan)
		return hook.Advise(t.reminder())
	case ToolExitPlanMode:
		t.save(ModeOther)
	}
	return hook.Allowed()
}

func (t *Tracker) save(mode Mode) {
	t.store.Set(statestore.KeyPlanMode, string(mode))
}

func (t *Tracker) reminder() string {
	msg := "[SYSTEM]: Plan mode activated. Use `/planning` skill for methodology. " +
		"Spawn Plan agents for concrete implementation details."
	if t.cfg.PebbleEnabled {
		msg += "\nPebble is enabled: proactively use it to track this work."
	}
	return msg
}
