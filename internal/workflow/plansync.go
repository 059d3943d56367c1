package workflow

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/meridian-hooks/meridian/internal/hook"
	"github.com/meridian-hooks/meridian/internal/statestore"
)

// PlanSync keeps the plan file following the host's session slug. When the
// slug changes (a resumed or continued session), the previous plan content
// is carried over to the new plan path.
type PlanSync struct {
	env *Env
}

// NewPlanSync creates the plan-file sync.
func NewPlanSync(env *Env) *PlanSync {
	return &PlanSync{env: env}
}

// PlanPath is where the host keeps the plan for slug.
func (p *PlanSync) PlanPath(slug string) string {
	return filepath.Join(p.env.HomeDir, ".claude", "plans", slug+".md")
}

// Sync handles a PreToolUse event.
func (p *PlanSync) Sync(ev *hook.Event) hook.Decision {
	if ev.TranscriptPath == "" {
		return hook.Allowed()
	}
	slug, ok, err := p.env.Transcripts.LastUserSlug(ev.TranscriptPath)
	if err != nil || !ok {
		return hook.Allowed()
	}
	current := p.PlanPath(slug)
	store := p.env.Store

	raw, tracked := store.Get(statestore.KeyCurrentPlanAuto)
	previous := strings.TrimSpace(raw)
	if !tracked || previous == "" {
		store.Set(statestore.KeyCurrentPlanAuto, current+"\n")
		return hook.Allowed()
	}
	if previous == current {
		return hook.Allowed()
	}

	decision := hook.Allowed()
	if copied, err := p.copyPlan(previous, current); err != nil {
		p.env.Logger.Warn("plan sync failed", "from", previous, "to", current, "error", err)
	} else if copied {
		p.env.Logger.Info("plan synced", "from", previous, "to", current)
		decision = hook.Advise(fmt.Sprintf("[SYSTEM]: Plan file synced from previous session. Your plan is at: %s", current))
	}
	store.Set(statestore.KeyCurrentPlanAuto, current+"\n")
	return decision
}

// copyPlan copies from to to. It reports false when from does not exist.
func (p *PlanSync) copyPlan(from, to string) (bool, error) {
	fs := p.env.Fs
	exists, err := afero.Exists(fs, from)
	if err != nil || !exists {
		return false, err
	}
	content, err := afero.ReadFile(fs, from)
	if err != nil {
		return false, err
	}
	if err := fs.MkdirAll(filepath.Dir(to), 0o755); err != nil {
		return false, err
	}
	if err := afero.WriteFile(fs, to, content, 0o644); err != nil {
		return false, err
	}
	return true, nil
}
