package workflow

import (
	"strings"

	"github.com/meridian-hooks/meridian/internal/hook"
	"github.com/meridian-hooks/meridian/internal/statestore"
)

// ContextAck blocks the first tool call of a session until the agent has
// acknowledged the context injected at session start.
type ContextAck struct {
	env *Env
}

// NewContextAck creates the acknowledgment gate.
func NewContextAck(env *Env) *ContextAck {
	return &ContextAck{env: env}
}

// Arm makes the next tool call ask for acknowledgment.
func (g *ContextAck) Arm() {
	g.env.Store.RaiseFlag(statestore.KeyContextAck)
}

// Check decides a PreToolUse event. It denies exactly once per Arm.
func (g *ContextAck) Check() hook.Decision {
	store := g.env.Store
	if store.Flag(statestore.KeyContextAck) == statestore.FlagAbsent {
		return hook.Allowed()
	}
	store.ClearFlag(statestore.KeyContextAck)
	return hook.Denied(g.request())
}

func (g *ContextAck) request() string {
	var b strings.Builder
	b.WriteString("**CONTEXT ACKNOWLEDGMENT REQUIRED**\n\n")
	b.WriteString("Project context has been injected into this session. ")
	b.WriteString("Before using any tools, please acknowledge that you have read and understood ")
	b.WriteString("the injected context: workspace, active plans, CODE_GUIDE, and operating manual.")
	if g.env.fileExists(".meridian", "api-docs", "INDEX.md") {
		b.WriteString(" Check api-docs/INDEX.md before using external APIs.")
	}
	if g.env.Config.PebbleEnabled {
		b.WriteString(" Pebble is enabled: check project state.")
	}
	b.WriteString("\n\nBriefly summarize what you understand about the current project state, ")
	b.WriteString("then ask the user what they'd like to work on.\n\n")
	b.WriteString("**IMPORTANT**: After acknowledging, you MUST retry the same action that was just blocked. ")
	b.WriteString("Do not skip it or move on to something else.")
	return b.String()
}
