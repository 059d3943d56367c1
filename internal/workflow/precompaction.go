package workflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/gobwas/glob"

	"github.com/meridian-hooks/meridian/internal/hook"
	"github.com/meridian-hooks/meridian/internal/statestore"
)

// SaveLocations are the paths the agent writes to while preserving
// context. Edits there are never blocked by the pre-compaction gate.
var SaveLocations = []string{
	"**/.meridian/**",
	"**/.claude/**",
}

// PreCompaction asks the agent to save its work once the conversation gets
// close to the host's compaction point. It fires at most once until
// re-armed by a completed compaction.
type PreCompaction struct {
	env   *Env
	saves []glob.Glob
}

// NewPreCompaction creates the pre-compaction gate.
func NewPreCompaction(env *Env) *PreCompaction {
	g := &PreCompaction{env: env}
	for _, pattern := range SaveLocations {
		compiled, err := glob.Compile(pattern, '/')
		if err != nil {
			env.Logger.Warn("invalid save location pattern", "pattern", pattern, "error", err)
			continue
		}
		g.saves = append(g.saves, compiled)
	}
	return g
}

// Check decides a PreToolUse event.
func (g *PreCompaction) Check(ctx context.Context, ev *hook.Event) hook.Decision {
	cfg := g.env.Config
	if !cfg.PreCompactionSyncEnabled {
		return hook.Allowed()
	}
	store := g.env.Store
	if store.Flag(statestore.KeyPreCompaction) == statestore.FlagPresent {
		return hook.Allowed()
	}

	total := g.contextTokens(ev.TranscriptPath)
	if total < int64(cfg.PreCompactionSyncThreshold) {
		return hook.Allowed()
	}
	if g.isSave(ev) {
		return hook.Allowed()
	}

	store.RaiseFlag(statestore.KeyPreCompaction)
	return hook.Denied(g.saveRequest(ctx, total))
}

// Rearm lets the gate fire again. Called once compaction has happened.
func (g *PreCompaction) Rearm() {
	g.env.Store.ClearFlag(statestore.KeyPreCompaction)
}

// contextTokens reads the latest usage from the transcript and logs the
// calculation. Unreadable transcripts count as 0.
func (g *PreCompaction) contextTokens(path string) int64 {
	threshold := g.env.Config.PreCompactionSyncThreshold
	logger := g.env.Logger

	usage, ok, err := g.env.Transcripts.LatestUsage(path)
	switch {
	case err != nil:
		logger.LogError("token calculation failed", err,
			"request_id", "N/A", "threshold", threshold, "triggered", false)
		return 0
	case !ok:
		logger.Info("token calculation found no usage",
			"request_id", "N/A", "threshold", threshold, "triggered", false)
		return 0
	}

	total := usage.Total()
	logger.Info("token calculation",
		"request_id", usage.RequestID,
		"input_tokens", usage.InputTokens,
		"cache_creation_input_tokens", usage.CacheCreationTokens,
		"cache_read_input_tokens", usage.CacheReadTokens,
		"output_tokens", usage.OutputTokens,
		"total_calculated", total,
		"threshold", threshold,
		"triggered", total >= int64(threshold),
	)
	return total
}

// isSave reports whether ev writes into a save location.
func (g *PreCompaction) isSave(ev *hook.Event) bool {
	if ev.ToolName != "Write" && ev.ToolName != "Edit" {
		return false
	}
	path := ev.FilePath(g.env.ProjectDir)
	if path == "" {
		return false
	}
	for _, pattern := range g.saves {
		if pattern.Match(path) {
			return true
		}
	}
	return false
}

func (g *PreCompaction) saveRequest(ctx context.Context, total int64) string {
	cfg := g.env.Config
	lines := []string{
		fmt.Sprintf("**CONTEXT PRESERVATION** (Tokens: %s / %s) at %s\n",
			humanize.Comma(total), humanize.Comma(int64(cfg.PreCompactionSyncThreshold)), g.env.timestamp()),
		"Conversation approaching compaction. Save your work now.\n",
	}
	if CurrentMode(g.env.Store) == ModePlan {
		lines = append(lines, "**Plan mode**: Update plan's Verbatim Requirements section with user's "+
			"exact words and all AskUserQuestion exchanges.\n")
	}
	lines = append(lines,
		"**Checklist:**",
		"- Update your workspace (`.meridian/WORKSPACE.md`) with current state and next steps",
	)
	if cfg.PebbleEnabled {
		lines = append(lines, "- Create Pebble issues for any untracked work")
	}
	if n := g.env.uncommitted(ctx); n > 0 {
		lines = append(lines, commitLine(n))
	}
	lines = append(lines, "")
	if cfg.AutoCompactOff {
		lines = append(lines, "**Then stop**: Write `continue` to `.meridian/.state/restart-signal` and stop immediately.")
	} else {
		lines = append(lines, "Then continue your work.")
	}
	return strings.Join(lines, "\n")
}
