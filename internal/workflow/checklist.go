package workflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/meridian-hooks/meridian/internal/util"
)

// stopChecklist is the list of chores shown before the agent stops, shared
// by the pre-stop gate and every work-until iteration.
func stopChecklist(ctx context.Context, env *Env) string {
	cfg := env.Config
	lines := []string{
		fmt.Sprintf("**Before stopping** (%s):\n", env.timestamp()),
		"**Checklist:**",
	}
	if cfg.CodeReviewEnabled {
		lines = append(lines, "- Run **code-reviewer** and **code-health-reviewer** in parallel if you made significant code changes")
	}
	lines = append(lines, "- Update your workspace (`.meridian/WORKSPACE.md`) with current state")
	if cfg.PebbleEnabled {
		lines = append(lines, "- Close/update Pebble issues for completed work")
	}
	lines = append(lines,
		"- Run tests/lint/build if you made code changes",
		"- Consider updating CLAUDE.md if you made architectural changes",
	)
	if n := env.uncommitted(ctx); n > 0 {
		lines = append(lines, commitLine(n))
	}
	lines = append(lines, "", "Skip items you already did this session. Then continue with your stop.")
	return strings.Join(lines, "\n")
}

func commitLine(n int) string {
	return "- Commit " + util.Plural(n, "uncommitted file")
}
