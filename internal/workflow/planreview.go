package workflow

import (
	"fmt"
	"strings"

	"github.com/meridian-hooks/meridian/internal/hook"
	"github.com/meridian-hooks/meridian/internal/statestore"
)

// RequiredReviewScore is the plan-reviewer score a plan must reach.
const RequiredReviewScore = 9

// PlanReview blocks the first exit from plan mode until the plan has been
// reviewed. It is one-shot: the second exit attempt is trusted.
type PlanReview struct {
	env     *Env
	counter *Counter
}

// NewPlanReview creates the plan-review gate.
func NewPlanReview(env *Env, counter *Counter) *PlanReview {
	return &PlanReview{env: env, counter: counter}
}

// CheckExit decides an ExitPlanMode attempt.
func (g *PlanReview) CheckExit() hook.Decision {
	cfg := g.env.Config
	if !cfg.PlanReviewEnabled {
		return hook.Allowed()
	}
	if n := g.counter.Count(ScopePlan); n < cfg.PlanReviewMinActions {
		g.env.Logger.Debug("plan review skipped for small plan",
			"plan_actions", n, "min_actions", cfg.PlanReviewMinActions)
		return hook.Allowed()
	}
	store := g.env.Store
	if store.Flag(statestore.KeyPlanReviewBlocked) == statestore.FlagPresent {
		return hook.Allowed()
	}

	store.RaiseFlag(statestore.KeyPlanReviewBlocked)
	return hook.Denied(g.reviewRequest())
}

// Approve runs after ExitPlanMode succeeded: the plan is approved, so the
// gate re-arms and the plan counter starts over.
func (g *PlanReview) Approve() hook.Decision {
	g.env.Store.ClearFlag(statestore.KeyPlanReviewBlocked)
	g.counter.Reset(ScopePlan)
	return hook.Advise(g.archiveInstructions())
}

// ReviewFiles lists the absolute paths the plan reviewer should read
// besides the plan itself.
func (g *PlanReview) ReviewFiles() []string {
	files := []string{
		g.env.projectPath(".meridian", "CODE_GUIDE.md"),
		g.env.projectPath(".meridian", "WORKSPACE.md"),
	}
	var addon string
	switch g.env.Config.ProjectType {
	case "hackathon":
		addon = "CODE_GUIDE_ADDON_HACKATHON.md"
	case "production":
		addon = "CODE_GUIDE_ADDON_PRODUCTION.md"
	}
	if addon != "" && g.env.fileExists(".meridian", addon) {
		files = append(files, g.env.projectPath(".meridian", addon))
	}
	return files
}

func (g *PlanReview) reviewRequest() string {
	score := RequiredReviewScore
	var b strings.Builder
	b.WriteString("Cannot exit plan mode without plan review.\n\n")
	b.WriteString("Please call the plan-reviewer agent with EXACTLY this prompt:\n\n")
	b.WriteString("---\n")
	b.WriteString("Plan: {PLAN_FILE_PATH}\n")
	fmt.Fprintf(&b, "Additional files to read:\n%s\n", strings.Join(g.ReviewFiles(), "\n"))
	b.WriteString("---\n\n")
	b.WriteString("Replace {PLAN_FILE_PATH} with the actual path to your plan file.\n\n")
	fmt.Fprintf(&b, "**ITERATION REQUIRED**: The plan must achieve a score of %d+ to proceed.\n", score)
	fmt.Fprintf(&b, "If the score is below %d, you must:\n", score)
	b.WriteString("1. Review each finding with the user using AskUserQuestion\n")
	b.WriteString("2. For findings the user wants to address: update the plan\n")
	b.WriteString("3. For findings the user declines: mark in plan as `[USER_DECLINED: <finding> - Reason: <reason>]`\n")
	b.WriteString("4. Call plan-reviewer again with the updated plan\n")
	fmt.Fprintf(&b, "5. Repeat until score reaches %d+\n\n", score)
	fmt.Fprintf(&b, "**IMPORTANT**: Even if score is %d+, you MUST address ALL findings before exiting:\n", score)
	b.WriteString("1. Present each finding to the user (grouped by severity)\n")
	b.WriteString("2. For each finding, either:\n")
	b.WriteString("   - Update the plan to address it, OR\n")
	b.WriteString("   - Get user confirmation to skip (mark as `[USER_DECLINED: <finding> - Reason: <reason>]`)\n")
	fmt.Fprintf(&b, "3. You do NOT need to re-run the reviewer after addressing findings if score was already %d+\n", score)
	return b.String()
}

func (g *PlanReview) archiveInstructions() string {
	var b strings.Builder
	b.WriteString("[SYSTEM]: Plan approved. **Archive the plan to the project folder:**\n\n")
	b.WriteString("1. **Copy the plan** using bash `cp` command:\n")
	b.WriteString("   ```bash\n")
	b.WriteString("   mkdir -p .meridian/plans && cp ~/.claude/plans/[name].md .meridian/plans/\n")
	b.WriteString("   ```\n")
	b.WriteString("   (Use `.meridian/subplans/` if this is a subplan for an epic phase)\n\n")
	b.WriteString("2. **Update active plan tracking** (use ABSOLUTE paths):\n")
	b.WriteString("   - Write the absolute plan path to `.meridian/.state/active-plan`\n")
	b.WriteString("   - If this is a subplan, also write the absolute path to `.meridian/.state/active-subplan`\n\n")

	cfg := g.env.Config
	if cfg.PebbleEnabled && cfg.PebbleScaffolderEnabled {
		b.WriteString("3. **Invoke the `pebble-scaffolder` agent** to document the work.\n\n")
		b.WriteString("**For epic plans** (new project/feature with phases):\n")
		b.WriteString("- Scope: `epic`\n")
		b.WriteString("- Creates: epic + phase tasks as children\n\n")
		b.WriteString("**For subplans** (planning a specific phase):\n")
		b.WriteString("- Scope: `task`\n")
		b.WriteString("- Parent: the existing phase task ID (e.g., `MERI-70jfoe`)\n")
		b.WriteString("- Creates: step tasks as children of the phase\n")
		b.WriteString("- Find the phase task ID with `pb list` or `pb search`\n\n")
		b.WriteString("**For standalone tasks** (bug fix, small feature):\n")
		b.WriteString("- Scope: `task`, `bug`, or `follow-up`\n")
		b.WriteString("- Parent: epic ID if part of larger work, otherwise none\n\n")
		b.WriteString("Skip scaffolder only for trivial 5-minute fixes.")
	}
	return strings.TrimRight(b.String(), "\n")
}
