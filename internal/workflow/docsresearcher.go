package workflow

import (
	"strings"

	"github.com/meridian-hooks/meridian/internal/hook"
	"github.com/meridian-hooks/meridian/internal/statestore"
)

// DocsResearcherAgent is the subagent type whose output is enforced.
const DocsResearcherAgent = "docs-researcher"

// DocsResearcher makes sure a docs-researcher subagent writes at least one
// file before it is allowed to finish.
type DocsResearcher struct {
	env *Env
}

// NewDocsResearcher creates the docs-researcher tracker and gate.
func NewDocsResearcher(env *Env) *DocsResearcher {
	return &DocsResearcher{env: env}
}

// Track raises the active flag when a Task spawns a docs-researcher.
func (d *DocsResearcher) Track(ev *hook.Event) {
	if ev.ToolName != "Task" {
		return
	}
	if strings.EqualFold(ev.Input("subagent_type"), DocsResearcherAgent) {
		d.env.Store.RaiseFlag(statestore.KeyDocsResearcher)
	}
}

// OnSubagentStop decides a SubagentStop event.
func (d *DocsResearcher) OnSubagentStop(ev *hook.Event) hook.Decision {
	store := d.env.Store
	if store.Flag(statestore.KeyDocsResearcher) == statestore.FlagAbsent {
		return hook.Allowed()
	}
	store.ClearFlag(statestore.KeyDocsResearcher)

	if !d.env.Config.DocsResearcherWriteRequired || ev.TranscriptPath == "" {
		return hook.Allowed()
	}
	writes, err := d.env.Transcripts.CountToolUses(ev.TranscriptPath, "Write")
	if err != nil {
		d.env.Logger.LogError("count docs-researcher writes", err)
		return hook.Allowed()
	}
	if writes > 0 {
		return hook.Allowed()
	}
	return hook.Denied(docsResearchRequest)
}

const docsResearchRequest = "**docs-researcher agent has not written any files.**\n\n" +
	"Your job is to create documentation in `.meridian/api-docs/`. " +
	"You MUST use Firecrawl to research and then Write to save your findings.\n\n" +
	"**Required actions:**\n" +
	"1. Use `firecrawl_search` or `firecrawl_scrape` to research the topic\n" +
	"2. Use the `Write` tool to save documentation to `.meridian/api-docs/{tool}.md`\n" +
	"3. Update `.meridian/api-docs/INDEX.md`\n\n" +
	"Do not stop until you have written at least one documentation file."
