package workflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/meridian-hooks/meridian/internal/hook"
	"github.com/meridian-hooks/meridian/internal/loop"
)

// WorkUntil turns every stop into another iteration of the active loop
// until the completion phrase is produced or the budget runs out.
type WorkUntil struct {
	env     *Env
	counter *Counter
}

// NewWorkUntil creates the loop controller.
func NewWorkUntil(env *Env, counter *Counter) *WorkUntil {
	return &WorkUntil{env: env, counter: counter}
}

// Active reports whether a loop is running.
func (w *WorkUntil) Active() bool {
	_, ok := loop.Load(w.env.Store)
	return ok
}

// OnStop decides a Stop event while a loop is active. Without an active
// loop it allows.
func (w *WorkUntil) OnStop(ctx context.Context, ev *hook.Event) hook.Decision {
	store := w.env.Store
	logger := w.env.Logger.WithComponent("loop")

	state, ok := loop.Load(store)
	if !ok {
		return hook.Allowed()
	}

	if state.BudgetExhausted() {
		logger.Info("loop ended: iteration budget reached",
			"iteration", state.Iteration, "max_iterations", state.MaxIterations)
		w.finish()
		return hook.Allowed()
	}

	if state.HasPhrase() && w.completed(state, ev.TranscriptPath) {
		logger.Info("loop ended: completion phrase found",
			"iteration", state.Iteration, "completion_phrase", state.CompletionPhrase)
		w.finish()
		return hook.Allowed()
	}

	// The prompt describes the iteration just finished; the notice names
	// the one about to start.
	finished := state
	state.Advance()
	loop.Save(store, state)
	reason := w.iterationPrompt(ctx, finished)
	w.counter.Reset(ScopeGlobal)

	logger.Info("loop continued", "iteration", state.Iteration, "remaining", state.Remaining())
	return hook.Denied(reason).WithSystemMessage(iterationNotice(state))
}

func (w *WorkUntil) finish() {
	loop.Clear(w.env.Store)
	w.counter.Reset(ScopeGlobal)
}

func (w *WorkUntil) completed(state loop.State, transcriptPath string) bool {
	if transcriptPath == "" {
		return false
	}
	text, ok, err := w.env.Transcripts.LastAssistantText(transcriptPath)
	if err != nil {
		w.env.Logger.LogError("read last assistant output", err)
		return false
	}
	return ok && state.MatchesCompletion(text)
}

func (w *WorkUntil) iterationPrompt(ctx context.Context, state loop.State) string {
	var b strings.Builder

	fmt.Fprintf(&b, "**WORK-UNTIL LOOP**: Iteration %d", state.Iteration)
	if state.Bounded() {
		fmt.Fprintf(&b, " of %d", state.MaxIterations)
	}
	b.WriteString("\n\n")

	b.WriteString(stopChecklist(ctx, w.env))
	b.WriteString("\n\n---\n\n")
	b.WriteString("**LOOP STATUS**: You are in a work-until loop. After completing the above checks, continue working on your task.\n\n")

	if state.HasPhrase() {
		phrase := state.CompletionPhrase
		fmt.Fprintf(&b, "**TO EXIT LOOP**: Output `<complete>%s</complete>` when the statement \"%s\" is TRUE.\n", phrase, phrase)
		b.WriteString("- The phrase MUST be completely and genuinely true\n")
		b.WriteString("- Do NOT output a false statement to escape the loop\n")
		b.WriteString("- If you're stuck, keep trying: the loop continues until genuine completion\n\n")
		b.WriteString("**BEFORE OUTPUTTING COMPLETION PHRASE**: You MUST run Code Reviewer first.\n")
		b.WriteString("1. Run Code Reviewer agent\n")
		b.WriteString("2. If it returns ANY issues, fix them and re-run the reviewer\n")
		b.WriteString("3. Only when reviewer returns 0 issues can you output the completion phrase\n\n")
	} else {
		b.WriteString("**TO EXIT LOOP**: No completion phrase set. Loop will run until max iterations.\n\n")
	}

	if state.Bounded() {
		fmt.Fprintf(&b, "**ITERATIONS**: %d remaining before auto-stop.\n\n", state.Remaining())
	}

	if state.Prompt != "" {
		b.WriteString("---\n\n")
		b.WriteString("**YOUR TASK** (continue working on this):\n\n")
		b.WriteString(state.Prompt)
		b.WriteString("\n")
	}
	return b.String()
}

func iterationNotice(state loop.State) string {
	if state.HasPhrase() {
		return fmt.Sprintf("Work-until iteration %d | To complete: <complete>%s</complete> (only when TRUE)",
			state.Iteration, state.CompletionPhrase)
	}
	return fmt.Sprintf("Work-until iteration %d | No completion phrase, runs until max iterations", state.Iteration)
}
