// Package loop holds the work-until loop record: a task prompt that is
// repeated on every stop until a completion phrase is produced or the
// iteration budget runs out.
package loop

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/meridian-hooks/meridian/internal/statestore"
)

// Record field names.
const (
	fieldActive           = "active"
	fieldIteration        = "iteration"
	fieldMaxIterations    = "max_iterations"
	fieldCompletionPhrase = "completion_phrase"
	fieldStartedAt        = "started_at"
)

// NoPhrase is the persisted completion_phrase of a loop without one.
const NoPhrase = "null"

// completeTag matches <complete>...</complete> spans, newlines included.
var completeTag = regexp.MustCompile(`(?s)<complete>(.*?)</complete>`)

// State is an active loop. An inactive loop has no State at all.
type State struct {
	// Iteration is the 1-indexed iteration in progress. It never decreases.
	Iteration int
	// MaxIterations is the iteration budget (0 = no limit).
	MaxIterations int
	// CompletionPhrase ends the loop when echoed inside <complete> tags.
	// Empty means the loop only ends on the budget.
	CompletionPhrase string
	StartedAt        time.Time
	// Prompt is the task restated to the agent on every iteration.
	Prompt string
}

// New creates the state for a freshly started loop.
func New(prompt string, maxIterations int, phrase string, now time.Time) State {
	return State{
		Iteration:        1,
		MaxIterations:    maxIterations,
		CompletionPhrase: normalize(phrase),
		StartedAt:        now.UTC(),
		Prompt:           strings.TrimSpace(prompt),
	}
}

// Bounded reports whether the loop has an iteration budget.
func (s State) Bounded() bool {
	return s.MaxIterations > 0
}

// BudgetExhausted reports whether the iteration budget has been used up.
func (s State) BudgetExhausted() bool {
	return s.Bounded() && s.Iteration >= s.MaxIterations
}

// Remaining returns the iterations left before the budget ends the loop.
// Unbounded loops return 0.
func (s State) Remaining() int {
	if !s.Bounded() {
		return 0
	}
	if r := s.MaxIterations - s.Iteration; r > 0 {
		return r
	}
	return 0
}

// HasPhrase reports whether a completion phrase is set.
func (s State) HasPhrase() bool {
	return s.CompletionPhrase != ""
}

// MatchesCompletion reports whether output contains the completion phrase
// inside <complete> tags. Comparison is exact after collapsing whitespace.
func (s State) MatchesCompletion(output string) bool {
	if !s.HasPhrase() || output == "" {
		return false
	}
	want := normalize(s.CompletionPhrase)
	for _, m := range completeTag.FindAllStringSubmatch(output, -1) {
		if normalize(m[1]) == want {
			return true
		}
	}
	return false
}

func normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Advance moves to the next iteration.
func (s *State) Advance() {
	s.Iteration++
}

// Record converts the state to its persisted form.
func (s State) Record() statestore.Record {
	var rec statestore.Record
	rec.Set(fieldActive, "true")
	rec.Set(fieldIteration, strconv.Itoa(s.Iteration))
	rec.Set(fieldMaxIterations, strconv.Itoa(s.MaxIterations))
	if s.HasPhrase() {
		rec.Set(fieldCompletionPhrase, s.CompletionPhrase)
	} else {
		rec.Set(fieldCompletionPhrase, NoPhrase)
	}
	rec.Set(fieldStartedAt, s.StartedAt.UTC().Format(time.RFC3339))
	rec.Body = s.Prompt
	return rec
}

// FromRecord reads a persisted loop. A record that is not marked active or
// whose counters do not parse is treated as no loop at all.
func FromRecord(rec statestore.Record) (State, bool) {
	if active, _ := rec.Get(fieldActive); !strings.EqualFold(active, "true") {
		return State{}, false
	}

	s := State{Iteration: 1, Prompt: rec.Body}

	if v, ok := rec.Get(fieldIteration); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return State{}, false
		}
		if n > 1 {
			s.Iteration = n
		}
	}
	if v, ok := rec.Get(fieldMaxIterations); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return State{}, false
		}
		if n > 0 {
			s.MaxIterations = n
		}
	}
	if v, _ := rec.Get(fieldCompletionPhrase); v != NoPhrase {
		s.CompletionPhrase = v
	}
	if v, ok := rec.Get(fieldStartedAt); ok {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			s.StartedAt = t
		}
	}
	return s, true
}

// Load returns the active loop, if any.
func Load(store *statestore.Store) (State, bool) {
	rec, ok := store.GetRecord(statestore.KeyLoopState)
	if !ok {
		return State{}, false
	}
	return FromRecord(rec)
}

// Save persists s as the active loop.
func Save(store *statestore.Store, s State) {
	store.SetRecord(statestore.KeyLoopState, s.Record())
}

// Clear ends the loop by deleting its record.
func Clear(store *statestore.Store) {
	store.Delete(statestore.KeyLoopState)
}
