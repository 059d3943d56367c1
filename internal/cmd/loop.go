package cmd

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/meridian-hooks/meridian/internal/errors"
	"github.com/meridian-hooks/meridian/internal/loop"
	"github.com/meridian-hooks/meridian/internal/statestore"
)

var loopCmd = &cobra.Command{
	Use:   "loop",
	Short: "Manage the work-until loop",
	Long: `A work-until loop turns every stop into another iteration of the same task
until the agent outputs <complete>PHRASE</complete> or the iteration budget
runs out.`,
}

var loopStartCmd = &cobra.Command{
	Use:   "start <prompt>",
	Short: "Start a work-until loop",
	Long: `Start a work-until loop for the given task prompt.

Examples:
  # Run until the phrase is genuinely true, at most 20 iterations
  meridian loop start --completion-phrase "All tests pass" --max-iterations 20 "Fix the failing tests"

  # Run exactly 5 iterations
  meridian loop start --max-iterations 5 "Improve test coverage"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runLoopStart,
}

var loopCancelCmd = &cobra.Command{
	Use:   "cancel",
	Short: "Cancel the active work-until loop",
	Args:  cobra.NoArgs,
	RunE:  runLoopCancel,
}

var loopStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the active work-until loop",
	Args:  cobra.NoArgs,
	RunE:  runLoopStatus,
}

var (
	loopMaxIterations    int
	loopCompletionPhrase string
	loopForce            bool
)

func init() {
	rootCmd.AddCommand(loopCmd)
	loopCmd.AddCommand(loopStartCmd)
	loopCmd.AddCommand(loopCancelCmd)
	loopCmd.AddCommand(loopStatusCmd)

	loopStartCmd.Flags().IntVarP(&loopMaxIterations, "max-iterations", "m", 0, "Stop after this many iterations (0 for no limit)")
	loopStartCmd.Flags().StringVarP(&loopCompletionPhrase, "completion-phrase", "c", "", "Phrase that ends the loop when output inside <complete> tags")
	loopStartCmd.Flags().BoolVarP(&loopForce, "force", "f", false, "Replace a loop that is already active")
}

// loopStore opens the project state store on the real filesystem.
func loopStore() (*statestore.Store, error) {
	dir, err := resolveProject()
	if err != nil {
		return nil, err
	}
	return statestore.New(afero.NewOsFs(), dir, nil), nil
}

func runLoopStart(cmd *cobra.Command, args []string) error {
	store, err := loopStore()
	if err != nil {
		return err
	}
	state, err := startLoop(store, strings.Join(args, " "), loopMaxIterations, loopCompletionPhrase, loopForce, time.Now())
	if err != nil {
		return err
	}
	printLoop(cmd.OutOrStdout(), "Started work-until loop", state)
	return nil
}

// startLoop validates the request and writes a fresh loop record.
func startLoop(store *statestore.Store, prompt string, maxIterations int, phrase string, force bool, now time.Time) (loop.State, error) {
	if maxIterations < 0 {
		return loop.State{}, errors.NewValidationError("must be 0 (no limit) or greater").
			WithField("max-iterations").WithValue(maxIterations)
	}
	if strings.TrimSpace(prompt) == "" {
		return loop.State{}, errors.NewValidationError("task prompt is required").WithField("prompt")
	}
	if strings.Join(strings.Fields(phrase), " ") == loop.NoPhrase {
		return loop.State{}, errors.NewValidationError("reserved value, omit the flag for a loop without a phrase").
			WithField("completion-phrase").WithValue(phrase)
	}
	if current, ok := loop.Load(store); ok && !force {
		return loop.State{}, errors.NewLoopError("use --force to replace it or 'meridian loop cancel' to end it", errors.ErrLoopActive).
			WithIteration(current.Iteration)
	}

	state := loop.New(prompt, maxIterations, phrase, now)
	loop.Save(store, state)
	if _, ok := loop.Load(store); !ok {
		return loop.State{}, errors.NewStateError("write loop state", errors.ErrStateWrite).
			WithKey(statestore.KeyLoopState).WithPath(store.Files().Path(statestore.KeyLoopState))
	}
	return state, nil
}

func runLoopCancel(cmd *cobra.Command, args []string) error {
	store, err := loopStore()
	if err != nil {
		return err
	}
	state, ok := loop.Load(store)
	if !ok {
		return errors.NewLoopError("nothing to cancel", errors.ErrLoopInactive)
	}
	loop.Clear(store)
	fmt.Fprintf(cmd.OutOrStdout(), "Cancelled work-until loop at iteration %d\n", state.Iteration)
	return nil
}

func runLoopStatus(cmd *cobra.Command, args []string) error {
	store, err := loopStore()
	if err != nil {
		return err
	}
	state, ok := loop.Load(store)
	if !ok {
		fmt.Fprintln(cmd.OutOrStdout(), "No active work-until loop")
		return nil
	}
	printLoop(cmd.OutOrStdout(), "Active work-until loop", state)
	return nil
}

func printLoop(w io.Writer, title string, s loop.State) {
	fmt.Fprintln(w, title)
	if s.Bounded() {
		fmt.Fprintf(w, "  Iteration:         %d of %d (%d remaining)\n", s.Iteration, s.MaxIterations, s.Remaining())
	} else {
		fmt.Fprintf(w, "  Iteration:         %d (no limit)\n", s.Iteration)
	}
	if s.HasPhrase() {
		fmt.Fprintf(w, "  Completion phrase: <complete>%s</complete>\n", s.CompletionPhrase)
	} else {
		fmt.Fprintln(w, "  Completion phrase: none")
	}
	if !s.StartedAt.IsZero() {
		fmt.Fprintf(w, "  Started:           %s\n", s.StartedAt.Format(time.RFC3339))
	}
	fmt.Fprintf(w, "  Task:              %s\n", firstLine(s.Prompt))
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i] + " ..."
	}
	return s
}
