package cmd

import (
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/meridian-hooks/meridian/internal/errors"
	"github.com/meridian-hooks/meridian/internal/statestore"
	"github.com/meridian-hooks/meridian/internal/watch"
)

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Inspect and reset hook state",
	Long: `Hook state is a set of small files under .meridian/.state/ holding flags,
counters, the active plan path and the work-until loop record.`,
}

var stateShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the current hook state",
	Args:  cobra.NoArgs,
	RunE:  runStateShow,
}

var stateResetCmd = &cobra.Command{
	Use:   "reset [key...]",
	Short: "Remove state keys",
	Long: `Remove the named state keys, or every state file with --all.

Examples:
  # Re-arm the pre-compaction gate
  meridian state reset pre-compaction-synced

  # Start from a clean slate
  meridian state reset --all`,
	RunE: runStateReset,
}

var stateWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch hook state change live",
	Args:  cobra.NoArgs,
	RunE:  runStateWatch,
}

var (
	stateShowAll  bool
	stateResetAll bool
)

func init() {
	rootCmd.AddCommand(stateCmd)
	stateCmd.AddCommand(stateShowCmd)
	stateCmd.AddCommand(stateResetCmd)
	stateCmd.AddCommand(stateWatchCmd)

	stateShowCmd.Flags().BoolVarP(&stateShowAll, "all", "a", false, "Include keys that are not set")
	stateResetCmd.Flags().BoolVar(&stateResetAll, "all", false, "Remove every state file")
}

func stateFiles() (*statestore.FileStore, error) {
	dir, err := resolveProject()
	if err != nil {
		return nil, err
	}
	return statestore.NewFileStore(afero.NewOsFs(), statestore.Dir(dir)), nil
}

func runStateShow(cmd *cobra.Command, args []string) error {
	files, err := stateFiles()
	if err != nil {
		return err
	}
	entries, err := statestore.Snapshot(files)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	opts := watch.Options{All: stateShowAll}
	if isTerminal(out) {
		opts.Styled = true
		if w, _, err := term.GetSize(int(out.(*os.File).Fd())); err == nil {
			opts.Width = w
		}
	}
	fmt.Fprint(out, watch.Render(entries, opts))
	return nil
}

func runStateReset(cmd *cobra.Command, args []string) error {
	if stateResetAll == (len(args) > 0) {
		return errors.NewValidationError("name keys to remove or pass --all, not both").WithField("keys")
	}

	files, err := stateFiles()
	if err != nil {
		return err
	}
	keys := args
	if stateResetAll {
		if keys, err = files.List(); err != nil {
			return err
		}
	}

	removed := 0
	for _, key := range keys {
		if key == "" || key == ".." || strings.ContainsAny(key, `/\`) {
			return errors.NewValidationError("not a state key").WithField("keys").WithValue(key)
		}
		ok, err := files.Exists(key)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintf(cmd.ErrOrStderr(), "%s: not set\n", key)
			continue
		}
		if err := files.Remove(key); err != nil {
			return err
		}
		removed++
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Removed %d state key(s)\n", removed)
	return nil
}

func runStateWatch(cmd *cobra.Command, args []string) error {
	files, err := stateFiles()
	if err != nil {
		return err
	}
	w, err := watch.NewWatcher(files.Dir(), nil)
	if err != nil {
		return err
	}
	w.Start()
	defer w.Stop()

	p := tea.NewProgram(watch.NewModel(files, w.Changes()), tea.WithAltScreen())
	_, err = p.Run()
	return err
}
