package cmd

import (
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/meridian-hooks/meridian/internal/config"
	"github.com/meridian-hooks/meridian/internal/hook"
	"github.com/meridian-hooks/meridian/internal/repo"
)

var rootCmd = &cobra.Command{
	Use:   "meridian",
	Short: "Workflow gates for Claude Code hooks",
	Long: `Meridian decides, for each Claude Code lifecycle event, whether the agent
may stop, must review its plan, must save its work before compaction, must
continue a work-until loop, or must acknowledge injected project context.

Register "meridian hook" as the command for every hook event. State lives in
.meridian/.state/ under the project root and is shared by all invocations.`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringP("project", "p", "", "project directory (default: $CLAUDE_PROJECT_DIR, the git root, or the working directory)")
	_ = viper.BindPFlag("project", rootCmd.PersistentFlags().Lookup("project"))
}

func initConfig() {
	// Only process-wide settings live in the global viper. Project settings
	// are loaded per project by config.Load.
	viper.SetEnvPrefix(config.EnvPrefix)
	viper.AutomaticEnv()
}

// resolveProject returns the project directory for a management command.
func resolveProject() (string, error) {
	if dir := viper.GetString("project"); dir != "" {
		return dir, nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return hook.ResolveProjectDir(cwd, os.Getenv, repo.FindGitRoot)
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
