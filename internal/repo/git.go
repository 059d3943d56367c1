// Package repo answers the few git questions the hooks ask: where the
// repository root is, and how many files are uncommitted.
package repo

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/meridian-hooks/meridian/internal/errors"
)

// StatusTimeout bounds `git status` so a slow repository cannot stall a hook.
const StatusTimeout = 10 * time.Second

// FindGitRoot walks up from startDir to the nearest directory containing
// .git, which may be a directory (normal repo) or a file (worktree).
func FindGitRoot(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", errors.NewGitError("resolve start directory", err).WithRepository(startDir)
	}
	for {
		if info, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
			if info.IsDir() || info.Mode().IsRegular() {
				return dir, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.NewGitError("find repository root", errors.ErrNotGitRepo).WithRepository(startDir)
		}
		dir = parent
	}
}

// CommandExecutor abstracts command execution for testability.
type CommandExecutor interface {
	// Output runs a command and returns its standard output.
	Output(ctx context.Context, dir string, name string, args ...string) ([]byte, error)
}

// CLICommandExecutor executes commands using os/exec.
type CLICommandExecutor struct{}

// Output runs name in dir until it exits or ctx is done.
func (CLICommandExecutor) Output(ctx context.Context, dir string, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	return cmd.Output()
}

// Git runs read-only git queries against one working tree.
type Git struct {
	dir      string
	executor CommandExecutor
	timeout  time.Duration
}

// New creates a Git for dir using the real git binary.
func New(dir string) *Git {
	return NewWithExecutor(dir, CLICommandExecutor{})
}

// NewWithExecutor creates a Git with a custom executor.
// This is primarily useful for testing.
func NewWithExecutor(dir string, executor CommandExecutor) *Git {
	return &Git{dir: dir, executor: executor, timeout: StatusTimeout}
}

// UncommittedFiles returns the number of entries in `git status --porcelain`.
func (g *Git) UncommittedFiles(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	out, err := g.executor.Output(ctx, g.dir, "git", "status", "--porcelain")
	if err != nil {
		gitErr := errors.NewGitError("git status failed", err).WithRepository(g.dir)
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			gitErr = gitErr.WithGitOutput(strings.TrimSpace(string(exitErr.Stderr)))
		}
		return 0, gitErr
	}

	count := 0
	for _, line := range strings.Split(string(out), "\n") {
		if strings.TrimSpace(line) != "" {
			count++
		}
	}
	return count, nil
}
