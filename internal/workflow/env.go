// Package workflow holds the gates that decide, for each lifecycle event,
// whether the agent may proceed, must review its plan, must save its work,
// must keep iterating, or must acknowledge injected context.
//
// Gates never call each other. Everything they share lives in the state
// store and is re-read on every invocation.
package workflow

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/afero"

	"github.com/meridian-hooks/meridian/internal/config"
	"github.com/meridian-hooks/meridian/internal/logging"
	"github.com/meridian-hooks/meridian/internal/statestore"
	"github.com/meridian-hooks/meridian/internal/transcript"
)

// WorkingTree reports the state of the project's version control.
type WorkingTree interface {
	UncommittedFiles(ctx context.Context) (int, error)
}

// Env is everything a gate may read during one invocation.
type Env struct {
	Store      *statestore.Store
	Config     *config.Config
	Fs         afero.Fs
	ProjectDir string
	// HomeDir is where the host keeps ~/.claude/plans.
	HomeDir     string
	Transcripts *transcript.Reader
	// Tree is optional; without it the uncommitted-file line is omitted.
	Tree   WorkingTree
	Logger *logging.Logger
	Now    func() time.Time
}

// withDefaults fills the optional fields of e.
func (e *Env) withDefaults() *Env {
	out := *e
	if out.Fs == nil {
		out.Fs = afero.NewOsFs()
	}
	if out.Logger == nil {
		out.Logger = logging.NopLogger()
	}
	if out.Config == nil {
		out.Config = config.Default()
	}
	if out.Store == nil {
		out.Store = statestore.New(out.Fs, out.ProjectDir, out.Logger)
	}
	if out.Transcripts == nil {
		out.Transcripts = transcript.NewReader(out.Fs)
	}
	if out.Now == nil {
		out.Now = time.Now
	}
	if out.HomeDir == "" {
		out.HomeDir, _ = os.UserHomeDir()
	}
	return &out
}

// projectPath joins rel onto the project root.
func (e *Env) projectPath(rel ...string) string {
	return filepath.Join(append([]string{e.ProjectDir}, rel...)...)
}

// fileExists reports whether a project-relative file exists.
func (e *Env) fileExists(rel ...string) bool {
	ok, err := afero.Exists(e.Fs, e.projectPath(rel...))
	return err == nil && ok
}

// uncommitted returns the number of uncommitted files, or 0 when it cannot
// be determined.
func (e *Env) uncommitted(ctx context.Context) int {
	if e.Tree == nil {
		return 0
	}
	n, err := e.Tree.UncommittedFiles(ctx)
	if err != nil {
		e.Logger.LogError("git status failed", err)
		return 0
	}
	return n
}

// timestamp is the local minute-resolution time shown in prompts.
func (e *Env) timestamp() string {
	return e.Now().Format("2006-01-02 15:04")
}
