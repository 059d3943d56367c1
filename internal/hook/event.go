// Package hook decodes lifecycle events sent by the host on stdin and
// encodes gate decisions in the JSON shape the host expects on stdout.
package hook

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"

	"github.com/tidwall/gjson"

	"github.com/meridian-hooks/meridian/internal/errors"
)

// Kind is a lifecycle event name.
type Kind string

const (
	SessionStart     Kind = "SessionStart"
	UserPromptSubmit Kind = "UserPromptSubmit"
	PreToolUse       Kind = "PreToolUse"
	PostToolUse      Kind = "PostToolUse"
	Stop             Kind = "Stop"
	SubagentStop     Kind = "SubagentStop"
	SessionEnd       Kind = "SessionEnd"
)

// Known reports whether k is an event meridian handles.
func (k Kind) Known() bool {
	switch k {
	case SessionStart, UserPromptSubmit, PreToolUse, PostToolUse, Stop, SubagentStop, SessionEnd:
		return true
	}
	return false
}

// SessionStart sources.
const (
	SourceStartup = "startup"
	SourceResume  = "resume"
	SourceClear   = "clear"
	SourceCompact = "compact"
)

// Event is one decoded hook invocation.
type Event struct {
	Name           Kind            `json:"hook_event_name"`
	SessionID      string          `json:"session_id"`
	TranscriptPath string          `json:"transcript_path"`
	Cwd            string          `json:"cwd"`
	PermissionMode string          `json:"permission_mode"`
	ToolName       string          `json:"tool_name"`
	ToolInput      json.RawMessage `json:"tool_input"`
	Source         string          `json:"source"`
	StopHookActive bool            `json:"stop_hook_active"`
	Prompt         string          `json:"prompt"`
}

// Decode reads a single event from r.
func Decode(r io.Reader) (*Event, error) {
	var ev Event
	if err := json.NewDecoder(r).Decode(&ev); err != nil {
		return nil, errors.NewEventError("decode event", errors.Join(errors.ErrMalformedEvent, err))
	}
	if ev.Name == "" {
		return nil, errors.NewEventError("missing hook_event_name", errors.ErrMalformedEvent)
	}
	return &ev, nil
}

// Input returns a string field of tool_input by gjson path, e.g. "file_path".
func (e *Event) Input(path string) string {
	if len(e.ToolInput) == 0 {
		return ""
	}
	return gjson.GetBytes(e.ToolInput, path).String()
}

// FilePath returns tool_input.file_path made absolute against projectDir.
func (e *Event) FilePath(projectDir string) string {
	p := e.Input("file_path")
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(projectDir, p)
}

// ProjectDirEnv names the variable the host sets to the project root.
const ProjectDirEnv = "CLAUDE_PROJECT_DIR"

// ResolveProjectDir picks the project root: $CLAUDE_PROJECT_DIR, then the
// git root above cwd, then cwd itself.
func ResolveProjectDir(cwd string, getenv func(string) string, gitRoot func(string) (string, error)) (string, error) {
	if dir := getenv(ProjectDirEnv); dir != "" {
		return dir, nil
	}
	if cwd == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", errors.NewEventError("resolve project directory", errors.ErrNoProjectDir)
		}
		cwd = wd
	}
	if gitRoot != nil {
		if root, err := gitRoot(cwd); err == nil {
			return root, nil
		}
	}
	return cwd, nil
}
