package workflow

import (
	"context"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"

	"github.com/meridian-hooks/meridian/internal/config"
	"github.com/meridian-hooks/meridian/internal/hook"
	"github.com/meridian-hooks/meridian/internal/statestore"
)

const (
	testProjectDir = "/project"
	testHomeDir    = "/home/dev"
)

var testNow = time.Date(2026, 3, 14, 9, 26, 0, 0, time.UTC)

// fakeTree is a WorkingTree with a fixed answer.
type fakeTree struct {
	files int
	err   error
	calls int
}

func (f *fakeTree) UncommittedFiles(ctx context.Context) (int, error) {
	f.calls++
	return f.files, f.err
}

// newTestEnv returns an Env over an in-memory filesystem. mutate, when
// non-nil, adjusts the default config.
func newTestEnv(t *testing.T, mutate func(*config.Config)) *Env {
	t.Helper()
	cfg := config.Default()
	if mutate != nil {
		mutate(cfg)
	}
	env := &Env{
		Config:     cfg,
		Fs:         afero.NewMemMapFs(),
		ProjectDir: testProjectDir,
		HomeDir:    testHomeDir,
		Tree:       &fakeTree{},
		Now:        func() time.Time { return testNow },
	}
	return env.withDefaults()
}

// writeFile creates path on the env's filesystem.
func writeFile(t *testing.T, env *Env, path, content string) {
	t.Helper()
	if err := env.Fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}
	if err := afero.WriteFile(env.Fs, path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
}

// writeTranscript writes JSONL lines and returns the transcript path.
func writeTranscript(t *testing.T, env *Env, lines ...string) string {
	t.Helper()
	path := filepath.Join(testHomeDir, ".claude", "projects", "session.jsonl")
	writeFile(t, env, path, strings.Join(lines, "\n")+"\n")
	return path
}

func usageLine(requestID string, input, cacheCreate, cacheRead, output int) string {
	return `{"type":"assistant","requestId":"` + requestID + `","message":{"usage":{` +
		`"input_tokens":` + strconv.Itoa(input) +
		`,"cache_creation_input_tokens":` + strconv.Itoa(cacheCreate) +
		`,"cache_read_input_tokens":` + strconv.Itoa(cacheRead) +
		`,"output_tokens":` + strconv.Itoa(output) + `}}}`
}

func assistantText(text string) string {
	return `{"type":"assistant","message":{"content":[{"type":"text","text":` + quote(text) + `}]}}`
}

func quote(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`, "\t", `\t`)
	return `"` + r.Replace(s) + `"`
}

func flagOf(env *Env, key string) statestore.FlagState {
	return env.Store.Flag(key)
}

func requireDeny(t *testing.T, d hook.Decision) {
	t.Helper()
	if !d.IsDeny() {
		t.Fatalf("decision = %v, want deny", d.Verdict)
	}
}

func requireAllow(t *testing.T, d hook.Decision) {
	t.Helper()
	if d.IsDeny() {
		t.Fatalf("decision = deny (%q), want allow", d.Reason)
	}
}
