package logging

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/meridian-hooks/meridian/internal/errors"
)

// readEntries parses every JSON line of the hook log in dir.
func readEntries(t *testing.T, dir string) []map[string]any {
	t.Helper()

	f, err := os.Open(filepath.Join(dir, FileName))
	if err != nil {
		t.Fatalf("failed to open log: %v", err)
	}
	defer f.Close()

	var entries []map[string]any
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var entry map[string]any
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			t.Fatalf("invalid JSON line %q: %v", scanner.Text(), err)
		}
		entries = append(entries, entry)
	}
	return entries
}

func TestNewLogger(t *testing.T) {
	t.Run("creates hooks.log in directory", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), ".meridian")

		logger, err := NewLogger(dir, LevelDebug)
		if err != nil {
			t.Fatalf("NewLogger failed: %v", err)
		}
		defer logger.Close()

		if _, err := os.Stat(filepath.Join(dir, FileName)); err != nil {
			t.Errorf("log file was not created: %v", err)
		}
	})

	t.Run("writes to stderr when dir is empty", func(t *testing.T) {
		logger, err := NewLogger("", LevelInfo)
		if err != nil {
			t.Fatalf("NewLogger failed: %v", err)
		}
		if logger.out != nil {
			t.Error("expected no closer when writing to stderr")
		}
		if err := logger.Close(); err != nil {
			t.Errorf("Close() = %v", err)
		}
	})
}

func TestLogLevelFiltering(t *testing.T) {
	dir := t.TempDir()

	logger, err := NewLogger(dir, LevelWarn)
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}
	logger.Debug("dropped")
	logger.Info("dropped")
	logger.Warn("kept")
	logger.Error("kept")
	_ = logger.Close()

	entries := readEntries(t, dir)
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0]["level"] != "WARN" || entries[1]["level"] != "ERROR" {
		t.Errorf("unexpected levels: %v, %v", entries[0]["level"], entries[1]["level"])
	}
}

func TestContextPropagation(t *testing.T) {
	dir := t.TempDir()

	logger, err := NewLogger(dir, LevelDebug)
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}

	child := logger.
		WithInvocation("inv-1").
		WithSession("sess-1").
		WithEvent("PreToolUse").
		WithComponent("context-ack").
		With("tool", "Bash", 42, "ignored")
	child.Info("gate checked", "decision", "allow")
	logger.Info("parent line")
	_ = logger.Close()

	entries := readEntries(t, dir)
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}

	want := map[string]string{
		"invocation_id": "inv-1",
		"session_id":    "sess-1",
		"event":         "PreToolUse",
		"component":     "context-ack",
		"tool":          "Bash",
		"decision":      "allow",
	}
	for k, v := range want {
		if entries[0][k] != v {
			t.Errorf("entry[%q] = %v, want %q", k, entries[0][k], v)
		}
	}
	if _, ok := entries[1]["invocation_id"]; ok {
		t.Error("parent logger must not inherit child attributes")
	}
}

func TestLogError(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		level string
	}{
		{"missing state is debug", errors.NewStateError("read", errors.ErrStateNotFound), "DEBUG"},
		{"corrupt state is warn", errors.NewStateError("read", errors.ErrStateCorrupted), "WARN"},
		{"plain error is error", errors.New("boom"), "ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			logger, err := NewLogger(dir, LevelDebug)
			if err != nil {
				t.Fatalf("NewLogger failed: %v", err)
			}
			logger.LogError("failed", tt.err, "key", "action-counter")
			_ = logger.Close()

			entries := readEntries(t, dir)
			if len(entries) != 1 {
				t.Fatalf("expected 1 entry, got %d", len(entries))
			}
			if entries[0]["level"] != tt.level {
				t.Errorf("level = %v, want %s", entries[0]["level"], tt.level)
			}
			if entries[0]["error"] != tt.err.Error() {
				t.Errorf("error = %v, want %q", entries[0]["error"], tt.err.Error())
			}
		})
	}
}

func TestNopLogger(t *testing.T) {
	logger := NopLogger()
	logger.WithComponent("x").Error("discarded")
	if err := logger.Close(); err != nil {
		t.Errorf("Close() = %v", err)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"debug", LevelDebug},
		{"INFO", LevelInfo},
		{"warn", LevelWarn},
		{"warning", LevelWarn},
		{"Error", LevelError},
		{"verbose", LevelInfo},
		{"", LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseLevel(tt.in); got != tt.want {
				t.Errorf("ParseLevel(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestIsValidLevel(t *testing.T) {
	for _, level := range ValidLevels() {
		if !IsValidLevel(level) {
			t.Errorf("IsValidLevel(%q) = false", level)
		}
	}
	if IsValidLevel("trace") {
		t.Error("IsValidLevel(trace) = true")
	}
}

func TestCloseIdempotent(t *testing.T) {
	dir := t.TempDir()
	logger, err := NewLogger(dir, LevelInfo)
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}
	if err := logger.Close(); err != nil {
		t.Fatalf("first Close() = %v", err)
	}
	if err := logger.Close(); err != nil {
		t.Errorf("second Close() = %v", err)
	}
}

func TestConcurrentWrites(t *testing.T) {
	dir := t.TempDir()
	logger, err := NewLogger(dir, LevelInfo)
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				logger.WithComponent("worker").Info("line", "n", n, "j", j)
			}
		}(i)
	}
	wg.Wait()
	_ = logger.Close()

	if got := len(readEntries(t, dir)); got != 200 {
		t.Errorf("expected 200 entries, got %d", got)
	}
}
