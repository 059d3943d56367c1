package logging

import (
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRotatingWriter_Creates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", FileName)

	rw, err := NewRotatingWriter(path, DefaultRotationConfig())
	if err != nil {
		t.Fatalf("NewRotatingWriter failed: %v", err)
	}
	defer func() { _ = rw.Close() }()

	if _, err := os.Stat(path); err != nil {
		t.Errorf("log file was not created: %v", err)
	}
	if rw.Path() != path {
		t.Errorf("Path() = %q, want %q", rw.Path(), path)
	}
}

func TestRotatingWriter_TracksExistingSize(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	if err := os.WriteFile(path, []byte("0123456789"), 0644); err != nil {
		t.Fatal(err)
	}

	rw, err := NewRotatingWriter(path, DefaultRotationConfig())
	if err != nil {
		t.Fatalf("NewRotatingWriter failed: %v", err)
	}
	defer func() { _ = rw.Close() }()

	if rw.Size() != 10 {
		t.Errorf("Size() = %d, want 10", rw.Size())
	}
	if _, err := rw.Write([]byte("abc")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if rw.Size() != 13 {
		t.Errorf("Size() = %d, want 13", rw.Size())
	}
}

// writeMB writes mb megabytes of 1KiB lines, each starting with marker.
func writeMB(t *testing.T, rw *RotatingWriter, mb int, marker string) {
	t.Helper()
	line := []byte(marker + strings.Repeat("x", 1023-len(marker)) + "\n")
	for i := 0; i < mb*1024; i++ {
		if _, err := rw.Write(line); err != nil {
			t.Fatalf("Write failed: %v", err)
		}
	}
}

func TestRotatingWriter_Rotation(t *testing.T) {
	tests := []struct {
		name       string
		maxBackups int
		rounds     int
		wantFiles  []string
		absent     []string
	}{
		{
			name:       "keeps configured backups",
			maxBackups: 2,
			rounds:     4,
			wantFiles:  []string{FileName, FileName + ".1", FileName + ".2"},
			absent:     []string{FileName + ".3"},
		},
		{
			name:       "no backups truncates",
			maxBackups: 0,
			rounds:     3,
			wantFiles:  []string{FileName},
			absent:     []string{FileName + ".1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			path := filepath.Join(dir, FileName)
			rw, err := NewRotatingWriter(path, RotationConfig{MaxSizeMB: 1, MaxBackups: tt.maxBackups})
			if err != nil {
				t.Fatalf("NewRotatingWriter failed: %v", err)
			}
			for i := 0; i < tt.rounds; i++ {
				writeMB(t, rw, 1, string(rune('a'+i)))
			}
			_ = rw.Close()

			for _, name := range tt.wantFiles {
				if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
					t.Errorf("expected %s to exist: %v", name, err)
				}
			}
			for _, name := range tt.absent {
				if _, err := os.Stat(filepath.Join(dir, name)); !os.IsNotExist(err) {
					t.Errorf("expected %s to be absent", name)
				}
			}
			info, err := os.Stat(path)
			if err != nil {
				t.Fatal(err)
			}
			if info.Size() > 1024*1024 {
				t.Errorf("live file is %d bytes, want at most 1MB", info.Size())
			}
		})
	}
}

func TestRotatingWriter_Compression(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, FileName)
	rw, err := NewRotatingWriter(path, RotationConfig{MaxSizeMB: 1, MaxBackups: 1, Compress: true})
	if err != nil {
		t.Fatalf("NewRotatingWriter failed: %v", err)
	}
	writeMB(t, rw, 1, "first")
	writeMB(t, rw, 1, "second")
	_ = rw.Close()

	if _, err := os.Stat(path + ".1"); !os.IsNotExist(err) {
		t.Error("uncompressed backup should have been removed")
	}

	f, err := os.Open(path + ".1.gz")
	if err != nil {
		t.Fatalf("expected compressed backup: %v", err)
	}
	defer f.Close()
	zr, err := gzip.NewReader(f)
	if err != nil {
		t.Fatalf("gzip.NewReader failed: %v", err)
	}
	data, err := io.ReadAll(zr)
	if err != nil {
		t.Fatalf("read gzip failed: %v", err)
	}
	if !strings.HasPrefix(string(data), "first") {
		t.Errorf("backup should hold the first round, got prefix %q", string(data[:5]))
	}
}

func TestRotatingWriter_DisabledRotation(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, FileName)
	rw, err := NewRotatingWriter(path, RotationConfig{})
	if err != nil {
		t.Fatalf("NewRotatingWriter failed: %v", err)
	}
	writeMB(t, rw, 2, "z")
	_ = rw.Close()

	if _, err := os.Stat(path + ".1"); !os.IsNotExist(err) {
		t.Error("no rotation expected when MaxSizeMB is 0")
	}
}

func TestRotatingWriter_WriteAfterClose(t *testing.T) {
	rw, err := NewRotatingWriter(filepath.Join(t.TempDir(), FileName), DefaultRotationConfig())
	if err != nil {
		t.Fatalf("NewRotatingWriter failed: %v", err)
	}
	if err := rw.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if _, err := rw.Write([]byte("late")); err == nil {
		t.Error("expected error writing to a closed writer")
	}
	if err := rw.Close(); err != nil {
		t.Errorf("second Close() = %v", err)
	}
}

func TestNewLoggerWithRotation(t *testing.T) {
	dir := t.TempDir()
	logger, err := NewLoggerWithRotation(dir, LevelDebug, RotationConfig{MaxSizeMB: 1, MaxBackups: 1})
	if err != nil {
		t.Fatalf("NewLoggerWithRotation failed: %v", err)
	}
	logger.Info("rotated logger", "key", "value")
	_ = logger.Close()

	entries := readEntries(t, dir)
	if len(entries) != 1 || entries[0]["key"] != "value" {
		t.Errorf("unexpected entries: %v", entries)
	}
}

func TestDefaultRotationConfig(t *testing.T) {
	cfg := DefaultRotationConfig()
	if cfg.MaxSizeMB != 5 || cfg.MaxBackups != 2 || cfg.Compress {
		t.Errorf("DefaultRotationConfig() = %+v", cfg)
	}
}
