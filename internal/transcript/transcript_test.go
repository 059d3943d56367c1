package transcript

import (
	"strings"
	"testing"

	"github.com/spf13/afero"

	"github.com/meridian-hooks/meridian/internal/errors"
)

const path = "/t/session.jsonl"

func newReader(t *testing.T, lines ...string) *Reader {
	t.Helper()
	fs := afero.NewMemMapFs()
	if err := afero.WriteFile(fs, path, []byte(strings.Join(lines, "\n")+"\n"), 0644); err != nil {
		t.Fatal(err)
	}
	return NewReader(fs)
}

func TestLatestUsage(t *testing.T) {
	r := newReader(t,
		`{"type":"assistant","requestId":"req_1","message":{"usage":{"input_tokens":10,"output_tokens":5}}}`,
		`not json at all`,
		`{"type":"assistant","requestId":"req_2","message":{"usage":{"input_tokens":200,"cache_creation_input_tokens":300,"cache_read_input_tokens":600,"output_tokens":100}}}`,
		`{"type":"user","message":{"content":"hi"}}`,
		``,
	)

	u, ok, err := r.LatestUsage(path)
	if err != nil || !ok {
		t.Fatalf("LatestUsage() = %v, %v, %v", u, ok, err)
	}
	if u.RequestID != "req_2" {
		t.Errorf("RequestID = %q, want req_2", u.RequestID)
	}
	if u.Total() != 1200 {
		t.Errorf("Total() = %d, want 1200", u.Total())
	}
}

func TestLatestUsage_None(t *testing.T) {
	r := newReader(t, `{"type":"user","message":{"content":"hi"}}`, `{"message":{"usage":{}}}`)
	_, ok, err := r.LatestUsage(path)
	if err != nil || ok {
		t.Errorf("LatestUsage() ok=%v err=%v, want no usage", ok, err)
	}
}

func TestLatestUsage_MissingFile(t *testing.T) {
	r := NewReader(afero.NewMemMapFs())
	if _, _, err := r.LatestUsage("/nope.jsonl"); err == nil {
		t.Error("expected error for missing transcript")
	}
	_, _, err := r.LatestUsage("")
	if !errors.Is(err, errors.ErrStateNotFound) {
		t.Errorf("empty path error = %v, want ErrStateNotFound", err)
	}
}

func TestLastAssistantText(t *testing.T) {
	tests := []struct {
		name   string
		lines  []string
		want   string
		wantOK bool
	}{
		{
			name: "joins text blocks of last assistant entry",
			lines: []string{
				`{"type":"assistant","message":{"content":[{"type":"text","text":"old"}]}}`,
				`{"type":"assistant","message":{"content":[{"type":"text","text":"first"},{"type":"tool_use","name":"Bash"},{"type":"text","text":"<complete>done</complete>"}]}}`,
				`{"type":"user","message":{"content":"ok"}}`,
			},
			want:   "first\n<complete>done</complete>",
			wantOK: true,
		},
		{
			name: "last assistant without text",
			lines: []string{
				`{"type":"assistant","message":{"content":[{"type":"text","text":"earlier"}]}}`,
				`{"type":"assistant","message":{"content":[{"type":"tool_use","name":"Bash"}]}}`,
			},
			wantOK: false,
		},
		{
			name:   "no assistant entries",
			lines:  []string{`{"type":"user"}`},
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok, err := newReader(t, tt.lines...).LastAssistantText(path)
			if err != nil {
				t.Fatalf("LastAssistantText() error = %v", err)
			}
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("LastAssistantText() = %q, %v; want %q, %v", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestCountToolUses(t *testing.T) {
	r := newReader(t,
		`{"type":"assistant","message":{"content":[{"type":"tool_use","name":"Write","input":{}},{"type":"tool_use","name":"Read"}]}}`,
		`{"type":"assistant","message":{"content":[{"type":"tool_use","name":"Write"}]}}`,
		`{"tool_name":"Write"}`,
		`{"type":"user","message":{"content":"Write something"}}`,
	)

	got, err := r.CountToolUses(path, "Write")
	if err != nil {
		t.Fatalf("CountToolUses() error = %v", err)
	}
	if got != 3 {
		t.Errorf("CountToolUses(Write) = %d, want 3", got)
	}
	if n, _ := r.CountToolUses(path, "Edit"); n != 0 {
		t.Errorf("CountToolUses(Edit) = %d, want 0", n)
	}
}

func TestLastUserSlug(t *testing.T) {
	r := newReader(t,
		`{"type":"user","slug":"old-slug"}`,
		`{"type":"assistant","slug":"not-a-user"}`,
		`{"type":"user","slug":"new-slug"}`,
		`{"type":"user"}`,
	)
	slug, ok, err := r.LastUserSlug(path)
	if err != nil || !ok || slug != "new-slug" {
		t.Errorf("LastUserSlug() = %q, %v, %v", slug, ok, err)
	}

	empty := newReader(t, `{"type":"user"}`)
	if _, ok, _ := empty.LastUserSlug(path); ok {
		t.Error("expected no slug")
	}
}
