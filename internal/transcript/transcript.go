// Package transcript extracts the few facts the gates need from the host's
// JSONL conversation transcript. Lines that are not valid JSON are skipped.
package transcript

import (
	"bufio"
	"bytes"
	"strings"

	"github.com/spf13/afero"
	"github.com/tidwall/gjson"

	"github.com/meridian-hooks/meridian/internal/errors"
)

// maxLineSize bounds a single transcript line; tool results can be large.
const maxLineSize = 16 * 1024 * 1024

// Usage is the token accounting of one model response.
type Usage struct {
	RequestID           string
	InputTokens         int64
	CacheCreationTokens int64
	CacheReadTokens     int64
	OutputTokens        int64
}

// Total is the context size the usage implies.
func (u Usage) Total() int64 {
	return u.InputTokens + u.CacheCreationTokens + u.CacheReadTokens + u.OutputTokens
}

// Reader reads transcripts from a filesystem.
type Reader struct {
	fs afero.Fs
}

// NewReader creates a Reader over fs.
func NewReader(fs afero.Fs) *Reader {
	return &Reader{fs: fs}
}

// lines returns the non-blank, valid-JSON lines of the transcript at path.
func (r *Reader) lines(path string) ([][]byte, error) {
	if path == "" {
		return nil, errors.NewStateError("no transcript path", errors.ErrStateNotFound)
	}
	f, err := r.fs.Open(path)
	if err != nil {
		return nil, errors.NewStateError("open transcript", err).WithPath(path)
	}
	defer f.Close()

	var out [][]byte
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 || !gjson.ValidBytes(line) {
			continue
		}
		out = append(out, append([]byte(nil), line...))
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.NewStateError("read transcript", err).WithPath(path)
	}
	return out, nil
}

// LatestUsage returns the usage of the newest entry that carries
// message.usage. The bool is false when no entry does.
func (r *Reader) LatestUsage(path string) (Usage, bool, error) {
	lines, err := r.lines(path)
	if err != nil {
		return Usage{}, false, err
	}
	for i := len(lines) - 1; i >= 0; i-- {
		usage := gjson.GetBytes(lines[i], "message.usage")
		if !usage.IsObject() || len(usage.Map()) == 0 {
			continue
		}
		reqID := gjson.GetBytes(lines[i], "requestId").String()
		if reqID == "" {
			reqID = "unknown"
		}
		return Usage{
			RequestID:           reqID,
			InputTokens:         usage.Get("input_tokens").Int(),
			CacheCreationTokens: usage.Get("cache_creation_input_tokens").Int(),
			CacheReadTokens:     usage.Get("cache_read_input_tokens").Int(),
			OutputTokens:        usage.Get("output_tokens").Int(),
		}, true, nil
	}
	return Usage{}, false, nil
}

// LastAssistantText returns the text blocks of the last assistant entry
// joined with newlines. The bool is false when there is no assistant entry
// or it has no text.
func (r *Reader) LastAssistantText(path string) (string, bool, error) {
	lines, err := r.lines(path)
	if err != nil {
		return "", false, err
	}
	for i := len(lines) - 1; i >= 0; i-- {
		if gjson.GetBytes(lines[i], "type").String() != "assistant" {
			continue
		}
		var texts []string
		for _, block := range gjson.GetBytes(lines[i], "message.content").Array() {
			if block.Get("type").String() == "text" {
				texts = append(texts, block.Get("text").String())
			}
		}
		if len(texts) == 0 {
			return "", false, nil
		}
		return strings.Join(texts, "\n"), true, nil
	}
	return "", false, nil
}

// CountToolUses counts invocations of tool, either as assistant tool_use
// blocks or as entries recording tool_name.
func (r *Reader) CountToolUses(path, tool string) (int, error) {
	lines, err := r.lines(path)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, line := range lines {
		if gjson.GetBytes(line, "tool_name").String() == tool {
			count++
		}
		for _, block := range gjson.GetBytes(line, "message.content").Array() {
			if block.Get("type").String() == "tool_use" && block.Get("name").String() == tool {
				count++
			}
		}
	}
	return count, nil
}

// LastUserSlug returns the slug of the newest user entry that has one.
func (r *Reader) LastUserSlug(path string) (string, bool, error) {
	lines, err := r.lines(path)
	if err != nil {
		return "", false, err
	}
	for i := len(lines) - 1; i >= 0; i-- {
		if gjson.GetBytes(lines[i], "type").String() != "user" {
			continue
		}
		if slug := gjson.GetBytes(lines[i], "slug"); slug.Exists() && slug.String() != "" {
			return slug.String(), true, nil
		}
	}
	return "", false, nil
}
