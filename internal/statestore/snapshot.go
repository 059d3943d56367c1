package statestore

import (
	"fmt"
	"strings"
	"time"

	"github.com/meridian-hooks/meridian/internal/errors"
)

// Entry is one key as seen by the state inspection commands.
type Entry struct {
	Key     string
	Kind    Kind
	Present bool
	Value   string
	ModTime time.Time
}

// Snapshot reads every known key plus any unknown file in the state
// directory. Unlike Store it reports errors, since it backs commands run by
// a person.
func Snapshot(files *FileStore) ([]Entry, error) {
	listed, err := files.List()
	if err != nil {
		return nil, err
	}

	keys := KnownKeys()
	known := make(map[string]bool, len(keys))
	for _, k := range keys {
		known[k] = true
	}
	for _, k := range listed {
		if !known[k] {
			keys = append(keys, k)
		}
	}

	entries := make([]Entry, 0, len(keys))
	for _, key := range keys {
		entry := Entry{Key: key, Kind: KindOf(key)}

		data, err := files.Read(key)
		switch {
		case errors.Is(err, errors.ErrStateNotFound):
			entries = append(entries, entry)
			continue
		case err != nil:
			return nil, err
		}

		entry.Present = true
		entry.Value = describe(entry.Kind, string(data))
		if mt, err := files.ModTime(key); err == nil {
			entry.ModTime = mt
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// describe renders a value on one line according to its kind.
func describe(kind Kind, raw string) string {
	switch kind {
	case KindFlag:
		return FlagPresent.String()
	case KindRecord:
		rec := ParseRecord(raw)
		parts := make([]string, 0, len(rec.Fields)+1)
		for _, f := range rec.Fields {
			parts = append(parts, fmt.Sprintf("%s=%s", f.Name, f.Value))
		}
		if rec.Body != "" {
			parts = append(parts, fmt.Sprintf("body=%q", firstLine(rec.Body)))
		}
		return strings.Join(parts, " ")
	default:
		return firstLine(strings.TrimSpace(raw))
	}
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i] + " ..."
	}
	return s
}
