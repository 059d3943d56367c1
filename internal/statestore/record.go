package statestore

import (
	"strings"
)

// RecordSeparator is the line that ends a record header.
const RecordSeparator = "---"

// Field is one `name: value` header line.
type Field struct {
	Name  string
	Value string
}

// Record is a header of ordered fields followed by a free-text body.
//
//	active: true
//	iteration: 2
//	---
//	body text
type Record struct {
	Fields []Field
	Body   string
}

// Get returns the value of the first field called name.
func (r Record) Get(name string) (string, bool) {
	for _, f := range r.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return "", false
}

// Set replaces the value of name in place, or appends the field.
func (r *Record) Set(name, value string) {
	for i := range r.Fields {
		if r.Fields[i].Name == name {
			r.Fields[i].Value = value
			return
		}
	}
	r.Fields = append(r.Fields, Field{Name: name, Value: value})
}

// ParseRecord splits data on the first line that is exactly "---". Header
// lines without a colon are ignored. Values are trimmed and lose one
// surrounding pair of double quotes. Without a separator the whole input
// is header.
func ParseRecord(data string) Record {
	var rec Record

	lines := strings.Split(data, "\n")
	headerEnd := len(lines)
	for i, line := range lines {
		if strings.TrimRight(line, "\r") == RecordSeparator {
			headerEnd = i
			break
		}
	}

	for _, line := range lines[:headerEnd] {
		name, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		rec.Fields = append(rec.Fields, Field{Name: name, Value: unquote(strings.TrimSpace(value))})
	}

	if headerEnd < len(lines) {
		rec.Body = strings.TrimSpace(strings.Join(lines[headerEnd+1:], "\n"))
	}
	return rec
}

func unquote(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}

// String renders the record in the format ParseRecord reads. Values that
// would not survive a round trip unquoted are written in double quotes.
func (r Record) String() string {
	var b strings.Builder
	for _, f := range r.Fields {
		b.WriteString(f.Name)
		b.WriteString(": ")
		b.WriteString(quoteIfNeeded(f.Value))
		b.WriteByte('\n')
	}
	b.WriteString(RecordSeparator)
	b.WriteByte('\n')
	if r.Body != "" {
		b.WriteString(r.Body)
		b.WriteByte('\n')
	}
	return b.String()
}

func quoteIfNeeded(v string) string {
	if v != strings.TrimSpace(v) || (len(v) >= 2 && v[0] == '"' && v[len(v)-1] == '"') {
		return `"` + v + `"`
	}
	return v
}
