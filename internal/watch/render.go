package watch

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/meridian-hooks/meridian/internal/statestore"
	"github.com/meridian-hooks/meridian/internal/util"
)

var (
	primaryColor = lipgloss.Color("#A78BFA")
	okColor      = lipgloss.Color("#10B981")
	warnColor    = lipgloss.Color("#F59E0B")
	mutedColor   = lipgloss.Color("#9CA3AF")

	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(primaryColor)
	keyStyle     = lipgloss.NewStyle().Bold(true)
	kindStyle    = lipgloss.NewStyle().Foreground(mutedColor).Italic(true)
	presentStyle = lipgloss.NewStyle().Foreground(okColor)
	flagStyle    = lipgloss.NewStyle().Foreground(warnColor)
	absentStyle  = lipgloss.NewStyle().Foreground(mutedColor)
	helpStyle    = lipgloss.NewStyle().Foreground(mutedColor)
)

const (
	keyColumn  = 32
	kindColumn = 9
	// minValueWidth keeps values readable on very narrow terminals.
	minValueWidth = 16
)

// Options control how a snapshot is rendered.
type Options struct {
	// Width is the terminal width. 0 means no truncation.
	Width int
	// Styled enables colors.
	Styled bool
	// All includes absent keys.
	All bool
}

// Render formats entries as an aligned table.
func Render(entries []statestore.Entry, opts Options) string {
	var b strings.Builder
	valueWidth := 0
	if opts.Width > 0 {
		valueWidth = max(opts.Width-keyColumn-kindColumn-2, minValueWidth)
	}

	shown := 0
	for _, e := range entries {
		if !e.Present && !opts.All {
			continue
		}
		shown++

		value := e.Value
		if !e.Present {
			value = "-"
		}
		if valueWidth > 0 {
			value = util.TruncateANSI(value, valueWidth)
		}

		key := fmt.Sprintf("%-*s", keyColumn, e.Key)
		kind := fmt.Sprintf("%-*s", kindColumn, e.Kind)
		if opts.Styled {
			key = keyStyle.Render(key)
			kind = kindStyle.Render(kind)
			value = valueStyle(e).Render(value)
		}
		b.WriteString(key)
		b.WriteString(kind)
		b.WriteString(value)
		b.WriteByte('\n')
	}

	if shown == 0 {
		msg := "no state recorded"
		if opts.Styled {
			msg = absentStyle.Render(msg)
		}
		b.WriteString(msg)
		b.WriteByte('\n')
	}
	return b.String()
}

func valueStyle(e statestore.Entry) lipgloss.Style {
	switch {
	case !e.Present:
		return absentStyle
	case e.Kind == statestore.KindFlag:
		return flagStyle
	default:
		return presentStyle
	}
}
