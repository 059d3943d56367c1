package hook

import (
	"encoding/json"
	"io"
	"strings"
)

// Verdict is the outcome of a gate.
type Verdict int

const (
	Allow Verdict = iota
	Deny
)

func (v Verdict) String() string {
	if v == Deny {
		return "deny"
	}
	return "allow"
}

// Decision is what a gate, or the controller as a whole, returns for an event.
type Decision struct {
	Verdict Verdict
	// Reason is shown to the agent when the action is denied.
	Reason string
	// Context is advisory text added to an allowed action.
	Context string
	// SystemMessage is shown to the user on Stop and SubagentStop.
	SystemMessage string
}

// Allowed returns an empty allow decision.
func Allowed() Decision {
	return Decision{Verdict: Allow}
}

// Advise returns an allow decision carrying advisory context.
func Advise(context string) Decision {
	return Decision{Verdict: Allow, Context: context}
}

// Denied returns a deny decision with a reason.
func Denied(reason string) Decision {
	return Decision{Verdict: Deny, Reason: reason}
}

// WithSystemMessage sets the user-visible message.
func (d Decision) WithSystemMessage(msg string) Decision {
	d.SystemMessage = msg
	return d
}

// IsDeny reports whether d blocks the action.
func (d Decision) IsDeny() bool {
	return d.Verdict == Deny
}

// Empty reports whether d would produce no output.
func (d Decision) Empty() bool {
	return d.Verdict == Allow && d.Context == "" && d.SystemMessage == ""
}

// Merge folds next into d. A deny wins over allows; advisory text from
// allows is joined with a blank line.
func (d Decision) Merge(next Decision) Decision {
	if d.IsDeny() {
		return d
	}
	if next.IsDeny() {
		return next
	}
	d.Context = joinNonEmpty(d.Context, next.Context)
	d.SystemMessage = joinNonEmpty(d.SystemMessage, next.SystemMessage)
	return d
}

func joinNonEmpty(a, b string) string {
	switch {
	case a == "":
		return b
	case b == "":
		return a
	default:
		return a + "\n\n" + b
	}
}

type hookSpecificOutput struct {
	HookEventName            Kind   `json:"hookEventName"`
	PermissionDecision       string `json:"permissionDecision,omitempty"`
	PermissionDecisionReason string `json:"permissionDecisionReason,omitempty"`
	AdditionalContext        string `json:"additionalContext,omitempty"`
}

type output struct {
	Decision           string              `json:"decision,omitempty"`
	Reason             string              `json:"reason,omitempty"`
	SystemMessage      string              `json:"systemMessage,omitempty"`
	HookSpecificOutput *hookSpecificOutput `json:"hookSpecificOutput,omitempty"`
}

// Encode writes d for an event of kind to w. An empty decision writes
// nothing.
func Encode(w io.Writer, kind Kind, d Decision) error {
	if d.Empty() {
		return nil
	}

	var out output
	switch {
	case kind == Stop || kind == SubagentStop:
		if d.IsDeny() {
			out.Decision = "block"
			out.Reason = d.Reason
		}
		out.SystemMessage = joinNonEmpty(d.SystemMessage, d.Context)
	case d.IsDeny():
		out.HookSpecificOutput = &hookSpecificOutput{
			HookEventName:            kind,
			PermissionDecision:       "deny",
			PermissionDecisionReason: d.Reason,
		}
		out.SystemMessage = d.SystemMessage
	default:
		out.SystemMessage = d.SystemMessage
		if strings.TrimSpace(d.Context) != "" {
			out.HookSpecificOutput = &hookSpecificOutput{
				HookEventName:     kind,
				AdditionalContext: d.Context,
			}
		}
	}

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return enc.Encode(out)
}
