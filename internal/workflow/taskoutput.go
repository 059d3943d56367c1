package workflow

import "github.com/meridian-hooks/meridian/internal/hook"

// ToolTaskOutput is the host tool that polls a background agent.
const ToolTaskOutput = "TaskOutput"

const taskOutputBlocked = "TaskOutput is blocked. Background agents notify on completion automatically. " +
	"Continue with other work, or if nothing else to do, stop and wait for the notification."

// CheckTaskOutput denies every TaskOutput call.
func CheckTaskOutput(ev *hook.Event) hook.Decision {
	if ev.ToolName != ToolTaskOutput {
		return hook.Allowed()
	}
	return hook.Denied(taskOutputBlocked)
}
