// Package logging provides structured logging for meridian hook invocations.
//
// Every hook invocation is a separate short-lived process, so the log file is
// the only place where the history of gate decisions survives. The package
// wraps log/slog with a JSON handler writing to .meridian/hooks.log, with
// size-based rotation so the file stays bounded across thousands of calls.
//
// # Context Propagation
//
// Child loggers carry correlation attributes:
//
//	logger = logger.WithInvocation(uuid.NewString()).WithEvent("PreToolUse")
//	logger.WithComponent("pre-compaction").Info("usage checked", "total", 1200)
//
// Output:
//
//	{"time":"...","level":"INFO","msg":"usage checked","invocation_id":"...","event":"PreToolUse","component":"pre-compaction","total":1200}
//
// # Errors
//
// [Logger.LogError] picks the level from the error's severity, so a missing
// state key lands at DEBUG while a failed write lands at WARN.
//
// # Testing
//
// Use [NopLogger] to discard output.
package logging
