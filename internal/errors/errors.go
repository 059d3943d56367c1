// Package errors provides centralized error definitions and error handling utilities
// for meridian. It defines domain-specific errors, semantic error types,
// error constructors with context wrapping, and error classification helpers.
//
// # Error Types
//
// Domain-specific errors represent errors from specific subsystems:
//   - StateError: errors reading or writing the state directory
//   - EventError: errors decoding a lifecycle event from the host
//   - LoopError: errors from work-until loop setup and teardown
//   - GitError: errors from the git commands behind the stop checklist
//
// Semantic errors represent common error conditions:
//   - ValidationError: invalid input or configuration
//
// # Fail-Open Policy
//
// Nothing on the hook path surfaces these errors to the host. The state
// store maps every StateError to a default value, and the hook command maps
// an EventError to an empty allow decision. Errors exist so that the
// failure can be logged with the right severity, and so management commands
// (loop, state, config) can report them to a person.
//
// # Usage
//
//	err := errors.NewStateError("read counter", cause).WithKey("action-counter")
//
//	if errors.Is(err, errors.ErrStateNotFound) { ... }
//
//	var stateErr *errors.StateError
//	if errors.As(err, &stateErr) { ... }
//
//	logger.Log(errors.GetSeverity(err), "state read failed", "error", err)
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Re-export standard library functions for convenience.
// This allows callers to import only this package for all error handling.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	New    = errors.New
	Join   = errors.Join
)

// Severity represents the severity level of an error.
type Severity int

const (
	// SeverityDebug is for errors that are expected in normal operation,
	// such as a state key that has never been written.
	SeverityDebug Severity = iota
	// SeverityInfo is for informational errors that don't indicate a problem.
	SeverityInfo
	// SeverityWarning is for errors that degrade enforcement but are survivable.
	SeverityWarning
	// SeverityError is for errors that indicate a real problem.
	SeverityError
	// SeverityCritical is for errors that require immediate attention.
	SeverityCritical
)

// String returns the string representation of the severity level.
func (s Severity) String() string {
	switch s {
	case SeverityDebug:
		return "debug"
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// -----------------------------------------------------------------------------
// Sentinel Errors
// -----------------------------------------------------------------------------

// State-related sentinel errors
var (
	// ErrStateNotFound indicates that a state key has no backing file.
	ErrStateNotFound = New("state key not found")
	// ErrStateCorrupted indicates that a state value could not be parsed.
	ErrStateCorrupted = New("state value corrupted")
	// ErrStateWrite indicates that a state value could not be persisted.
	ErrStateWrite = New("state write failed")
)

// Event-related sentinel errors
var (
	// ErrMalformedEvent indicates that the host sent an undecodable event.
	ErrMalformedEvent = New("malformed hook event")
	// ErrNoProjectDir indicates that no project directory could be resolved.
	ErrNoProjectDir = New("project directory not resolved")
)

// Git-related sentinel errors
var (
	// ErrNotGitRepo indicates that no repository encloses the given path.
	ErrNotGitRepo = New("not a git repository")
)

// Loop-related sentinel errors
var (
	// ErrLoopActive indicates that a work-until loop is already running.
	ErrLoopActive = New("work-until loop already active")
	// ErrLoopInactive indicates that no work-until loop is running.
	ErrLoopInactive = New("no active work-until loop")
)

// General sentinel errors
var (
	// ErrInvalidInput indicates that input validation failed.
	ErrInvalidInput = New("invalid input")
)

// -----------------------------------------------------------------------------
// Base Error Interface
// -----------------------------------------------------------------------------

// MeridianError is the base interface for all meridian errors.
type MeridianError interface {
	error

	// Unwrap returns the underlying error, if any.
	Unwrap() error

	// Severity returns the severity level of this error.
	Severity() Severity

	// IsUserFacing returns true if the error message is safe to display
	// to end users.
	IsUserFacing() bool
}

// baseError provides common functionality for all error types.
type baseError struct {
	message    string
	cause      error
	severity   Severity
	userFacing bool
}

// Error returns the error message.
func (e *baseError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

// Unwrap returns the underlying error.
func (e *baseError) Unwrap() error {
	return e.cause
}

// Severity returns the error severity.
func (e *baseError) Severity() Severity {
	return e.severity
}

// IsUserFacing returns whether the error is safe to show users.
func (e *baseError) IsUserFacing() bool {
	return e.userFacing
}

// format renders "prefix [k=v, ...]: message: cause".
func (e *baseError) format(prefix string, parts []string) string {
	if len(parts) > 0 {
		prefix = fmt.Sprintf("%s [%s]", prefix, strings.Join(parts, ", "))
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// -----------------------------------------------------------------------------
// Domain-Specific Errors
// -----------------------------------------------------------------------------

// StateError represents errors related to the state directory.
//
// Example:
//
//	err := errors.NewStateError("read counter", errors.ErrStateCorrupted).WithKey("action-counter")
//	fmt.Println(err) // "state error [key=action-counter]: read counter: state value corrupted"
type StateError struct {
	baseError
	Key  string
	Path string
}

// NewStateError creates a new StateError. Missing keys are logged at debug
// level; everything else is a warning because it silently disables a gate.
func NewStateError(message string, cause error) *StateError {
	severity := SeverityWarning
	if errors.Is(cause, ErrStateNotFound) {
		severity = SeverityDebug
	}
	return &StateError{
		baseError: baseError{
			message:  message,
			cause:    cause,
			severity: severity,
		},
	}
}

// WithKey adds the state key to the error context.
func (e *StateError) WithKey(key string) *StateError {
	e.Key = key
	return e
}

// WithPath adds the backing file path to the error context.
func (e *StateError) WithPath(path string) *StateError {
	e.Path = path
	return e
}

// WithSeverity sets the error severity.
func (e *StateError) WithSeverity(s Severity) *StateError {
	e.severity = s
	return e
}

// Error returns the formatted error message.
func (e *StateError) Error() string {
	var parts []string
	if e.Key != "" {
		parts = append(parts, fmt.Sprintf("key=%s", e.Key))
	}
	if e.Path != "" {
		parts = append(parts, fmt.Sprintf("path=%s", e.Path))
	}
	return e.format("state error", parts)
}

// Is checks if this error matches the target.
func (e *StateError) Is(target error) bool {
	if _, ok := target.(*StateError); ok {
		return true
	}
	return e.cause != nil && errors.Is(e.cause, target)
}

// EventError represents errors decoding or routing a host lifecycle event.
type EventError struct {
	baseError
	Event string
}

// NewEventError creates a new EventError.
func NewEventError(message string, cause error) *EventError {
	return &EventError{
		baseError: baseError{
			message:  message,
			cause:    cause,
			severity: SeverityWarning,
		},
	}
}

// WithEvent adds the event name to the error context.
func (e *EventError) WithEvent(name string) *EventError {
	e.Event = name
	return e
}

// Error returns the formatted error message.
func (e *EventError) Error() string {
	var parts []string
	if e.Event != "" {
		parts = append(parts, fmt.Sprintf("event=%s", e.Event))
	}
	return e.format("event error", parts)
}

// Is checks if this error matches the target.
func (e *EventError) Is(target error) bool {
	if _, ok := target.(*EventError); ok {
		return true
	}
	return e.cause != nil && errors.Is(e.cause, target)
}

// LoopError represents errors from work-until loop management commands.
type LoopError struct {
	baseError
	Iteration int
}

// NewLoopError creates a new LoopError.
func NewLoopError(message string, cause error) *LoopError {
	return &LoopError{
		baseError: baseError{
			message:    message,
			cause:      cause,
			severity:   SeverityError,
			userFacing: true,
		},
	}
}

// WithIteration adds the loop iteration to the error context.
func (e *LoopError) WithIteration(n int) *LoopError {
	e.Iteration = n
	return e
}

// Error returns the formatted error message.
func (e *LoopError) Error() string {
	var parts []string
	if e.Iteration > 0 {
		parts = append(parts, fmt.Sprintf("iteration=%d", e.Iteration))
	}
	return e.format("loop error", parts)
}

// Is checks if this error matches the target.
func (e *LoopError) Is(target error) bool {
	if _, ok := target.(*LoopError); ok {
		return true
	}
	return e.cause != nil && errors.Is(e.cause, target)
}

// GitError represents errors from git commands.
type GitError struct {
	baseError
	Repository string
	GitOutput  string
}

// NewGitError creates a new GitError. Git failures only thin out advisory
// text, so they are warnings.
func NewGitError(message string, cause error) *GitError {
	return &GitError{
		baseError: baseError{
			message:  message,
			cause:    cause,
			severity: SeverityWarning,
		},
	}
}

// WithRepository adds a repository path to the error context.
func (e *GitError) WithRepository(path string) *GitError {
	e.Repository = path
	return e
}

// WithGitOutput adds git command output to the error context.
func (e *GitError) WithGitOutput(output string) *GitError {
	e.GitOutput = output
	return e
}

// Error returns the formatted error message.
func (e *GitError) Error() string {
	var parts []string
	if e.Repository != "" {
		parts = append(parts, fmt.Sprintf("repo=%s", e.Repository))
	}
	msg := e.format("git error", parts)
	if e.GitOutput != "" {
		msg = fmt.Sprintf("%s\ngit output: %s", msg, e.GitOutput)
	}
	return msg
}

// Is checks if this error matches the target.
func (e *GitError) Is(target error) bool {
	if _, ok := target.(*GitError); ok {
		return true
	}
	return e.cause != nil && errors.Is(e.cause, target)
}

// -----------------------------------------------------------------------------
// Semantic Errors
// -----------------------------------------------------------------------------

// ValidationError represents invalid input or state.
type ValidationError struct {
	baseError
	Field string
	Value any
}

// NewValidationError creates a new ValidationError.
func NewValidationError(message string) *ValidationError {
	return &ValidationError{
		baseError: baseError{
			message:    message,
			severity:   SeverityWarning,
			userFacing: true,
		},
	}
}

// WithField adds a field name to the error context.
func (e *ValidationError) WithField(field string) *ValidationError {
	e.Field = field
	return e
}

// WithValue adds the invalid value to the error context.
func (e *ValidationError) WithValue(value any) *ValidationError {
	e.Value = value
	return e
}

// Error returns the formatted error message.
func (e *ValidationError) Error() string {
	var parts []string
	if e.Field != "" {
		parts = append(parts, fmt.Sprintf("field=%s", e.Field))
	}
	if e.Value != nil {
		parts = append(parts, fmt.Sprintf("value=%v", e.Value))
	}
	return e.format("validation error", parts)
}

// Is checks if this error matches the target.
func (e *ValidationError) Is(target error) bool {
	if _, ok := target.(*ValidationError); ok {
		return true
	}
	if target == ErrInvalidInput {
		return true
	}
	return e.cause != nil && errors.Is(e.cause, target)
}

// -----------------------------------------------------------------------------
// Classification
// -----------------------------------------------------------------------------

// IsUserFacing returns true if the error message is safe to display to end users.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	var meridianErr MeridianError
	if As(err, &meridianErr) {
		return meridianErr.IsUserFacing()
	}
	return false
}

// GetSeverity returns the severity level of the error.
// Returns SeverityError for errors that don't implement MeridianError.
func GetSeverity(err error) Severity {
	if err == nil {
		return SeverityDebug
	}
	var meridianErr MeridianError
	if As(err, &meridianErr) {
		return meridianErr.Severity()
	}
	return SeverityError
}

// -----------------------------------------------------------------------------
// Convenience Constructors
// -----------------------------------------------------------------------------

// Wrap wraps an error with additional context.
// Returns nil if err is nil.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with a formatted message.
// Returns nil if err is nil.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}
