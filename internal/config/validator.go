package config

import (
	"fmt"
	"slices"
	"strings"

	"github.com/meridian-hooks/meridian/internal/logging"
)

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string // The config key (e.g., "stop_hook_min_actions")
	Value   any    // The invalid value
	Message string // Human-readable error description
}

// Error implements the error interface for ValidationError
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for ValidationErrors
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e)))
	for i, err := range e {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// ValidProjectTypes returns the accepted project_type values.
func ValidProjectTypes() []string {
	return []string{"hackathon", "standard", "production"}
}

// maxLogSizeMB bounds log_max_size_mb.
const maxLogSizeMB = 100

// Validate checks the Config for invalid values and returns all validation
// errors found.
func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	if !slices.Contains(ValidProjectTypes(), c.ProjectType) {
		errors = append(errors, ValidationError{
			Field:   KeyProjectType,
			Value:   c.ProjectType,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidProjectTypes(), ", ")),
		})
	}

	nonNegative := []struct {
		key   string
		value int
	}{
		{KeyPlanReviewMinActions, c.PlanReviewMinActions},
		{KeyPreCompactionSyncThreshold, c.PreCompactionSyncThreshold},
		{KeyStopHookMinActions, c.StopHookMinActions},
		{KeyWorkspaceMaxLines, c.WorkspaceMaxLines},
		{KeyLogMaxBackups, c.LogMaxBackups},
	}
	for _, f := range nonNegative {
		if f.value < 0 {
			errors = append(errors, ValidationError{
				Field:   f.key,
				Value:   f.value,
				Message: "must be non-negative",
			})
		}
	}

	errors = append(errors, c.validateLogging()...)

	return errors
}

func (c *Config) validateLogging() []ValidationError {
	var errors []ValidationError

	if !logging.IsValidLevel(c.LogLevel) {
		errors = append(errors, ValidationError{
			Field:   KeyLogLevel,
			Value:   c.LogLevel,
			Message: fmt.Sprintf("must be one of: %s", strings.ToLower(strings.Join(logging.ValidLevels(), ", "))),
		})
	}

	if c.LogMaxSizeMB < 0 || c.LogMaxSizeMB > maxLogSizeMB {
		errors = append(errors, ValidationError{
			Field:   KeyLogMaxSizeMB,
			Value:   c.LogMaxSizeMB,
			Message: fmt.Sprintf("must be between 0 and %d", maxLogSizeMB),
		})
	}

	return errors
}

// resetField restores the default for one key.
func (c *Config) resetField(key string) {
	d := Default()
	switch key {
	case KeyProjectType:
		c.ProjectType = d.ProjectType
	case KeyPlanReviewMinActions:
		c.PlanReviewMinActions = d.PlanReviewMinActions
	case KeyPreCompactionSyncThreshold:
		c.PreCompactionSyncThreshold = d.PreCompactionSyncThreshold
	case KeyStopHookMinActions:
		c.StopHookMinActions = d.StopHookMinActions
	case KeyWorkspaceMaxLines:
		c.WorkspaceMaxLines = d.WorkspaceMaxLines
	case KeyLogLevel:
		c.LogLevel = d.LogLevel
	case KeyLogMaxSizeMB:
		c.LogMaxSizeMB = d.LogMaxSizeMB
	case KeyLogMaxBackups:
		c.LogMaxBackups = d.LogMaxBackups
	}
}
