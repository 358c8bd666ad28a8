package types

import "fmt"

// ConfigurationError reports a malformed agent registry or configuration file.
// It is fatal: the process must not serve requests with a broken registry.
type ConfigurationError struct {
	Source string // file path or "builtin"
	Reason string
}

func (e *ConfigurationError) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("configuration error: %s", e.Reason)
	}
	return fmt.Sprintf("configuration error in %s: %s", e.Source, e.Reason)
}

// NewConfigurationError creates a ConfigurationError for the given source.
func NewConfigurationError(source, format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Source: source, Reason: fmt.Sprintf(format, args...)}
}

// ValidationError reports an invalid task request. The request is rejected
// before any analysis runs; callers should re-submit with the field fixed.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid request: %s: %s", e.Field, e.Reason)
}

// NewValidationError creates a ValidationError for a single field.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// UnknownAgentError reports a forced-agent override that names an agent
// missing from the registry.
type UnknownAgentError struct {
	AgentID string
}

func (e *UnknownAgentError) Error() string {
	return fmt.Sprintf("unknown agent %q", e.AgentID)
}
