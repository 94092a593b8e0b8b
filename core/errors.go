package core

import "fmt"

// ConfigurationError signals an invalid configuration detected during
// initialization (duplicate skill or tool names, conflicting enable modes,
// invalid chunking parameters). It is always fatal at startup and never
// produced at dispatch time.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s", e.Reason)
}

// NewConfigurationError creates a ConfigurationError from a format string.
func NewConfigurationError(format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Reason: fmt.Sprintf(format, args...)}
}

// StepLimitError is returned when the reasoning loop exceeds its configured
// maximum step count. The turn fails but the partial transcript up to that
// point is preserved in the session store.
type StepLimitError struct {
	Steps int
}

func (e *StepLimitError) Error() string {
	return fmt.Sprintf("step limit exceeded after %d steps", e.Steps)
}
