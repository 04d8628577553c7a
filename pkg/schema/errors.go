package schema

import "fmt"

// ValidationError represents a value that does not conform to a Type.
type ValidationError struct {
	Type   string // Declared type name
	Reason string // Human-readable reason for failure
	Value  any    // The value that failed validation
}

func (e *ValidationError) Error() string {
	if e.Value == nil {
		return fmt.Sprintf("expected %s: %s", e.Type, e.Reason)
	}
	return fmt.Sprintf("expected %s: %s (got %T)", e.Type, e.Reason, e.Value)
}

func mismatch(t Type, value any, reason string) error {
	return &ValidationError{Type: t.Name(), Reason: reason, Value: value}
}
