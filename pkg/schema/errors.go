package schema

import "fmt"

// ValidationError represents a single story validation failure.
// Validation failures are fatal at load time: the engine refuses to start
// on a malformed story.
type ValidationError struct {
	NodeID string // Offending node (or chapter/flow/branch point) ID, if known
	Field  string // Field or reference that failed
	Reason string // Human-readable reason for failure
}

func (e *ValidationError) Error() string {
	if e.NodeID == "" {
		return fmt.Sprintf("story: %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("story: %s: %s: %s", e.NodeID, e.Field, e.Reason)
}

// AggregateError represents multiple validation failures.
// Load-time validation collects everything wrong with a story instead of
// stopping at the first defect.
type AggregateError struct {
	Errors []error
}

func (e *AggregateError) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	msg := fmt.Sprintf("%d validation errors:\n", len(e.Errors))
	for i, err := range e.Errors {
		msg += fmt.Sprintf("  %d. %s\n", i+1, err.Error())
	}
	return msg
}

// Unwrap exposes the collected errors to errors.Is/As.
func (e *AggregateError) Unwrap() []error {
	return e.Errors
}
