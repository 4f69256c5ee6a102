package models

import "fmt"

// ValidationError reports a user-supplied field that failed a required-field
// or format check. It is surfaced as a field-level message, never a 500.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
}

// InvalidTransitionError reports an illegal state machine transition, such as
// reopening a completed action plan or re-validating evidence.
type InvalidTransitionError struct {
	Entity string `json:"entity"`
	From   string `json:"from"`
	To     string `json:"to"`
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid %s transition: %s -> %s", e.Entity, e.From, e.To)
}
