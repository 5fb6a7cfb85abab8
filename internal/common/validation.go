package common

import (
	"fmt"
	"strings"
)

// ValidationError is one field-level contract violation.
// Field is a JSON pointer into the candidate record ("/line_items/0/quantity").
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e ValidationError) Error() string {
	field := e.Field
	if field == "" {
		field = "/"
	}
	if e.Value != nil {
		return fmt.Sprintf("%s: %s (got %v)", field, e.Message, e.Value)
	}
	return fmt.Sprintf("%s: %s", field, e.Message)
}

// SchemaViolation collects every field violation found in a candidate record.
type SchemaViolation struct {
	Violations []ValidationError
}

func (v *SchemaViolation) Error() string {
	if v == nil || len(v.Violations) == 0 {
		return "schema violation"
	}
	msgs := make([]string, 0, len(v.Violations))
	for _, e := range v.Violations {
		msgs = append(msgs, e.Error())
	}
	return strings.Join(msgs, "; ")
}

func (v *SchemaViolation) Unwrap() error { return ErrSchemaViolation }

// Add appends a violation and returns the receiver for chaining.
func (v *SchemaViolation) Add(field, message string, value interface{}) *SchemaViolation {
	v.Violations = append(v.Violations, ValidationError{Field: field, Value: value, Message: message})
	return v
}

// HasErrors returns true if there are violations.
func (v *SchemaViolation) HasErrors() bool {
	return v != nil && len(v.Violations) > 0
}

// NewSchemaViolationError wraps a violation in the AppError surfaced to callers.
// The message embeds the full detail so callers can see which field broke the contract.
func NewSchemaViolationError(v *SchemaViolation) *AppError {
	return NewAppError(CodeSchemaViolation, MsgSchemaViolation+" Details: "+v.Error(), v)
}
