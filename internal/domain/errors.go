package domain

import "fmt"

// ValidationError is a local constraint violation. It is never sent to the server.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func required(field string) error {
	return &ValidationError{Field: field, Message: "is required"}
}

func invalid(field string, value any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf("invalid value %v", value)}
}
