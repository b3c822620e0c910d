package models

import (
	"errors"
	"fmt"
)

// Calculation error taxonomy. Controllers map these onto HTTP statuses:
// ValidationError -> 400, ErrStructureNotFound -> 404,
// ErrInactiveStructure -> 409, ConfigurationError -> 500.
var (
	// ErrStructureNotFound is returned when no structure exists for the requested ID
	ErrStructureNotFound = errors.New("commission structure not found")

	// ErrInactiveStructure is returned when the structure exists but has been
	// deactivated; surfaced distinctly from not-found so callers can show
	// "deactivated" messaging.
	ErrInactiveStructure = errors.New("commission structure is deactivated")
)

// ValidationError represents malformed or out-of-range caller input, rejected
// before any computation begins.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NewValidationError creates a ValidationError for the given field
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// ConfigurationError represents an invariant violation in stored structure
// data (for example duplicate threshold volumes). It indicates corrupted
// configuration rather than bad caller input and is surfaced as a server
// fault.
type ConfigurationError struct {
	StructureID string `json:"structureId"`
	Message     string `json:"message"`
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("structure %s: %s", e.StructureID, e.Message)
}

// NewConfigurationError creates a ConfigurationError for the given structure
func NewConfigurationError(structureID, message string) *ConfigurationError {
	return &ConfigurationError{StructureID: structureID, Message: message}
}
