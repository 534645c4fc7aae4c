package domain

import (
	"fmt"

	"github.com/google/uuid"
)

// ErrNotFound reports a missing entity
type ErrNotFound struct {
	Entity string
	ID     string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found with ID: %s", e.Entity, e.ID)
}

// IsNotFound reports whether err is an ErrNotFound
func IsNotFound(err error) bool {
	_, ok := err.(*ErrNotFound)
	return ok
}

// ValidationError represents an error caused by invalid input or parameters
type ValidationError struct {
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s", e.Message)
}

// NewValidationError creates a new validation error with the given message
func NewValidationError(message string) error {
	return ValidationError{
		Message: message,
	}
}

// ConfigurationError reports missing account configuration (e.g. no default
// outbound phone). Fatal for the single send attempt, not for the campaign.
type ConfigurationError struct {
	Message string
}

func (e ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s", e.Message)
}

// NewConfigurationError creates a new configuration error
func NewConfigurationError(message string) error {
	return ConfigurationError{
		Message: message,
	}
}

// CampaignStateError reports a lifecycle operation attempted in a state
// that does not permit it. Raised synchronously to the caller.
type CampaignStateError struct {
	CampaignID uuid.UUID
	Status     CampaignStatus
	Operation  string
}

func (e *CampaignStateError) Error() string {
	return fmt.Sprintf("cannot %s campaign %s in %s status", e.Operation, e.CampaignID, e.Status)
}

// ProviderError wraps a failure surfaced by the WhatsApp provider API
type ProviderError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("provider error (status %d): %s: %v", e.StatusCode, e.Message, e.Err)
	}
	return fmt.Sprintf("provider error (status %d): %s", e.StatusCode, e.Message)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}
