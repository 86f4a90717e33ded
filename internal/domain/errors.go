package domain

import "fmt"

// Typed errors shared by the core, services and handlers. The handler maps
// each type to one HTTP status with errors.As.

// ErrValidation reports bad input. Field names the offending JSON path, for
// example "incomeSources[0].amount".
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error on '%s': %s", e.Field, e.Message)
}

// ErrNotFound reports a missing record set or line item.
type ErrNotFound struct {
	Resource string
	ID       string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ErrUnsupportedCurrency reports a symbol or code outside the supported table.
type ErrUnsupportedCurrency struct {
	Currency string
}

func (e *ErrUnsupportedCurrency) Error() string {
	return fmt.Sprintf("unsupported currency: %q", e.Currency)
}

// ErrExternalService wraps a failed call to a rate provider or record store.
type ErrExternalService struct {
	Service string
	Err     error
}

func (e *ErrExternalService) Error() string {
	return fmt.Sprintf("external service error [%s]: %v", e.Service, e.Err)
}

func (e *ErrExternalService) Unwrap() error {
	return e.Err
}

// ErrTimeout reports an operation that ran out of time or concurrency slots.
type ErrTimeout struct {
	Operation string
}

func (e *ErrTimeout) Error() string {
	return fmt.Sprintf("operation timed out: %s", e.Operation)
}

// ErrCircuitOpen reports a dependency whose circuit breaker is open.
type ErrCircuitOpen struct {
	Service string
}

func (e *ErrCircuitOpen) Error() string {
	return fmt.Sprintf("circuit breaker open for service: %s", e.Service)
}

// ErrUnauthorized reports a missing, malformed or expired access token.
type ErrUnauthorized struct {
	Message string
}

func (e *ErrUnauthorized) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "unauthorized"
}

// ErrForbidden reports a valid token used on another user's records.
type ErrForbidden struct {
	Action string
}

func (e *ErrForbidden) Error() string {
	return fmt.Sprintf("forbidden: %s", e.Action)
}
