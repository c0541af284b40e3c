package domain

import "fmt"

// Error types for consistent error handling across the report API.

// ErrInvalidRange indicates a malformed or inverted date range.
// Surfaced to the caller as a client error; never retried.
type ErrInvalidRange struct {
	Start  string
	End    string
	Reason string
}

func (e *ErrInvalidRange) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("invalid date range [%s..%s]: %s", e.Start, e.End, e.Reason)
	}
	return fmt.Sprintf("invalid date range: start %s is after end %s", e.Start, e.End)
}

// ErrDataSource indicates the ledger store is unreachable or a query
// failed. The computation is aborted wholesale: no partial series is
// ever produced from a failed read.
type ErrDataSource struct {
	Query string
	Err   error
}

func (e *ErrDataSource) Error() string {
	return fmt.Sprintf("data source error [%s]: %v", e.Query, e.Err)
}

func (e *ErrDataSource) Unwrap() error {
	return e.Err
}

// ErrNotFound indicates a resource was not found.
type ErrNotFound struct {
	Resource string
	ID       string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ErrExternalService indicates a failure in an external collaborator.
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

// ErrCircuitOpen indicates the circuit breaker is open.
type ErrCircuitOpen struct {
	Service string
}

func (e *ErrCircuitOpen) Error() string {
	return fmt.Sprintf("circuit breaker open for service: %s", e.Service)
}

// ErrValidation indicates a validation error (bad input).
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error on '%s': %s", e.Field, e.Message)
}

// ErrUnauthorized indicates invalid credentials or token.
type ErrUnauthorized struct {
	Message string
}

func (e *ErrUnauthorized) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "unauthorized"
}
