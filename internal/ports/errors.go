package ports

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Standard application-level errors.
// Adapters should wrap underlying infrastructure errors with these standard errors.
var (
	// Portfolio Errors
	ErrValidation           = errors.New("invalid trade input")
	ErrInsufficientPosition = errors.New("insufficient position")
	ErrOracleUnavailable    = errors.New("price oracle unavailable")
	ErrPersistence          = errors.New("internal persistence error")

	// General Errors
	ErrUnknown            = errors.New("unknown error occurred")
	ErrNotFound           = errors.New("resource not found")
	ErrTimeout            = errors.New("operation timed out")
	ErrContextCanceled    = errors.New("operation canceled via context")
	ErrConfigurationError = errors.New("invalid or missing configuration")
	ErrRateLimited        = errors.New("API rate limit exceeded")
	ErrConnectionFailed   = errors.New("failed to connect to upstream service")

	// Database Specific Errors
	ErrDBConnection = errors.New("database connection error")
	ErrQueryFailed  = errors.New("database query failed")
	ErrUpdateFailed = errors.New("database update failed")
)

// ValidationError reports a malformed or missing trade field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s for field `%s`", e.Reason, e.Field)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError is a shorthand for building a *ValidationError.
func NewValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// InsufficientPositionError is returned when a sell exceeds the holdings of a symbol.
type InsufficientPositionError struct {
	Symbol    string
	Available decimal.Decimal
	Requested decimal.Decimal
}

func (e *InsufficientPositionError) Error() string {
	if e.Available.IsZero() {
		return fmt.Sprintf("cannot sell %s: no existing position found", e.Symbol)
	}
	return fmt.Sprintf("cannot sell %s %s: only %s available",
		e.Requested.StringFixed(8), e.Symbol, e.Available.StringFixed(8))
}

func (e *InsufficientPositionError) Unwrap() error { return ErrInsufficientPosition }
