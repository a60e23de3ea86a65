package subledger

import (
	"errors"
	"fmt"

	"github.com/xraph/subledger/types"
)

// Sentinel errors for common failure scenarios.
var (
	// General errors
	ErrNotFound      = errors.New("subledger: not found")
	ErrAlreadyExists = errors.New("subledger: already exists")

	// Authorization errors
	ErrNotOwner = errors.New("subledger: caller is not the administrator")

	// Input errors
	ErrInvalidAmount  = errors.New("subledger: amount is zero")
	ErrInvalidAddress = errors.New("subledger: invalid wallet address")
	ErrInvalidToken   = errors.New("subledger: invalid token address")

	// Registry errors
	ErrUnregisteredToken = errors.New("subledger: unregistered token")

	// Payment errors
	ErrInsufficientValue    = errors.New("subledger: insufficient value")
	ErrInsufficientApproval = errors.New("subledger: insufficient approval")
	ErrTransferRejected     = errors.New("subledger: transfer rejected by receiver")

	// Arithmetic errors
	ErrArithmeticOverflow  = types.ErrOverflow
	ErrArithmeticUnderflow = types.ErrUnderflow

	// Asset errors
	ErrUnknownAsset = errors.New("subledger: unknown asset")

	// Store errors
	ErrStoreClosed        = errors.New("subledger: store is closed")
	ErrPriceNotSet        = errors.New("subledger: price not set")
	ErrFeeNotSet          = errors.New("subledger: fee not set")
	ErrTokenNotRegistered = errors.New("subledger: token not registered")
	ErrAssetNotFound      = errors.New("subledger: asset not found")
	ErrReceiptNotFound    = errors.New("subledger: receipt not found")
	ErrSettingNotFound    = errors.New("subledger: setting not found")
)

// ValidationError represents a validation failure with details.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("subledger: validation failed for %s: %s", e.Field, e.Message)
}

// MultiError represents multiple errors that occurred.
type MultiError struct {
	Errors []error
}

func (e MultiError) Error() string {
	if len(e.Errors) == 0 {
		return "subledger: no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("subledger: %d errors occurred", len(e.Errors))
}

// Unwrap exposes the collected errors to errors.Is and errors.As.
func (e MultiError) Unwrap() []error { return e.Errors }

// Add adds an error to the multi-error.
func (e *MultiError) Add(err error) {
	if err != nil {
		e.Errors = append(e.Errors, err)
	}
}

// HasErrors returns true if there are any errors.
func (e MultiError) HasErrors() bool {
	return len(e.Errors) > 0
}

// First returns the first error or nil.
func (e MultiError) First() error {
	if len(e.Errors) > 0 {
		return e.Errors[0]
	}
	return nil
}

// IsNotFound returns true if the error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrPriceNotSet) ||
		errors.Is(err, ErrFeeNotSet) ||
		errors.Is(err, ErrTokenNotRegistered) ||
		errors.Is(err, ErrAssetNotFound) ||
		errors.Is(err, ErrReceiptNotFound) ||
		errors.Is(err, ErrSettingNotFound)
}

// IsPaymentError returns true if the caller's funds or the receiver caused
// the failure.
func IsPaymentError(err error) bool {
	return errors.Is(err, ErrInsufficientValue) ||
		errors.Is(err, ErrInsufficientApproval) ||
		errors.Is(err, ErrTransferRejected)
}

// IsArithmeticError returns true if a quantity left the representable range.
func IsArithmeticError(err error) bool {
	return errors.Is(err, ErrArithmeticOverflow) ||
		errors.Is(err, ErrArithmeticUnderflow)
}

// IsAuthorizationError returns true if the caller lacked administrator rights.
func IsAuthorizationError(err error) bool {
	return errors.Is(err, ErrNotOwner)
}
