package utils

import "errors"

var ErrorRecordNotFound = errors.New("record not found")

// Ledger preconditions, checked before any balance mutation.
var (
	ErrorInvalidAmount       = errors.New("amount must be greater than zero")
	ErrorInsufficientBalance = errors.New("insufficient store credit")
)

// ValidationError rejects a checkout before any side effect happens.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

func NewValidationError(reason string) error {
	return &ValidationError{Reason: reason}
}

func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
