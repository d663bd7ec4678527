package services

import (
	"errors"
	"fmt"
)

// Sentinel errors the handlers map onto HTTP statuses. Business-rule
// violations guarantee no partial state change: any balance mutation rolls
// back with the enclosing SQL transaction.
var (
	ErrValidation           = errors.New("validation failed")
	ErrInsufficientFunds    = errors.New("insufficient funds")
	ErrSameAccount          = errors.New("source and destination accounts must be different")
	ErrCategoryTypeMismatch = errors.New("transaction type does not match category type")
	ErrImmutableField       = errors.New("amount, type, category and account references cannot be changed")
	ErrRateUnavailable      = errors.New("currency sell rate unavailable")
)

func validationErr(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
