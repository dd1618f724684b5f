package entities

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Error taxonomy shared by the planning and deduction services. Callers match
// with errors.Is; every concrete error wraps exactly one of these.
var (
	ErrNotFound       = errors.New("not found")
	ErrInvalidInput   = errors.New("invalid input")
	ErrInconsistent   = errors.New("inconsistent data")
	ErrCommitConflict = errors.New("commit conflict")
	ErrTransientIO    = errors.New("transient i/o failure")
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// IsTransient reports whether err is eligible for a retry
func IsTransient(err error) bool {
	return errors.Is(err, ErrTransientIO)
}

// validateRecord runs struct-tag validation and converts the first failure
// into an ErrInvalidInput error naming the record kind and field.
func validateRecord(kind string, record any) error {
	err := validate.Struct(record)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		if fe.Tag() == "required" {
			return fmt.Errorf("%w: %s %s cannot be empty", ErrInvalidInput, kind, fe.Field())
		}
		return fmt.Errorf("%w: %s %s failed %q validation", ErrInvalidInput, kind, fe.Field(), fe.Tag())
	}
	return fmt.Errorf("%w: %s: %v", ErrInvalidInput, kind, err)
}
