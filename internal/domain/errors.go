package domain

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrNotFound          = errors.New("sweet not found")
	ErrValidation        = errors.New("validation error")
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrInsufficientStock = errors.New("insufficient stock")
)

// ValidationError names the offending field
type ValidationError struct {
	Field   string
	Message string
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// InsufficientStockError is returned when a purchase exceeds the available quantity.
type InsufficientStockError struct {
	ID        int64
	Name      string
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	if e.Available == 0 && e.Name != "" {
		return fmt.Sprintf("Sweet '%s' is out of stock", e.Name)
	}
	return fmt.Sprintf("Insufficient stock. Available: %d, Requested: %d", e.Available, e.Requested)
}

func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}

// NotFoundf wraps ErrNotFound with the missing id
func NotFoundf(id int64) error {
	return errors.Wrapf(ErrNotFound, "sweet %d", id)
}

// InvalidArgumentf wraps ErrInvalidArgument with a message
func InvalidArgumentf(format string, args ...interface{}) error {
	return errors.Wrapf(ErrInvalidArgument, format, args...)
}

// Message returns the user facing text of a taxonomy error, without the
// wrapping context added on the way up.
func Message(err error) string {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr.Message
	}
	var serr *InsufficientStockError
	if errors.As(err, &serr) {
		return serr.Error()
	}
	switch {
	case errors.Is(err, ErrNotFound):
		return "Sweet not found"
	case errors.Is(err, ErrInvalidArgument):
		if cause := errors.Cause(err); cause != err {
			// Wrapf prefixes the message, report only the detail
			msg := err.Error()
			suffix := ": " + cause.Error()
			if len(msg) > len(suffix) {
				return msg[:len(msg)-len(suffix)]
			}
		}
		return err.Error()
	}
	return err.Error()
}
