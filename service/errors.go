package services

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// ValidationError reports input or constraint problems the caller can fix.
type ValidationError struct {
	Msg string
	Err error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *ValidationError) Unwrap() error { return e.Err }

func invalid(format string, args ...interface{}) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// translateError maps driver and gorm errors onto ErrNotFound and
// ValidationError. op names the failed operation.
func translateError(op string, err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return &ValidationError{Msg: op + ": referenced record does not exist", Err: err}
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return &ValidationError{Msg: op + ": record already exists", Err: err}
	}

	// Not every driver error goes through gorm's translator.
	msg := err.Error()
	switch {
	case strings.Contains(msg, "FOREIGN KEY constraint failed"),
		strings.Contains(msg, "violates foreign key constraint"):
		return &ValidationError{Msg: op + ": referenced record does not exist", Err: err}
	case strings.Contains(msg, "UNIQUE constraint failed"),
		strings.Contains(msg, "duplicate key value"):
		return &ValidationError{Msg: op + ": record already exists", Err: err}
	case strings.Contains(msg, "CHECK constraint failed"),
		strings.Contains(msg, "violates check constraint"),
		strings.Contains(msg, "value too long"):
		return &ValidationError{Msg: op + ": value out of range", Err: err}
	}
	return fmt.Errorf("%s: %w", op, err)
}
