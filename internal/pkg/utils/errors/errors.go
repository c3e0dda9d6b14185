// Package errors provides error constructors and helpers used across the repository.
// Other packages import this package instead of the standard library "errors".
package errors

import (
	"errors"
	"fmt"
)

func New(text string) error {
	return errors.New(text)
}

// Errorf formats an error, the %w verb is supported.
func Errorf(format string, a ...any) error {
	return fmt.Errorf(format, a...)
}

func Wrap(err error, msg string) error {
	return fmt.Errorf("%s: %w", msg, err)
}

func Wrapf(err error, format string, a ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, a...), err)
}

// PrefixError adds a prefix to the error message, the original error is wrapped.
func PrefixError(err error, prefix string) error {
	return fmt.Errorf("%s: %w", prefix, err)
}

func PrefixErrorf(err error, format string, a ...any) error {
	return PrefixError(err, fmt.Sprintf(format, a...))
}

func Is(err, target error) bool {
	return errors.Is(err, target)
}

func As(err error, target any) bool {
	return errors.As(err, target)
}

func Unwrap(err error) error {
	return errors.Unwrap(err)
}
