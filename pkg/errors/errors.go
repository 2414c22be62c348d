package errors

import (
	"errors"
	"fmt"
)

var (
	ErrValidation   = errors.New("validation failed")
	ErrDuplicateKey = errors.New("duplicate key")
	ErrNotFound     = errors.New("not found")
	ErrCorrupt      = errors.New("corrupt index artifact")
	ErrInvalidInput = errors.New("invalid input")
)

// Exit codes returned by the command-line tools.
const (
	ExitOK         = 0
	ExitInternal   = 1
	ExitUsage      = 2
	ExitValidation = 3
	ExitDuplicate  = 4
	ExitNotFound   = 5
	ExitCorrupt    = 6
)

type AppError struct {
	Err     error
	Message string
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(sentinel error, message string) *AppError {
	return &AppError{
		Err:     sentinel,
		Message: message,
	}
}

func Newf(sentinel error, format string, args ...any) *AppError {
	return &AppError{
		Err:     sentinel,
		Message: fmt.Sprintf(format, args...),
	}
}

// Validation reports a malformed input line. line is 1-based; 0 means the
// error is not tied to a line.
func Validation(source string, line int, format string, args ...any) *AppError {
	msg := fmt.Sprintf(format, args...)
	if line > 0 {
		msg = fmt.Sprintf("%s:%d: %s", source, line, msg)
	} else if source != "" {
		msg = fmt.Sprintf("%s: %s", source, msg)
	}
	return New(ErrValidation, msg)
}

func DuplicateKey(queryID, docNo string) *AppError {
	return Newf(ErrDuplicateKey, "query %q document %q", queryID, docNo)
}

func NotFound(what, key string) *AppError {
	return Newf(ErrNotFound, "%s %q", what, key)
}

func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	switch {
	case errors.Is(err, ErrInvalidInput):
		return ExitUsage
	case errors.Is(err, ErrValidation):
		return ExitValidation
	case errors.Is(err, ErrDuplicateKey):
		return ExitDuplicate
	case errors.Is(err, ErrNotFound):
		return ExitNotFound
	case errors.Is(err, ErrCorrupt):
		return ExitCorrupt
	default:
		return ExitInternal
	}
}
