package errors

import (
	"errors"
	"fmt"
)

var (
	ErrMalformedInput   = errors.New("malformed input")
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrArtifactIO       = errors.New("artifact i/o failed")
	ErrParse            = errors.New("unparseable timing line")
	ErrPartialWrite     = errors.New("projections left inconsistent")
	ErrNoData           = errors.New("no data")
)

// Process exit codes returned by ExitCode.
const (
	ExitOK               = 0
	ExitFailure          = 1
	ExitMalformedInput   = 2
	ExitStoreUnavailable = 3
	ExitArtifactIO       = 4
)

type AppError struct {
	Err     error
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %s", e.Err.Error(), e.Message, e.Cause.Error())
	}
	return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
}

// Unwrap exposes both the sentinel and the underlying cause, so errors.Is
// matches either of them.
func (e *AppError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Err}
	}
	return []error{e.Err, e.Cause}
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

func Wrap(sentinel error, message string, cause error) *AppError {
	return &AppError{
		Err:     sentinel,
		Message: message,
		Cause:   cause,
	}
}

func ExitCode(err error) int {
	switch {
	case err == nil, errors.Is(err, ErrNoData):
		return ExitOK
	case errors.Is(err, ErrMalformedInput):
		return ExitMalformedInput
	case errors.Is(err, ErrStoreUnavailable), errors.Is(err, ErrPartialWrite):
		return ExitStoreUnavailable
	case errors.Is(err, ErrArtifactIO):
		return ExitArtifactIO
	default:
		return ExitFailure
	}
}
