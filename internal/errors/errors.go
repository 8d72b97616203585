package errors

import (
	stderrors "errors"
	"fmt"
)

// AppError represents a structured application error
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// New creates a new AppError
func New(code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an error with additional context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	code := GetCode(err)
	if code == "UNKNOWN" {
		code = CodeInternalError
	}
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// Wrapf wraps an error with formatted additional context
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return Wrap(err, fmt.Sprintf(format, args...))
}

// WithCode adds an error code to an existing error
func WithCode(code string, err error) error {
	if err == nil {
		return nil
	}
	if appErr, ok := err.(*AppError); ok {
		return &AppError{
			Code:    code,
			Message: appErr.Message,
			Cause:   appErr.Cause,
		}
	}
	return &AppError{
		Code:    code,
		Message: err.Error(),
		Cause:   err,
	}
}

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr)
}

// GetCode returns the most specific code found along the error chain,
// or "UNKNOWN" when the chain carries none.
func GetCode(err error) string {
	code := "UNKNOWN"
	for ; err != nil; err = stderrors.Unwrap(err) {
		switch e := err.(type) {
		case *FitError:
			return CodeFitFailed
		case *NumericalError:
			return CodeNumerical
		case *AppError:
			if e.Code != CodeInternalError {
				return e.Code
			}
			code = CodeInternalError
		}
	}
	return code
}

// Predefined error codes
const (
	CodeConfigInvalid   = "CONFIG_INVALID"
	CodeDatabaseError   = "DATABASE_ERROR"
	CodeValidationError = "VALIDATION_ERROR"
	CodeNotFound        = "NOT_FOUND"
	CodeInternalError   = "INTERNAL_ERROR"
	CodeInvalidInput    = "INVALID_INPUT"
	CodeFitFailed       = "FIT_FAILED"
	CodeNumerical       = "NUMERICAL_ERROR"
)

// Common error constructors
func ConfigInvalid(message string) *AppError {
	return New(CodeConfigInvalid, message)
}

func DatabaseError(message string) *AppError {
	return New(CodeDatabaseError, message)
}

func ValidationError(message string) *AppError {
	return New(CodeValidationError, message)
}

func NotFound(resource string) *AppError {
	return New(CodeNotFound, fmt.Sprintf("%s not found", resource))
}

func InternalError(message string) *AppError {
	return New(CodeInternalError, message)
}

func InvalidInput(message string) *AppError {
	return New(CodeInvalidInput, message)
}

// InvalidInputf builds an INVALID_INPUT error around a cause
func InvalidInputf(cause error, format string, args ...interface{}) *AppError {
	return &AppError{
		Code:    CodeInvalidInput,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// FitError reports a segmented regression that could not be fitted for a
// specific number of line segments.
type FitError struct {
	Breaks int
	Cause  error
}

func (e *FitError) Error() string {
	return fmt.Sprintf("piecewise fit failed for %d breaks: %v", e.Breaks, e.Cause)
}

func (e *FitError) Unwrap() error {
	return e.Cause
}

// FitFailed wraps cause as a FitError for the attempted break count
func FitFailed(breaks int, cause error) *FitError {
	return &FitError{Breaks: breaks, Cause: cause}
}

// NumericalError reports a BIC that cannot be computed, usually a residual
// sum of squares of zero (a perfect fit).
type NumericalError struct {
	Breaks int
	RSS    float64
	Reason string
}

func (e *NumericalError) Error() string {
	return fmt.Sprintf("numerical error at %d breaks (rss=%g): %s", e.Breaks, e.RSS, e.Reason)
}

// IsFitError reports whether err carries a FitError
func IsFitError(err error) bool {
	var fitErr *FitError
	return stderrors.As(err, &fitErr)
}

// IsNumericalError reports whether err carries a NumericalError
func IsNumericalError(err error) bool {
	var numErr *NumericalError
	return stderrors.As(err, &numErr)
}
