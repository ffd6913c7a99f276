package apperr

import (
	"errors"
	"fmt"
)

// Code classifies an application error.
type Code string

const (
	CodeNotFound        Code = "NOT_FOUND"
	CodeInvalidArgument Code = "INVALID_ARGUMENT"
	CodeConfiguration   Code = "CONFIG_INVALID"
	CodeInternal        Code = "INTERNAL_ERROR"
)

// Error is a structured application error. Two errors match under errors.Is
// when their codes are equal, so callers test against the sentinels below.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Cause }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// Sentinels for errors.Is.
var (
	ErrNotFound        = &Error{Code: CodeNotFound, Message: "not found"}
	ErrInvalidArgument = &Error{Code: CodeInvalidArgument, Message: "invalid argument"}
	ErrConfiguration   = &Error{Code: CodeConfiguration, Message: "configuration error"}
)

func New(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...any) *Error {
	return New(CodeNotFound, format, args...)
}

func InvalidArgument(format string, args ...any) *Error {
	return New(CodeInvalidArgument, format, args...)
}

func Configuration(format string, args ...any) *Error {
	return New(CodeConfiguration, format, args...)
}

// Wrap attaches a message to err, keeping the code of err when it already
// carries one.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: GetCode(err), Message: message, Cause: err}
}

// GetCode returns the code of the first *Error in the chain, or CodeInternal.
func GetCode(err error) Code {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Code
	}
	var ce *ConfigurationError
	if errors.As(err, &ce) {
		return CodeConfiguration
	}
	return CodeInternal
}

// ConfigurationError reports a provider that cannot be used in this process,
// typically because its credentials are missing.
type ConfigurationError struct {
	Provider string
	Reason   string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("provider %s not configured: %s", e.Provider, e.Reason)
}

func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}
