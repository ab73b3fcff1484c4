package errors

import (
	"errors"
	"fmt"
)

// Exit codes for vless-ctl
const (
	ExitSuccess          = 0
	ExitGeneralError     = 1
	ExitFormat           = 2
	ExitProfileNotFound  = 3
	ExitDuplicateProfile = 4
	ExitPersistence      = 5
	ExitProcess          = 6
	ExitState            = 7
	ExitConfig           = 8
)

// Error is the base error type for vless-ctl
type Error struct {
	Code    int
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// ExitCode returns the exit code for this error
func (e *Error) ExitCode() int {
	return e.Code
}

// New creates a new Error
func New(code int, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an existing error with an Error
func Wrap(code int, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// FormatError returns an error for a malformed share link or name.
// cause may be nil.
func FormatError(message string, cause error) *Error {
	return Wrap(ExitFormat, message, cause)
}

// DuplicateProfile returns an error for a name collision on add
func DuplicateProfile(name string) *Error {
	return New(ExitDuplicateProfile, fmt.Sprintf("profile already exists: %s", name))
}

// ProfileNotFound returns an error for a missing profile
func ProfileNotFound(name string) *Error {
	return New(ExitProfileNotFound, fmt.Sprintf("profile not found: %s", name))
}

// PersistenceError returns an error for storage write/read/delete failures
func PersistenceError(op string, cause error) *Error {
	return Wrap(ExitPersistence, fmt.Sprintf("profile %s failed", op), cause)
}

// ProcessError returns an error for engine spawn or early-exit failures
func ProcessError(message string, cause error) *Error {
	return Wrap(ExitProcess, message, cause)
}

// StateError returns an error for an operation that is invalid in the
// current session state
func StateError(message string) *Error {
	return New(ExitState, message)
}

// ConfigError returns an error for configuration issues
func ConfigError(message string, cause error) *Error {
	return Wrap(ExitConfig, message, cause)
}

// GetExitCode extracts the exit code from an error
func GetExitCode(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.ExitCode()
	}
	return ExitGeneralError
}

// HasCode reports whether err carries the given exit code anywhere in its chain.
func HasCode(err error, code int) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// Is checks if an error is of a specific type
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target any) bool {
	return errors.As(err, target)
}
