package ftprobe

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
)

// ErrorCode represents specific error codes for better error handling
type ErrorCode int

const (
	// ErrCodeUnknown is used when the error doesn't fit any other category
	ErrCodeUnknown ErrorCode = iota
	// ErrCodeNetworkFailure is used for network connectivity issues
	ErrCodeNetworkFailure
	// ErrCodeTimeout is used when an operation times out
	ErrCodeTimeout
	// ErrCodeValidation is used for validation errors
	ErrCodeValidation
	// ErrCodeInput is used for host-list and configuration input errors
	ErrCodeInput
	// ErrCodeResource is used for resource availability issues
	ErrCodeResource
	// ErrCodeCancelled is used when an operation is cancelled
	ErrCodeCancelled
)

// AppError represents an application-specific error with context
type AppError struct {
	// Underlying error
	Err error
	// Error code for programmatic handling
	Code ErrorCode
	// Human-readable message
	Message string
	// Component where the error occurred
	Component string
	// Operation that was being performed
	Operation string
	// Source file and line number for debugging
	Source string
	// Target of the operation (e.g., hostname, IP)
	Target string
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap implements the errors.Unwrap interface
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithTarget records the host or path the failing operation was aimed at.
func (e *AppError) WithTarget(target string) *AppError {
	e.Target = target
	return e
}

// WithSource adds source file and line information to the error
func (e *AppError) WithSource() *AppError {
	_, file, line, ok := runtime.Caller(1)
	if ok {
		parts := strings.Split(file, "/")
		if len(parts) > 0 {
			file = parts[len(parts)-1]
		}
		e.Source = fmt.Sprintf("%s:%d", file, line)
	}
	return e
}

// NewAppError creates a new application error
func NewAppError(err error, code ErrorCode, message, component, operation string) *AppError {
	return &AppError{
		Err:       err,
		Code:      code,
		Message:   message,
		Component: component,
		Operation: operation,
	}
}

// IsNetworkError checks if an error is a network-related error
func IsNetworkError(err error) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == ErrCodeNetworkFailure
	}
	return false
}

// IsTimeoutError checks if an error is a timeout error
func IsTimeoutError(err error) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == ErrCodeTimeout
	}
	return false
}

// IsInputError checks if an error is a host-list or config input error
func IsInputError(err error) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == ErrCodeInput
	}
	return false
}

// GetErrorCode extracts the error code from an error
func GetErrorCode(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrCodeUnknown
}
