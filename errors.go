// Package kernelbench structured error types for better error handling
package kernelbench

import (
	"errors"
	"fmt"
)

// ErrorType represents categories of errors
type ErrorType int

const (
	// Invalid argument errors
	ErrTypeInvalidArg ErrorType = iota
	// Device unavailable errors
	ErrTypeDevice
	// Errors raised by a computation unit while it runs on a device
	ErrTypeExecution
	// Configuration loading errors
	ErrTypeConfig
)

// BenchError represents a structured error with context
type BenchError struct {
	Type    ErrorType
	Op      string // Operation that failed
	Message string // Human-readable message
	Err     error  // Underlying error if any
}

// Error implements the error interface
func (e *BenchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("kernelbench %s error in %s: %s (caused by: %v)",
			e.Type.String(), e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("kernelbench %s error in %s: %s",
		e.Type.String(), e.Op, e.Message)
}

// Unwrap allows error chain inspection
func (e *BenchError) Unwrap() error {
	return e.Err
}

// String returns the error type as a string
func (t ErrorType) String() string {
	switch t {
	case ErrTypeInvalidArg:
		return "InvalidArgument"
	case ErrTypeDevice:
		return "DeviceUnavailable"
	case ErrTypeExecution:
		return "DeviceExecutionFailure"
	case ErrTypeConfig:
		return "Config"
	default:
		return "Unknown"
	}
}

// NewInvalidArgError creates an invalid argument error
func NewInvalidArgError(op string, message string) error {
	return &BenchError{
		Type:    ErrTypeInvalidArg,
		Op:      op,
		Message: message,
	}
}

// NewDeviceError creates a device unavailable error
func NewDeviceError(op string, message string, err error) error {
	return &BenchError{
		Type:    ErrTypeDevice,
		Op:      op,
		Message: message,
		Err:     err,
	}
}

// NewExecutionError creates an execution error
func NewExecutionError(op string, message string, err error) error {
	return &BenchError{
		Type:    ErrTypeExecution,
		Op:      op,
		Message: message,
		Err:     err,
	}
}

// NewConfigError creates a configuration error
func NewConfigError(op string, message string, err error) error {
	return &BenchError{
		Type:    ErrTypeConfig,
		Op:      op,
		Message: message,
		Err:     err,
	}
}

var (
	// ErrInvalidIterations indicates a non-positive timed iteration count
	ErrInvalidIterations = NewInvalidArgError("Measure", "iterations must be positive")

	// ErrInvalidWarmup indicates a negative warm-up count
	ErrInvalidWarmup = NewInvalidArgError("Measure", "warmup iterations must not be negative")

	// ErrInvalidDevice indicates a device ordinal that does not exist
	ErrInvalidDevice = NewDeviceError("OpenDevice", "invalid device ordinal", nil)

	// ErrDeviceClosed indicates work submitted to a closed device
	ErrDeviceClosed = NewDeviceError("Enqueue", "device is closed", nil)

	// ErrEventPending indicates a timestamp read before the device reached it
	ErrEventPending = NewInvalidArgError("ElapsedSince", "event has not completed; synchronize first")
)

func errorType(err error) (ErrorType, bool) {
	var be *BenchError
	if errors.As(err, &be) {
		return be.Type, true
	}
	return 0, false
}

// IsInvalidArgError checks if an error is an invalid argument error
func IsInvalidArgError(err error) bool {
	t, ok := errorType(err)
	return ok && t == ErrTypeInvalidArg
}

// IsDeviceError checks if an error reports an unavailable device
func IsDeviceError(err error) bool {
	t, ok := errorType(err)
	return ok && t == ErrTypeDevice
}

// IsExecutionError checks if an error came from a failing computation unit
func IsExecutionError(err error) bool {
	t, ok := errorType(err)
	return ok && t == ErrTypeExecution
}

// IsConfigError checks if an error is a configuration error
func IsConfigError(err error) bool {
	t, ok := errorType(err)
	return ok && t == ErrTypeConfig
}
