package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unique error code
type ErrorCode int

// AppError represents an application error
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Err     error     `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Common error codes
const (
	ErrNotFound ErrorCode = iota + 1000
	ErrBadRequest
	ErrUnauthorized
	ErrInternal
)

// Booking rejection codes. Each maps to one reason the scheduling
// core can refuse a request; handlers render them to the caller.
const (
	ErrPastDate ErrorCode = iota + 2000
	ErrClosedDay
	ErrUnknownSlot
	ErrRunsPastClosing
	ErrSlotConflict
	ErrUnknownService
	ErrInvalidTransition
)

// Error constructors
func NewNotFound(resource string, err error) *AppError {
	return &AppError{
		Code:    ErrNotFound,
		Message: fmt.Sprintf("%s not found", resource),
		Err:     err,
	}
}

func NewBadRequest(message string, err error) *AppError {
	return &AppError{
		Code:    ErrBadRequest,
		Message: message,
		Err:     err,
	}
}

func NewInternal(err error) *AppError {
	return &AppError{
		Code:    ErrInternal,
		Message: "internal server error",
		Err:     err,
	}
}

func NotFound(resource string, err error) *AppError {
	return NewNotFound(resource, err)
}

func BadRequest(message string, err error) *AppError {
	return NewBadRequest(message, err)
}

func Internal(err error) *AppError {
	return NewInternal(err)
}

func Unauthorized(message string) *AppError {
	if message == "" {
		message = "unauthorized"
	}
	return &AppError{
		Code:    ErrUnauthorized,
		Message: message,
	}
}

func PastDate() *AppError {
	return &AppError{Code: ErrPastDate, Message: "appointment date is in the past"}
}

func ClosedDay() *AppError {
	return &AppError{Code: ErrClosedDay, Message: "clinic is closed on the requested day"}
}

func UnknownSlot() *AppError {
	return &AppError{Code: ErrUnknownSlot, Message: "requested time slot does not exist"}
}

func RunsPastClosing() *AppError {
	return &AppError{Code: ErrRunsPastClosing, Message: "service does not fit before closing time"}
}

func SlotConflict() *AppError {
	return &AppError{Code: ErrSlotConflict, Message: "requested time slots are already booked"}
}

func UnknownService(err error) *AppError {
	return &AppError{Code: ErrUnknownService, Message: "unknown service", Err: err}
}

func InvalidTransition(from, to string) *AppError {
	return &AppError{
		Code:    ErrInvalidTransition,
		Message: fmt.Sprintf("status cannot change from %s to %s", from, to),
	}
}

// CodeOf extracts the ErrorCode from err, unwrapping as needed.
// Returns ErrInternal for non-application errors.
func CodeOf(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrInternal
}

// IsCode reports whether err carries the given application error code.
func IsCode(err error, code ErrorCode) bool {
	return CodeOf(err) == code
}
