package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Kind classifies an AppError independently of its HTTP status code
type Kind string

const (
	KindValidation  Kind = "validation"
	KindConflict    Kind = "conflict"
	KindNotFound    Kind = "not_found"
	KindPersistence Kind = "persistence"
	KindPricing     Kind = "pricing"
	KindBadRequest  Kind = "bad_request"
	KindInternal    Kind = "internal"
)

// AppError represents an application error with HTTP status code
type AppError struct {
	Code    int          `json:"code"`
	Kind    Kind         `json:"kind"`
	Message string       `json:"message"`
	Errors  []FieldError `json:"errors,omitempty"`
	Cause   error        `json:"-"`
}

// FieldError represents a validation error for a specific field
type FieldError struct {
	Field          string      `json:"field"`
	Message        string      `json:"message"`
	AttemptedValue interface{} `json:"attempted_value,omitempty"`
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Common errors
var (
	ErrNotFound       = &AppError{Code: http.StatusNotFound, Kind: KindNotFound, Message: "Resource not found"}
	ErrInternalServer = &AppError{Code: http.StatusInternalServerError, Kind: KindInternal, Message: "Internal server error"}
	ErrTooManyRequest = &AppError{Code: http.StatusTooManyRequests, Kind: KindBadRequest, Message: "Rate limit exceeded. Please try again later."}
)

// NewAppError creates a new application error. The kind follows the status code.
func NewAppError(code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Kind:    kindForStatus(code),
		Message: message,
	}
}

func kindForStatus(code int) Kind {
	switch {
	case code == http.StatusNotFound:
		return KindNotFound
	case code == http.StatusConflict:
		return KindConflict
	case code == http.StatusUnprocessableEntity:
		return KindValidation
	case code >= 400 && code < 500:
		return KindBadRequest
	default:
		return KindInternal
	}
}

// NewValidationError creates a new validation error
func NewValidationError(fieldErrors []FieldError) *AppError {
	return &AppError{
		Code:    http.StatusUnprocessableEntity,
		Kind:    KindValidation,
		Message: "Validation failed",
		Errors:  fieldErrors,
	}
}

// NewNotFoundError creates a not found error with a custom message
func NewNotFoundError(resource string) *AppError {
	return &AppError{
		Code:    http.StatusNotFound,
		Kind:    KindNotFound,
		Message: resource + " not found",
	}
}

// NewConflictError creates a conflict error with a custom message
func NewConflictError(message string) *AppError {
	return &AppError{
		Code:    http.StatusConflict,
		Kind:    KindConflict,
		Message: message,
	}
}

// NewBadRequestError creates a bad request error with a custom message
func NewBadRequestError(message string) *AppError {
	return &AppError{
		Code:    http.StatusBadRequest,
		Kind:    KindBadRequest,
		Message: message,
	}
}

// NewPersistenceError reports a storage fault for op on subject. The cause is
// kept for logging only and is not part of the message.
func NewPersistenceError(op, subject string, cause error) *AppError {
	return &AppError{
		Code:    http.StatusInternalServerError,
		Kind:    KindPersistence,
		Message: fmt.Sprintf("A database error occurred while %s %s at %s", op, subject, time.Now().UTC().Format(time.RFC3339)),
		Cause:   cause,
	}
}

// NewPricingError creates an error for a failed discount calculation
func NewPricingError(saleNumber int, cause error) *AppError {
	return &AppError{
		Code:    http.StatusInternalServerError,
		Kind:    KindPricing,
		Message: fmt.Sprintf("Error applying discounts to sale %d", saleNumber),
		Cause:   cause,
	}
}

// IsKind reports whether err is an AppError of the given kind
func IsKind(err error, kind Kind) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Kind == kind
}

// GetAppError converts an error to AppError if possible
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return &AppError{
		Code:    http.StatusInternalServerError,
		Kind:    KindInternal,
		Message: err.Error(),
		Cause:   err,
	}
}
