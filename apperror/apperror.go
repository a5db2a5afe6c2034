package apperror

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	ErrBadRequest    = New("BAD_REQUEST", "invalid request", http.StatusBadRequest)
	ErrValidation    = New("VALIDATION_ERROR", "validation failed", http.StatusBadRequest)
	ErrUnauthorized  = New("UNAUTHORIZED", "missing or invalid credentials", http.StatusUnauthorized)
	ErrForbidden     = New("FORBIDDEN", "access denied", http.StatusForbidden)
	ErrNotFound      = New("NOT_FOUND", "resource not found", http.StatusNotFound)
	ErrConflict      = New("CONFLICT", "resource state conflict", http.StatusConflict)
	ErrRateLimited   = New("RATE_LIMITED", "rate limit exceeded", http.StatusTooManyRequests)
	ErrDatabase      = New("DATABASE_ERROR", "database operation failed", http.StatusInternalServerError)
	ErrUpstream      = New("UPSTREAM_ERROR", "upstream service failed", http.StatusBadGateway)
	ErrNotConfigured = New("NOT_CONFIGURED", "service is not configured", http.StatusInternalServerError)
	ErrInternal      = New("INTERNAL_ERROR", "internal server error", http.StatusInternalServerError)
)

type AppError struct {
	Code       string
	Message    string
	StatusCode int
	Details    map[string]any
	Err        error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s - %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches on Code so wrapped clones still compare equal to their sentinel.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

func (e *AppError) WithError(err error) *AppError {
	clone := e.clone()
	clone.Err = err
	return clone
}

func (e *AppError) WithMessage(message string) *AppError {
	clone := e.clone()
	clone.Message = message
	return clone
}

func (e *AppError) WithDetails(details map[string]any) *AppError {
	clone := e.clone()
	clone.Details = make(map[string]any, len(details))
	for k, v := range details {
		clone.Details[k] = v
	}
	return clone
}

func New(code, message string, statusCode int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
		Details:    make(map[string]any),
	}
}

func NewNotFound(resource string) *AppError {
	return ErrNotFound.
		WithMessage(fmt.Sprintf("%s not found", resource)).
		WithDetails(map[string]any{"resource": resource})
}

func (e *AppError) clone() *AppError {
	clone := *e
	clone.Details = make(map[string]any, len(e.Details))
	for k, v := range e.Details {
		clone.Details[k] = v
	}
	return &clone
}

// FromError maps any error onto an AppError; unknown errors become 500s.
func FromError(err error) *AppError {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		return ParseValidationErrors(err)
	}

	if errors.Is(err, context.Canceled) {
		return New("REQUEST_CANCELED", "request canceled by client", 499).WithError(err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return New("TIMEOUT", "request timed out", http.StatusGatewayTimeout).WithError(err)
	}

	return ErrInternal.WithError(err)
}

func ParseValidationErrors(err error) *AppError {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return ErrBadRequest.WithError(err)
	}

	fields := make([]map[string]string, 0, len(validationErrors))
	for _, fe := range validationErrors {
		fields = append(fields, map[string]string{
			"field":   lowerFirst(fe.Field()),
			"message": describe(fe),
		})
	}

	return ErrValidation.WithDetails(map[string]any{"fields": fields})
}

func describe(fe validator.FieldError) string {
	field := lowerFirst(fe.Field())
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s long", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	case "uuid":
		return fmt.Sprintf("%s must be a valid UUID", field)
	default:
		return fmt.Sprintf("%s failed '%s' validation", field, fe.Tag())
	}
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
