package errors

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrAlreadyExists        = errors.New("already exists")
	ErrNotFound             = errors.New("not found")
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrUnauthorized         = errors.New("unauthorized")
	ErrForbidden            = errors.New("forbidden")
	ErrDuplicateOrderNumber = errors.New("duplicate order number")
	ErrDuplicateReference   = errors.New("duplicate payment reference")
	ErrStaleStatus          = errors.New("order status changed concurrently")
)

// ValidationDetail describes a single rejected field.
type ValidationDetail struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError reports every violation found in a request, not just the first.
type ValidationError struct {
	Message string             `json:"message"`
	Details []ValidationDetail `json:"details,omitempty"`
}

func NewValidationError(message string, details ...ValidationDetail) *ValidationError {
	return &ValidationError{Message: message, Details: details}
}

func (e *ValidationError) Error() string {
	if len(e.Details) == 0 {
		return e.Message
	}
	parts := make([]string, 0, len(e.Details))
	for _, d := range e.Details {
		parts = append(parts, d.Field+": "+d.Message)
	}
	return e.Message + ": " + strings.Join(parts, "; ")
}

// Add records a violation for field.
func (e *ValidationError) Add(field, message string) {
	e.Details = append(e.Details, ValidationDetail{Field: field, Message: message})
}

// Empty reports whether no violations were recorded.
func (e *ValidationError) Empty() bool {
	return len(e.Details) == 0
}

// NotFoundError is returned for absent resources and for resources owned by
// someone else; callers cannot tell the two apart.
type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string {
	return e.Resource + " not found"
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// AuthError wraps authentication and authorization failures.
type AuthError struct {
	Reason error
}

func (e *AuthError) Error() string {
	if e.Reason == nil {
		return ErrUnauthorized.Error()
	}
	return e.Reason.Error()
}

func (e *AuthError) Unwrap() error {
	if e.Reason == nil {
		return ErrUnauthorized
	}
	return e.Reason
}

// ConflictError signals a request that is valid but not allowed in the current state.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string {
	return e.Message
}

// GatewayError is a failure reported by, or while talking to, a payment provider.
type GatewayError struct {
	Provider          string
	Code              string
	Message           string
	HTTPStatus        int
	ClientCorrectable bool
	Cause             error
}

func (e *GatewayError) Error() string {
	msg := fmt.Sprintf("%s gateway: %s", e.Provider, e.Message)
	if e.Code != "" {
		msg += " (" + e.Code + ")"
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *GatewayError) Unwrap() error {
	return e.Cause
}

// PersistenceError wraps a storage failure with the operation that hit it.
type PersistenceError struct {
	Op    string
	Cause error
}

func (e *PersistenceError) Error() string {
	if e.Cause == nil {
		return "persistence: " + e.Op
	}
	return "persistence: " + e.Op + ": " + e.Cause.Error()
}

func (e *PersistenceError) Unwrap() error {
	return e.Cause
}

// TimeoutError reports an external call that did not answer within its bound.
// The outcome of such a call is unknown.
type TimeoutError struct {
	Op    string
	After time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s timed out after %s", e.Op, e.After)
}
