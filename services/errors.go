package services

import (
	"errors"
	"fmt"
)

// ErrorType represents the type/category of error
type ErrorType string

const (
	ErrorTypeNotFound     ErrorType = "not_found"
	ErrorTypeValidation   ErrorType = "validation"
	ErrorTypeUnauthorized ErrorType = "unauthorized"
	ErrorTypeForbidden    ErrorType = "forbidden"
	ErrorTypeConflict     ErrorType = "conflict"
	ErrorTypeInternal     ErrorType = "internal"
	ErrorTypeExternal     ErrorType = "external"
)

// DomainError represents a structured error with additional context
type DomainError struct {
	Type    ErrorType
	Message string
	Err     error
	Details map[string]interface{}
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is matches a target with the same type and message, so a sentinel wrapped
// with a cause via Wrap still satisfies errors.Is against the sentinel.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Type == t.Type && e.Message == t.Message
}

// Wrap returns a copy of the sentinel carrying cause
func (e *DomainError) Wrap(cause error) *DomainError {
	return &DomainError{
		Type:    e.Type,
		Message: e.Message,
		Err:     cause,
		Details: make(map[string]interface{}),
	}
}

// WithDetail adds a detail to the error
func (e *DomainError) WithDetail(key string, value interface{}) *DomainError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// NewDomainError creates a new domain error
func NewDomainError(errType ErrorType, message string, err error) *DomainError {
	return &DomainError{
		Type:    errType,
		Message: message,
		Err:     err,
		Details: make(map[string]interface{}),
	}
}

// Domain error variables. Sentinels are never mutated; use Wrap or
// NewDomainError to attach causes or details.
var (
	// Identity resolution
	ErrInvalidToken     = NewDomainError(ErrorTypeUnauthorized, "invalid authentication token", nil)
	ErrTokenExpired     = NewDomainError(ErrorTypeUnauthorized, "authentication token expired", nil)
	ErrIdentityNotFound = NewDomainError(ErrorTypeUnauthorized, "profile not found", nil)
	ErrStoreUnavailable = NewDomainError(ErrorTypeUnauthorized, "identity store unavailable", nil)

	// Authorization
	ErrInsufficientRole = NewDomainError(ErrorTypeForbidden, "insufficient role", nil)
	ErrRoleEscalation   = NewDomainError(ErrorTypeForbidden, "cannot grant a role above your own", nil)

	// Organizations
	ErrOrganizationNotFound = NewDomainError(ErrorTypeNotFound, "organization not found", nil)
	ErrInviteeNotFound      = NewDomainError(ErrorTypeValidation, "User not found. User must register first.", nil)
	ErrAlreadyMember        = NewDomainError(ErrorTypeConflict, "User already a member", nil)
	ErrInvalidInput         = NewDomainError(ErrorTypeValidation, "invalid input", nil)
)

// AsDomainError returns the first DomainError in err's chain
func AsDomainError(err error) (*DomainError, bool) {
	var domainErr *DomainError
	ok := errors.As(err, &domainErr)
	return domainErr, ok
}

// GetErrorType returns the ErrorType of a domain error, or "" for any other error
func GetErrorType(err error) ErrorType {
	if domainErr, ok := AsDomainError(err); ok {
		return domainErr.Type
	}
	return ""
}

// GetErrorDetails returns the details of a domain error, or nil
func GetErrorDetails(err error) map[string]interface{} {
	if domainErr, ok := AsDomainError(err); ok {
		return domainErr.Details
	}
	return nil
}

// WrapInternal wraps an error as an internal error
func WrapInternal(message string, err error) error {
	return NewDomainError(ErrorTypeInternal, message, err)
}
