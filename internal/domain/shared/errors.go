package shared

import (
	"errors"
	"fmt"
)

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Is matches domain errors by code so wrapped or re-created errors compare equal
func (e *DomainError) Is(target error) bool {
	var other *DomainError
	if !errors.As(target, &other) {
		return false
	}
	return e.Code == other.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// NewValidationError creates a VALIDATION_ERROR with a formatted message
func NewValidationError(format string, args ...any) *DomainError {
	return NewDomainError(CodeValidation, fmt.Sprintf(format, args...))
}

// NewNotFoundError creates a NOT_FOUND error naming the missing resource
func NewNotFoundError(resource string, id any) *DomainError {
	return NewDomainError(CodeNotFound, fmt.Sprintf("%s not found: %v", resource, id))
}

// Error codes shared across layers
const (
	CodeValidation                = "VALIDATION_ERROR"
	CodeNotFound                  = "NOT_FOUND"
	CodeInsufficientCreditBalance = "INSUFFICIENT_CREDIT_BALANCE"
	CodeExcessPayment             = "EXCESS_PAYMENT"
	CodeConcurrentModification    = "CONCURRENT_MODIFICATION"
	CodeInvalidState              = "INVALID_STATE"
	CodeDuplicateRequest          = "DUPLICATE_REQUEST"
)

// Common domain errors
var (
	ErrNotFound               = NewDomainError(CodeNotFound, "Resource not found")
	ErrInvalidInput           = NewDomainError(CodeValidation, "Invalid input provided")
	ErrConcurrentModification = NewDomainError(CodeConcurrentModification, "Resource was modified by another process")
	ErrInvalidState           = NewDomainError(CodeInvalidState, "Operation not allowed in current state")
	ErrInsufficientCredit     = NewDomainError(CodeInsufficientCreditBalance, "Insufficient credit balance available")
	ErrExcessPayment          = NewDomainError(CodeExcessPayment, "Payment exceeds the outstanding balance of the selected invoices")
	ErrDuplicateRequest       = NewDomainError(CodeDuplicateRequest, "Request has already been processed")
)

// ErrorCode extracts the domain error code from err, or "" when err is not a DomainError
func ErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}
