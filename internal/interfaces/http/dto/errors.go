package dto

import (
	"net/http"

	"github.com/erp/receipts/internal/domain/shared"
)

// Error codes returned in the response envelope.
// Domain codes are reused verbatim so clients see one vocabulary.
const (
	ErrCodeValidation                = shared.CodeValidation
	ErrCodeNotFound                  = shared.CodeNotFound
	ErrCodeInsufficientCreditBalance = shared.CodeInsufficientCreditBalance
	ErrCodeExcessPayment             = shared.CodeExcessPayment
	ErrCodeConcurrentModification    = shared.CodeConcurrentModification
	ErrCodeInvalidState              = shared.CodeInvalidState
	ErrCodeDuplicateRequest          = shared.CodeDuplicateRequest

	ErrCodeBadRequest      = "BAD_REQUEST"
	ErrCodeRequestTooLarge = "REQUEST_TOO_LARGE"
	ErrCodeUnavailable     = "SERVICE_UNAVAILABLE"
	ErrCodeInternal        = "INTERNAL_ERROR"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeValidation:                http.StatusBadRequest,
	ErrCodeBadRequest:                http.StatusBadRequest,
	ErrCodeNotFound:                  http.StatusNotFound,
	ErrCodeInsufficientCreditBalance: http.StatusUnprocessableEntity,
	ErrCodeExcessPayment:             http.StatusUnprocessableEntity,
	ErrCodeInvalidState:              http.StatusUnprocessableEntity,
	ErrCodeConcurrentModification:    http.StatusConflict,
	ErrCodeDuplicateRequest:          http.StatusConflict,
	ErrCodeRequestTooLarge:           http.StatusRequestEntityTooLarge,
	ErrCodeUnavailable:               http.StatusServiceUnavailable,
	ErrCodeInternal:                  http.StatusInternalServerError,
}

// GetHTTPStatus returns the HTTP status for code, 500 when unknown
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
