package dto

import (
	"net/http"
	"strings"
)

// Transport-level error codes
const (
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "INTERNAL_ERROR"
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "BAD_REQUEST"
	// ErrCodeNotFound is used when a resource is not found
	ErrCodeNotFound = "NOT_FOUND"
	// ErrCodeUnauthorized is used when authentication is required but missing/invalid
	ErrCodeUnauthorized = "UNAUTHORIZED"
	// ErrCodeForbidden is used when the user lacks permission
	ErrCodeForbidden = "FORBIDDEN"
)

// domainErrorStatus maps domain error codes to HTTP status codes for codes
// that don't follow the naming conventions handled in GetHTTPStatus.
var domainErrorStatus = map[string]int{
	ErrCodeNotFound:     http.StatusNotFound,
	ErrCodeUnauthorized: http.StatusUnauthorized,
	ErrCodeForbidden:    http.StatusForbidden,
	ErrCodeBadRequest:   http.StatusBadRequest,
	ErrCodeInternal:     http.StatusInternalServerError,

	// Auth failures never distinguish unknown user from bad password
	"INVALID_CREDENTIALS": http.StatusUnauthorized,
	"INVALID_TOKEN":       http.StatusUnauthorized,
	"ACCOUNT_LOCKED":      http.StatusForbidden,

	// Uniqueness conflicts
	"ALREADY_EXISTS": http.StatusConflict,
	"CODE_TAKEN":     http.StatusConflict,
	"SKU_TAKEN":      http.StatusConflict,
	"USERNAME_TAKEN": http.StatusConflict,
	"EMAIL_TAKEN":    http.StatusConflict,

	// Optimistic locking
	"CONCURRENCY_CONFLICT": http.StatusConflict,

	// Business rule violations -> 422 Unprocessable Entity
	"INVALID_STATE":       http.StatusUnprocessableEntity,
	"ALREADY_PAID":        http.StatusUnprocessableEntity,
	"EXCEEDS_OUTSTANDING": http.StatusUnprocessableEntity,
	"EXCEEDS_PAID":        http.StatusUnprocessableEntity,
	"EMPTY_ITEMS":         http.StatusUnprocessableEntity,
	"HAS_PAYMENTS":        http.StatusUnprocessableEntity,
	"HAS_INVOICES":        http.StatusUnprocessableEntity,
	"HAS_UNPAID_INVOICES": http.StatusUnprocessableEntity,
	"INSUFFICIENT_STOCK":  http.StatusUnprocessableEntity,
	"INSUFFICIENT_POINTS": http.StatusUnprocessableEntity,
	"CUSTOMER_INACTIVE":   http.StatusUnprocessableEntity,
	"PRODUCT_INACTIVE":    http.StatusUnprocessableEntity,
	"INVOICE_MISMATCH":    http.StatusUnprocessableEntity,
	"INVALID_REASON":      http.StatusUnprocessableEntity,
	"ALREADY_ACTIVE":      http.StatusUnprocessableEntity,
	"ALREADY_INACTIVE":    http.StatusUnprocessableEntity,
	"ALREADY_DEACTIVATED": http.StatusUnprocessableEntity,

	"PASSWORD_HASH_ERROR": http.StatusInternalServerError,
}

// GetHTTPStatus returns the HTTP status code for a domain error code.
// Codes not in the explicit map fall back on naming conventions:
// *_NOT_FOUND is 404, *_TAKEN is 409, INVALID_* is 400. Anything else
// is treated as an internal error.
func GetHTTPStatus(code string) int {
	if status, ok := domainErrorStatus[code]; ok {
		return status
	}
	switch {
	case strings.HasSuffix(code, "_NOT_FOUND"):
		return http.StatusNotFound
	case strings.HasSuffix(code, "_TAKEN"):
		return http.StatusConflict
	case strings.HasPrefix(code, "INVALID_"):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
