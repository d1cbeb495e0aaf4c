package shared

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingCredential indicates the request carried no bearer credential.
	ErrMissingCredential = errors.New("missing credential")
	// ErrMalformedCredential indicates the credential is not a well-formed bearer token.
	ErrMalformedCredential = errors.New("malformed credential")
	// ErrInvalidCredential indicates a failed integrity check, expiry, or bad login.
	ErrInvalidCredential = errors.New("invalid credential")
	// ErrTenantAccessDenied indicates the principal has no usable tenant scope.
	ErrTenantAccessDenied = errors.New("tenant access denied")
	// ErrForbidden indicates the role policy denied the request.
	ErrForbidden = errors.New("forbidden")
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrInvalidReference indicates a request body references an entity outside the caller's tenant.
	ErrInvalidReference = errors.New("invalid reference")
	// ErrQuotaExceeded indicates a tenant subscription limit was reached.
	ErrQuotaExceeded = errors.New("quota exceeded")
	// ErrConflict indicates a uniqueness violation.
	ErrConflict = errors.New("conflict")
	// ErrValidation indicates the request failed input validation.
	ErrValidation = errors.New("validation failed")
)

// ErrCrossTenant is returned when a resource exists but belongs to another tenant.
// It is a Forbidden decision that callers render exactly like ErrNotFound.
var ErrCrossTenant = fmt.Errorf("%w: resource outside tenant scope", ErrForbidden)

// Failure kinds reported to API callers.
const (
	KindMissingCredential   = "MissingCredential"
	KindMalformedCredential = "MalformedCredential"
	KindInvalidCredential   = "InvalidCredential"
	KindTenantAccessDenied  = "TenantAccessDenied"
	KindForbidden           = "Forbidden"
	KindNotFound            = "NotFound"
	KindInvalidReference    = "InvalidReference"
	KindQuotaExceeded       = "QuotaExceeded"
	KindConflict            = "Conflict"
	KindValidation          = "ValidationFailed"
	KindUnexpected          = "Unexpected"
)

// Kind classifies err into one of the stable failure kinds.
// Cross-tenant denials classify as NotFound so callers cannot probe other tenants.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrMissingCredential):
		return KindMissingCredential
	case errors.Is(err, ErrMalformedCredential):
		return KindMalformedCredential
	case errors.Is(err, ErrInvalidCredential):
		return KindInvalidCredential
	case errors.Is(err, ErrTenantAccessDenied):
		return KindTenantAccessDenied
	case errors.Is(err, ErrCrossTenant), errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrQuotaExceeded):
		return KindQuotaExceeded
	case errors.Is(err, ErrForbidden):
		return KindForbidden
	case errors.Is(err, ErrInvalidReference):
		return KindInvalidReference
	case errors.Is(err, ErrConflict):
		return KindConflict
	case errors.Is(err, ErrValidation):
		return KindValidation
	default:
		return KindUnexpected
	}
}

// Validationf wraps a formatted message with ErrValidation.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
