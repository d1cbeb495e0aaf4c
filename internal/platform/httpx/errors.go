// Package httpx provides HTTP response utilities.
package httpx

import (
	"errors"
	"net/http"

	"github.com/tenantflow/tenantflow/internal/shared"
)

// notFoundDetail is shared by missing and cross-tenant resources so the two are indistinguishable.
const notFoundDetail = "resource not found"

// StatusFor maps a failure kind to its HTTP status code.
func StatusFor(kind string) int {
	switch kind {
	case shared.KindMissingCredential, shared.KindMalformedCredential, shared.KindInvalidCredential:
		return http.StatusUnauthorized
	case shared.KindTenantAccessDenied, shared.KindForbidden, shared.KindQuotaExceeded:
		return http.StatusForbidden
	case shared.KindNotFound:
		return http.StatusNotFound
	case shared.KindInvalidReference, shared.KindValidation:
		return http.StatusBadRequest
	case shared.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// RespondError maps domain errors to HTTP responses using RFC7807.
func RespondError(w http.ResponseWriter, err error) {
	kind := shared.Kind(err)
	status := StatusFor(kind)
	detail := err.Error()
	switch {
	case kind == shared.KindNotFound:
		detail = notFoundDetail
	case kind == shared.KindUnexpected:
		detail = ""
	case errors.Is(err, shared.ErrInvalidCredential), errors.Is(err, shared.ErrMalformedCredential):
		// never echo token parser internals
		detail = kindDetail(kind)
	}
	Problem(w, status, http.StatusText(status), detail, kind)
}

func kindDetail(kind string) string {
	switch kind {
	case shared.KindMalformedCredential:
		return "malformed credential"
	default:
		return "invalid credential"
	}
}
