package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tenantflow/tenantflow/internal/shared"
)

func decodeProblem(t *testing.T, rec *httptest.ResponseRecorder) ProblemDetail {
	t.Helper()
	var problem ProblemDetail
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	return problem
}

func TestRespondErrorStatus(t *testing.T) {
	cases := []struct {
		err    error
		status int
		kind   string
	}{
		{shared.ErrMissingCredential, http.StatusUnauthorized, shared.KindMissingCredential},
		{shared.ErrMalformedCredential, http.StatusUnauthorized, shared.KindMalformedCredential},
		{shared.ErrInvalidCredential, http.StatusUnauthorized, shared.KindInvalidCredential},
		{shared.ErrTenantAccessDenied, http.StatusForbidden, shared.KindTenantAccessDenied},
		{shared.ErrForbidden, http.StatusForbidden, shared.KindForbidden},
		{shared.ErrQuotaExceeded, http.StatusForbidden, shared.KindQuotaExceeded},
		{shared.ErrNotFound, http.StatusNotFound, shared.KindNotFound},
		{shared.ErrInvalidReference, http.StatusBadRequest, shared.KindInvalidReference},
		{shared.Validationf("name is required"), http.StatusBadRequest, shared.KindValidation},
		{shared.ErrConflict, http.StatusConflict, shared.KindConflict},
		{errors.New("db down"), http.StatusInternalServerError, shared.KindUnexpected},
	}
	for _, tc := range cases {
		t.Run(tc.kind, func(t *testing.T) {
			rec := httptest.NewRecorder()
			RespondError(rec, tc.err)
			assert.Equal(t, tc.status, rec.Code)
			assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
			assert.Equal(t, tc.kind, decodeProblem(t, rec).Kind)
		})
	}
}

func TestCrossTenantRendersAsNotFound(t *testing.T) {
	missing := httptest.NewRecorder()
	RespondError(missing, fmt.Errorf("%w: project", shared.ErrNotFound))

	foreign := httptest.NewRecorder()
	RespondError(foreign, shared.ErrCrossTenant)

	assert.Equal(t, missing.Code, foreign.Code)
	assert.Equal(t, missing.Body.String(), foreign.Body.String())
}

func TestUnexpectedErrorHidesDetail(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondError(rec, errors.New("pq: password authentication failed"))
	assert.Empty(t, decodeProblem(t, rec).Detail)
}

func TestCredentialDetailIsGeneric(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondError(rec, fmt.Errorf("%w: token has invalid claims: token is expired", shared.ErrInvalidCredential))
	assert.Equal(t, "invalid credential", decodeProblem(t, rec).Detail)
}

type bindTarget struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"required,email"`
}

func TestBindValidation(t *testing.T) {
	v := NewValidator()

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"x","email":"nope"}`))
	var target bindTarget
	err := Bind(req, v, &target)
	require.ErrorIs(t, err, shared.ErrValidation)
	assert.Contains(t, err.Error(), "email failed email")

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"x","extra":1}`))
	err = Bind(req, v, &target)
	assert.ErrorIs(t, err, shared.ErrValidation)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"x","email":"a@b.co"}`))
	require.NoError(t, Bind(req, v, &target))
	assert.Equal(t, "a@b.co", target.Email)
}

type normalizedTarget struct {
	Code string `json:"code" validate:"required,lowercase"`
}

func (n *normalizedTarget) Normalize() { n.Code = strings.ToLower(strings.TrimSpace(n.Code)) }

func TestBindNormalizesBeforeValidation(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"code":"  ACME "}`))
	var target normalizedTarget
	require.NoError(t, Bind(req, NewValidator(), &target))
	assert.Equal(t, "acme", target.Code)
}
