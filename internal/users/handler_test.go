package users

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tenantflow/tenantflow/internal/rbac"
	"github.com/tenantflow/tenantflow/internal/shared"
)

func serve(ts *testSetup, p rbac.Principal, method, target, body string) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(rbac.WithPrincipal(req.Context(), p)))
		})
	})
	NewHandler(nil, ts.service).MountRoutes(r)
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestCreateUserEndpoint(t *testing.T) {
	ts := setupTest()
	rec := serve(ts, adminA, http.MethodPost, "/tenants/tenant-a/users",
		`{"email":"New@A.test","password":"password-1","fullName":"New Person"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var body struct {
		Data User `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "new@a.test", body.Data.Email)
	assert.Equal(t, rbac.RoleUser, body.Data.Role)
}

func TestCreateUserEndpointRejectsSuperAdminRole(t *testing.T) {
	ts := setupTest()
	rec := serve(ts, adminA, http.MethodPost, "/tenants/tenant-a/users",
		`{"email":"x@a.test","password":"password-1","fullName":"X","role":"super_admin"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateUserEndpointQuota(t *testing.T) {
	ts := setupTest()
	ts.repo.addUser("third", "tenant-a", rbac.RoleUser)
	rec := serve(ts, adminA, http.MethodPost, "/tenants/tenant-a/users",
		`{"email":"x@a.test","password":"password-1","fullName":"X"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), shared.KindQuotaExceeded)
}

func TestSelfDeleteEndpointForbidden(t *testing.T) {
	ts := setupTest()
	rec := serve(ts, adminA, http.MethodDelete, "/users/admin-a", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestListUsersEndpointRoleFilter(t *testing.T) {
	ts := setupTest()
	rec := serve(ts, memberA, http.MethodGet, "/tenants/tenant-a/users?role=owner", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(ts, memberA, http.MethodGet, "/tenants/tenant-a/users?role=user", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Data []User `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Data, 1)
	assert.Equal(t, "member-a", body.Data[0].ID)
}
