package rbac

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tenantflow/tenantflow/internal/shared"
)

func TestScopeFor(t *testing.T) {
	scope, err := ScopeFor(Principal{UserID: "sa", Role: RoleSuperAdmin})
	require.NoError(t, err)
	assert.True(t, scope.Unscoped)
	assert.True(t, scope.Includes("any-tenant"))

	scope, err = ScopeFor(Principal{UserID: "u1", TenantID: "t1", Role: RoleUser})
	require.NoError(t, err)
	assert.Equal(t, Scope{TenantID: "t1"}, scope)
	assert.True(t, scope.Includes("t1"))
	assert.False(t, scope.Includes("t2"))
	assert.False(t, scope.Includes(""))

	_, err = ScopeFor(Principal{UserID: "u2", Role: RoleTenantAdmin})
	assert.ErrorIs(t, err, shared.ErrTenantAccessDenied)
}

func TestScopeSelect(t *testing.T) {
	scoped := Scope{TenantID: "t1"}
	got, err := scoped.Select("")
	require.NoError(t, err)
	assert.Equal(t, "t1", got)

	got, err = scoped.Select("t1")
	require.NoError(t, err)
	assert.Equal(t, "t1", got)

	_, err = scoped.Select("t2")
	assert.ErrorIs(t, err, shared.ErrForbidden)

	unscoped := Scope{Unscoped: true}
	_, err = unscoped.Select("")
	assert.ErrorIs(t, err, shared.ErrValidation)

	got, err = unscoped.Select("t9")
	require.NoError(t, err)
	assert.Equal(t, "t9", got)
}
