package users

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tenantflow/tenantflow/internal/audit"
	"github.com/tenantflow/tenantflow/internal/ownership"
	"github.com/tenantflow/tenantflow/internal/quota"
	"github.com/tenantflow/tenantflow/internal/rbac"
	"github.com/tenantflow/tenantflow/internal/shared"
)

type testSetup struct {
	repo    *mockRepository
	audit   *recordingAudit
	quota   *quotaCounter
	service *Service
}

func setupTest() *testSetup {
	repo := newMockRepository()
	rec := &recordingAudit{}
	qc := &quotaCounter{}
	svc := NewService(repo, ownership.NewChecker(repo), quota.NewEnforcer(qc), fakeHasher{}, rec, nil)
	n := 0
	svc.newID = func() string {
		n++
		return fmt.Sprintf("new-%d", n)
	}
	repo.limits["tenant-a"] = quota.Limits{MaxUsers: 3, MaxProjects: 3}
	repo.limits["tenant-b"] = quota.Limits{MaxUsers: 5, MaxProjects: 3}
	repo.addUser("admin-a", "tenant-a", rbac.RoleTenantAdmin)
	repo.addUser("member-a", "tenant-a", rbac.RoleUser)
	repo.addUser("admin-b", "tenant-b", rbac.RoleTenantAdmin)
	return &testSetup{repo: repo, audit: rec, quota: qc, service: svc}
}

var (
	adminA  = rbac.Principal{UserID: "admin-a", TenantID: "tenant-a", Role: rbac.RoleTenantAdmin}
	memberA = rbac.Principal{UserID: "member-a", TenantID: "tenant-a", Role: rbac.RoleUser}
	adminB  = rbac.Principal{UserID: "admin-b", TenantID: "tenant-b", Role: rbac.RoleTenantAdmin}
	root    = rbac.Principal{UserID: "root", Role: rbac.RoleSuperAdmin}
)

func invite(email string) CreateInput {
	in := CreateInput{Email: email, Password: "password-1", FullName: "New Person"}
	in.Normalize()
	return in
}

func TestCreateUserUpToQuota(t *testing.T) {
	ts := setupTest()
	ctx := context.Background()

	created, err := ts.service.Create(ctx, adminA, "tenant-a", invite("third@a.test"))
	require.NoError(t, err, "the maxUsers-th user fits")
	assert.Equal(t, rbac.RoleUser, created.Role)
	assert.Equal(t, "tenant-a", created.TenantID)

	_, err = ts.service.Create(ctx, adminA, "tenant-a", invite("fourth@a.test"))
	require.ErrorIs(t, err, shared.ErrQuotaExceeded)
	assert.Equal(t, shared.KindQuotaExceeded, shared.Kind(err))
	assert.Len(t, ts.repo.users, 4)
	assert.Equal(t, []string{"users"}, ts.quota.rejected)

	require.Len(t, ts.audit.entries, 1)
	assert.Equal(t, audit.ActionCreateUser, ts.audit.entries[0].Action)
	assert.Equal(t, created.ID, ts.audit.entries[0].EntityID)
}

func TestCreateUserRequiresTenantAdmin(t *testing.T) {
	ts := setupTest()
	_, err := ts.service.Create(context.Background(), memberA, "tenant-a", invite("x@a.test"))
	require.ErrorIs(t, err, shared.ErrForbidden)
	assert.Equal(t, shared.KindForbidden, shared.Kind(err))
	assert.Len(t, ts.repo.users, 3)
}

func TestCreateUserInForeignTenantIsNotFound(t *testing.T) {
	ts := setupTest()
	_, err := ts.service.Create(context.Background(), adminB, "tenant-a", invite("x@a.test"))
	assert.Equal(t, shared.KindNotFound, shared.Kind(err))
	assert.Len(t, ts.repo.users, 3)
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	ts := setupTest()
	_, err := ts.service.Create(context.Background(), adminA, "tenant-a", invite("Member-A@example.test"))
	assert.ErrorIs(t, err, shared.ErrConflict)
}

func TestSuperAdminCreatesInAnyTenant(t *testing.T) {
	ts := setupTest()
	created, err := ts.service.Create(context.Background(), root, "tenant-b", invite("x@b.test"))
	require.NoError(t, err)
	assert.Equal(t, "tenant-b", created.TenantID)
}

func TestListUsers(t *testing.T) {
	ts := setupTest()
	ctx := context.Background()

	users, err := ts.service.List(ctx, memberA, "tenant-a", ListFilters{})
	require.NoError(t, err)
	assert.Len(t, users, 2)

	admins, err := ts.service.List(ctx, memberA, "tenant-a", ListFilters{Role: string(rbac.RoleTenantAdmin)})
	require.NoError(t, err)
	require.Len(t, admins, 1)
	assert.Equal(t, "admin-a", admins[0].ID)

	_, err = ts.service.List(ctx, adminB, "tenant-a", ListFilters{})
	assert.Equal(t, shared.KindNotFound, shared.Kind(err))
}

func TestUpdateSelfNameOnly(t *testing.T) {
	ts := setupTest()
	ctx := context.Background()
	name := "Renamed Member"

	updated, err := ts.service.Update(ctx, memberA, "member-a", UpdateInput{FullName: &name})
	require.NoError(t, err)
	assert.Equal(t, "Renamed Member", updated.FullName)

	role := string(rbac.RoleTenantAdmin)
	_, err = ts.service.Update(ctx, memberA, "member-a", UpdateInput{Role: &role})
	require.ErrorIs(t, err, shared.ErrForbidden)
	assert.Equal(t, rbac.RoleUser, ts.repo.users["member-a"].Role)
}

func TestUpdateOtherUserRequiresAdmin(t *testing.T) {
	ts := setupTest()
	name := "Hijack"
	_, err := ts.service.Update(context.Background(), memberA, "admin-a", UpdateInput{FullName: &name})
	assert.ErrorIs(t, err, shared.ErrForbidden)
}

func TestAdminDeactivatesMember(t *testing.T) {
	ts := setupTest()
	inactive := false

	updated, err := ts.service.Update(context.Background(), adminA, "member-a", UpdateInput{IsActive: &inactive})
	require.NoError(t, err)
	assert.False(t, updated.IsActive)
	require.Len(t, ts.audit.entries, 1)
	assert.Equal(t, audit.ActionUpdateUser, ts.audit.entries[0].Action)
}

func TestAdminCannotDemoteSelf(t *testing.T) {
	ts := setupTest()
	role := string(rbac.RoleUser)
	_, err := ts.service.Update(context.Background(), adminA, "admin-a", UpdateInput{Role: &role})
	assert.ErrorIs(t, err, shared.ErrForbidden)
}

func TestUpdateForeignUserIsNotFound(t *testing.T) {
	ts := setupTest()
	name := "x"
	_, err := ts.service.Update(context.Background(), adminB, "member-a", UpdateInput{FullName: &name})
	assert.ErrorIs(t, err, shared.ErrCrossTenant)
	assert.Equal(t, shared.KindNotFound, shared.Kind(err))
}

func TestUpdateRejectsEmptyInput(t *testing.T) {
	ts := setupTest()
	_, err := ts.service.Update(context.Background(), adminA, "member-a", UpdateInput{})
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestTenantAdminCannotDeleteSelf(t *testing.T) {
	ts := setupTest()
	err := ts.service.Delete(context.Background(), adminA, "admin-a")
	require.ErrorIs(t, err, shared.ErrForbidden)
	assert.Equal(t, shared.KindForbidden, shared.Kind(err))
	assert.Contains(t, ts.repo.users, "admin-a")
	assert.Empty(t, ts.audit.entries)
}

func TestDeleteUser(t *testing.T) {
	ts := setupTest()
	ctx := context.Background()

	require.ErrorIs(t, ts.service.Delete(ctx, memberA, "admin-a"), shared.ErrForbidden)
	assert.Equal(t, shared.KindNotFound, shared.Kind(ts.service.Delete(ctx, adminB, "member-a")))
	assert.ErrorIs(t, ts.service.Delete(ctx, adminA, "ghost"), shared.ErrNotFound)

	require.NoError(t, ts.service.Delete(ctx, adminA, "member-a"))
	assert.NotContains(t, ts.repo.users, "member-a")
	require.Len(t, ts.audit.entries, 1)
	assert.Equal(t, audit.ActionDeleteUser, ts.audit.entries[0].Action)
	assert.Equal(t, "tenant-a", ts.audit.entries[0].TenantID)
}
