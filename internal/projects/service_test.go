package projects

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
	service *Service
}

func setupTest() *testSetup {
	repo := newMockRepository()
	rec := &recordingAudit{}
	svc := NewService(repo, ownership.NewChecker(repo), quota.NewEnforcer(nil), rec, nil)
	n := 0
	svc.newID = func() string {
		n++
		return fmt.Sprintf("p-%d", n)
	}
	repo.limits["tenant-a"] = quota.Limits{MaxUsers: 5, MaxProjects: 3}
	repo.limits["tenant-b"] = quota.Limits{MaxUsers: 5, MaxProjects: 3}
	return &testSetup{repo: repo, audit: rec, service: svc}
}

var (
	adminA   = rbac.Principal{UserID: "admin-a", TenantID: "tenant-a", Role: rbac.RoleTenantAdmin}
	memberA  = rbac.Principal{UserID: "member-a", TenantID: "tenant-a", Role: rbac.RoleUser}
	member2A = rbac.Principal{UserID: "member-2a", TenantID: "tenant-a", Role: rbac.RoleUser}
	memberB  = rbac.Principal{UserID: "member-b", TenantID: "tenant-b", Role: rbac.RoleUser}
	root     = rbac.Principal{UserID: "root", Role: rbac.RoleSuperAdmin}
)

func newProject(name string) CreateInput {
	in := CreateInput{Name: name}
	in.Normalize()
	return in
}

func TestCreateProjectSetsOwnership(t *testing.T) {
	ts := setupTest()
	created, err := ts.service.Create(context.Background(), memberA, newProject("Roadmap"))
	require.NoError(t, err)
	assert.Equal(t, "tenant-a", created.TenantID)
	assert.Equal(t, "member-a", created.CreatedBy)
	assert.Equal(t, StatusActive, created.Status)

	require.Len(t, ts.audit.entries, 1)
	assert.Equal(t, audit.ActionCreateProject, ts.audit.entries[0].Action)
	assert.Equal(t, created.ID, ts.audit.entries[0].EntityID)
}

func TestProjectQuotaWithDeleteThenCreate(t *testing.T) {
	ts := setupTest()
	ctx := context.Background()

	var ids []string
	for i := 0; i < 3; i++ {
		p, err := ts.service.Create(ctx, memberA, newProject(fmt.Sprintf("P%d", i)))
		require.NoError(t, err)
		ids = append(ids, p.ID)
	}

	_, err := ts.service.Create(ctx, memberA, newProject("one too many"))
	require.ErrorIs(t, err, shared.ErrQuotaExceeded)
	assert.Len(t, ts.repo.projects, 3)

	require.NoError(t, ts.service.Delete(ctx, adminA, ids[0]))
	_, err = ts.service.Create(ctx, memberA, newProject("fits again"))
	require.NoError(t, err)
	assert.Len(t, ts.repo.projects, 3)
}

func TestQuotaIsPerTenant(t *testing.T) {
	ts := setupTest()
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		ts.repo.add(fmt.Sprintf("a%d", i), "tenant-a", "member-a")
	}
	_, err := ts.service.Create(ctx, memberB, newProject("B"))
	assert.NoError(t, err)
}

func TestSuperAdminCannotCreateProject(t *testing.T) {
	ts := setupTest()
	_, err := ts.service.Create(context.Background(), root, newProject("x"))
	assert.ErrorIs(t, err, shared.ErrTenantAccessDenied)
}

func TestListProjects(t *testing.T) {
	ts := setupTest()
	ctx := context.Background()
	ts.repo.add("a1", "tenant-a", "member-a")
	ts.repo.add("a2", "tenant-a", "admin-a")
	ts.repo.add("b1", "tenant-b", "member-b")

	list, err := ts.service.List(ctx, memberA, ListFilters{})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "a2", list[0].ID, "newest first")

	_, err = ts.service.List(ctx, memberA, ListFilters{TenantID: "tenant-b"})
	assert.ErrorIs(t, err, shared.ErrForbidden)

	_, err = ts.service.List(ctx, root, ListFilters{})
	assert.ErrorIs(t, err, shared.ErrValidation)

	list, err = ts.service.List(ctx, root, ListFilters{TenantID: "tenant-b"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "b1", list[0].ID)
}

func TestGetProjectAcrossTenantsIsNotFound(t *testing.T) {
	ts := setupTest()
	ts.repo.add("a1", "tenant-a", "member-a")

	got, err := ts.service.Get(context.Background(), member2A, "a1")
	require.NoError(t, err)
	assert.Equal(t, "a1", got.ID)

	_, err = ts.service.Get(context.Background(), memberB, "a1")
	assert.ErrorIs(t, err, shared.ErrCrossTenant)
	assert.Equal(t, shared.KindNotFound, shared.Kind(err))
}

func TestUpdateProjectCreatorOrAdmin(t *testing.T) {
	ts := setupTest()
	ctx := context.Background()
	ts.repo.add("a1", "tenant-a", "member-a")
	name := "Renamed"

	_, err := ts.service.Update(ctx, member2A, "a1", UpdateInput{Name: &name})
	require.ErrorIs(t, err, shared.ErrForbidden)
	assert.Equal(t, "Project a1", ts.repo.projects["a1"].Name)

	updated, err := ts.service.Update(ctx, memberA, "a1", UpdateInput{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Name)

	status := StatusArchived
	_, err = ts.service.Update(ctx, adminA, "a1", UpdateInput{Status: &status})
	require.NoError(t, err)
	assert.Equal(t, StatusArchived, ts.repo.projects["a1"].Status)

	_, err = ts.service.Update(ctx, memberB, "a1", UpdateInput{Name: &name})
	assert.Equal(t, shared.KindNotFound, shared.Kind(err))
	assert.Len(t, ts.audit.entries, 2)
}

func TestDeleteProjectPermissions(t *testing.T) {
	ts := setupTest()
	ctx := context.Background()
	ts.repo.add("a1", "tenant-a", "member-a")

	require.ErrorIs(t, ts.service.Delete(ctx, member2A, "a1"), shared.ErrForbidden)
	assert.Equal(t, shared.KindNotFound, shared.Kind(ts.service.Delete(ctx, memberB, "a1")))
	assert.Contains(t, ts.repo.projects, "a1")

	require.NoError(t, ts.service.Delete(ctx, memberA, "a1"))
	assert.NotContains(t, ts.repo.projects, "a1")
	require.Len(t, ts.audit.entries, 1)
	assert.Equal(t, audit.ActionDeleteProject, ts.audit.entries[0].Action)
}

func TestFailedInsertRecordsNothing(t *testing.T) {
	ts := setupTest()
	ts.repo.insertErr = fmt.Errorf("boom")
	_, err := ts.service.Create(context.Background(), memberA, newProject("x"))
	require.Error(t, err)
	assert.Empty(t, ts.audit.entries)
	assert.Empty(t, ts.repo.projects)
}
