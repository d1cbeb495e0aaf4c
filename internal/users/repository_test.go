package users

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/tenantflow/tenantflow/internal/audit"
	"github.com/tenantflow/tenantflow/internal/ownership"
	"github.com/tenantflow/tenantflow/internal/quota"
	"github.com/tenantflow/tenantflow/internal/rbac"
	"github.com/tenantflow/tenantflow/internal/shared"
)

// ============================================================================
// MOCK REPOSITORY
// ============================================================================

type mockRepository struct {
	users  map[string]User
	limits map[string]quota.Limits
	seq    int
	now    time.Time
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		users:  make(map[string]User),
		limits: make(map[string]quota.Limits),
		now:    time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC),
	}
}

func (m *mockRepository) addUser(id, tenantID string, role rbac.Role) User {
	m.seq++
	u := User{
		ID: id, TenantID: tenantID, Email: id + "@example.test", FullName: "User " + id,
		Role: role, IsActive: true, CreatedAt: m.now.Add(time.Duration(m.seq) * time.Minute),
	}
	m.users[id] = u
	return u
}

func (m *mockRepository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	tx := &mockTx{mock: m}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	for _, u := range tx.inserted {
		m.users[u.ID] = u
	}
	return nil
}

func (m *mockRepository) Get(_ context.Context, id string) (User, error) {
	u, ok := m.users[id]
	if !ok {
		return User{}, fmt.Errorf("%w: user", shared.ErrNotFound)
	}
	return u, nil
}

func (m *mockRepository) List(_ context.Context, tenantID string, f ListFilters) ([]User, error) {
	var out []User
	for _, u := range m.users {
		if u.TenantID != tenantID {
			continue
		}
		if f.Role != "" && string(u.Role) != f.Role {
			continue
		}
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *mockRepository) Update(_ context.Context, id string, in UpdateInput) (User, error) {
	u, ok := m.users[id]
	if !ok {
		return User{}, fmt.Errorf("%w: user", shared.ErrNotFound)
	}
	if in.FullName != nil {
		u.FullName = *in.FullName
	}
	if in.Role != nil {
		u.Role = rbac.Role(*in.Role)
	}
	if in.IsActive != nil {
		u.IsActive = *in.IsActive
	}
	m.users[id] = u
	return u, nil
}

func (m *mockRepository) Delete(_ context.Context, id string) error {
	if _, ok := m.users[id]; !ok {
		return fmt.Errorf("%w: user", shared.ErrNotFound)
	}
	delete(m.users, id)
	return nil
}

// Resource lets the mock back the real ownership.Checker.
func (m *mockRepository) Resource(_ context.Context, ref ownership.Ref) (ownership.Resource, error) {
	u, ok := m.users[ref.ID]
	if !ok || ref.Kind != ownership.KindUser {
		return ownership.Resource{}, shared.ErrNotFound
	}
	return ownership.Resource{Ref: ref, TenantID: u.TenantID, CreatedBy: u.ID}, nil
}

type mockTx struct {
	mock     *mockRepository
	inserted []User
}

func (tx *mockTx) Limits(_ context.Context, tenantID string) (quota.Limits, error) {
	l, ok := tx.mock.limits[tenantID]
	if !ok {
		return quota.Limits{}, fmt.Errorf("%w: tenant", shared.ErrNotFound)
	}
	return l, nil
}

func (tx *mockTx) Count(_ context.Context, tenantID string, _ quota.Resource) (int, error) {
	n := len(tx.inserted)
	for _, u := range tx.mock.users {
		if u.TenantID == tenantID {
			n++
		}
	}
	return n, nil
}

func (tx *mockTx) Insert(_ context.Context, nu NewUser) (User, error) {
	for _, u := range tx.mock.users {
		if u.TenantID == nu.TenantID && u.Email == nu.Email {
			return User{}, fmt.Errorf("%w: email already exists", shared.ErrConflict)
		}
	}
	u := User{
		ID: nu.ID, TenantID: nu.TenantID, Email: nu.Email, FullName: nu.FullName,
		Role: nu.Role, IsActive: true, CreatedAt: tx.mock.now,
	}
	tx.inserted = append(tx.inserted, u)
	return u, nil
}

var (
	_ Repository       = (*mockRepository)(nil)
	_ ownership.Lookup = (*mockRepository)(nil)
)

type fakeHasher struct{}

func (fakeHasher) Hash(password string) (string, error) { return "hashed:" + password, nil }

type recordingAudit struct {
	entries []audit.Entry
}

func (r *recordingAudit) Record(_ context.Context, e audit.Entry) {
	r.entries = append(r.entries, e)
}

type quotaCounter struct {
	rejected []string
}

func (q *quotaCounter) ObserveQuotaRejection(resource string) {
	q.rejected = append(q.rejected, resource)
}
