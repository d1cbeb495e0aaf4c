package tenants

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/tenantflow/tenantflow/internal/audit"
	"github.com/tenantflow/tenantflow/internal/shared"
)

// ============================================================================
// MOCK REPOSITORY
// ============================================================================

type mockRepository struct {
	mu      sync.Mutex
	tenants map[string]Tenant
	admins  map[string]NewAdmin
	stats   map[string]Stats

	// Error injection
	createAdminErr error
	countErr       error

	lastFilters ListFilters
	now         time.Time
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		tenants: make(map[string]Tenant),
		admins:  make(map[string]NewAdmin),
		stats:   make(map[string]Stats),
		now:     time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC),
	}
}

// WithTx stages writes and applies them only when fn succeeds.
func (m *mockRepository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	tx := &mockTx{mock: m}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range tx.tenants {
		m.tenants[t.ID] = t
	}
	for _, a := range tx.admins {
		m.admins[a.ID] = a
	}
	return nil
}

func (m *mockRepository) Get(_ context.Context, id string) (Tenant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tenants[id]
	if !ok {
		return Tenant{}, fmt.Errorf("%w: tenant", shared.ErrNotFound)
	}
	return t, nil
}

func (m *mockRepository) bySubdomain(subdomain string) (Tenant, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.tenants {
		if t.Subdomain == subdomain {
			return t, true
		}
	}
	return Tenant{}, false
}

func (m *mockRepository) List(_ context.Context, f ListFilters) ([]Summary, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastFilters = f
	var all []Summary
	for _, t := range m.tenants {
		if f.Status != "" && t.Status != f.Status {
			continue
		}
		if f.SubscriptionPlan != "" && t.SubscriptionPlan != f.SubscriptionPlan {
			continue
		}
		s := m.stats[t.ID]
		all = append(all, Summary{
			ID: t.ID, Name: t.Name, Subdomain: t.Subdomain, Status: t.Status,
			SubscriptionPlan: t.SubscriptionPlan, TotalUsers: s.TotalUsers, TotalProjects: s.TotalProjects,
			CreatedAt: t.CreatedAt,
		})
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Subdomain < all[j].Subdomain })
	start := (f.Page - 1) * f.PerPage
	if start > len(all) {
		start = len(all)
	}
	end := start + f.PerPage
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], len(all), nil
}

func (m *mockRepository) Count(_ context.Context, tenantID string, what Counted) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.countErr != nil {
		return 0, m.countErr
	}
	s := m.stats[tenantID]
	switch what {
	case CountUsers:
		return s.TotalUsers, nil
	case CountProjects:
		return s.TotalProjects, nil
	default:
		return s.TotalTasks, nil
	}
}

func (m *mockRepository) Update(_ context.Context, id string, in UpdateInput) (Tenant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tenants[id]
	if !ok {
		return Tenant{}, fmt.Errorf("%w: tenant", shared.ErrNotFound)
	}
	if in.Name != nil {
		t.Name = *in.Name
	}
	if in.Status != nil {
		t.Status = *in.Status
	}
	if in.SubscriptionPlan != nil {
		t.SubscriptionPlan = *in.SubscriptionPlan
	}
	if in.MaxUsers != nil {
		t.MaxUsers = *in.MaxUsers
	}
	if in.MaxProjects != nil {
		t.MaxProjects = *in.MaxProjects
	}
	m.tenants[id] = t
	return t, nil
}

type mockTx struct {
	mock    *mockRepository
	tenants []Tenant
	admins  []NewAdmin
}

func (tx *mockTx) CreateTenant(_ context.Context, t Tenant) error {
	if _, taken := tx.mock.bySubdomain(t.Subdomain); taken {
		return fmt.Errorf("%w: subdomain already exists", shared.ErrConflict)
	}
	t.CreatedAt, t.UpdatedAt = tx.mock.now, tx.mock.now
	tx.tenants = append(tx.tenants, t)
	return nil
}

func (tx *mockTx) CreateAdmin(_ context.Context, a NewAdmin) error {
	if tx.mock.createAdminErr != nil {
		return tx.mock.createAdminErr
	}
	tx.admins = append(tx.admins, a)
	return nil
}

var _ Repository = (*mockRepository)(nil)

type fakeHasher struct{}

func (fakeHasher) Hash(password string) (string, error) { return "hashed:" + password, nil }

type recordingAudit struct {
	mu      sync.Mutex
	entries []audit.Entry
}

func (r *recordingAudit) Record(_ context.Context, e audit.Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, e)
}
