package projects

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/tenantflow/tenantflow/internal/audit"
	"github.com/tenantflow/tenantflow/internal/ownership"
	"github.com/tenantflow/tenantflow/internal/quota"
	"github.com/tenantflow/tenantflow/internal/shared"
)

// ============================================================================
// MOCK REPOSITORY
// ============================================================================

type mockRepository struct {
	projects map[string]Project
	limits   map[string]quota.Limits
	seq      int
	base     time.Time

	insertErr error
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		projects: make(map[string]Project),
		limits:   make(map[string]quota.Limits),
		base:     time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func (m *mockRepository) tick() time.Time {
	m.seq++
	return m.base.Add(time.Duration(m.seq) * time.Minute)
}

func (m *mockRepository) add(id, tenantID, createdBy string) Project {
	p := Project{ID: id, TenantID: tenantID, Name: "Project " + id, Status: StatusActive, CreatedBy: createdBy, CreatedAt: m.tick()}
	m.projects[id] = p
	return p
}

func (m *mockRepository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	tx := &mockTx{mock: m}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	for _, p := range tx.inserted {
		m.projects[p.ID] = p
	}
	return nil
}

func (m *mockRepository) Get(_ context.Context, id string) (Project, error) {
	p, ok := m.projects[id]
	if !ok {
		return Project{}, fmt.Errorf("%w: project", shared.ErrNotFound)
	}
	return p, nil
}

func (m *mockRepository) List(_ context.Context, tenantID string, f ListFilters) ([]Project, error) {
	var out []Project
	for _, p := range m.projects {
		if p.TenantID == tenantID && (f.Status == "" || p.Status == f.Status) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *mockRepository) Update(_ context.Context, id string, in UpdateInput) (Project, error) {
	p, ok := m.projects[id]
	if !ok {
		return Project{}, fmt.Errorf("%w: project", shared.ErrNotFound)
	}
	if in.Name != nil {
		p.Name = *in.Name
	}
	if in.Description != nil {
		p.Description = *in.Description
	}
	if in.Status != nil {
		p.Status = *in.Status
	}
	m.projects[id] = p
	return p, nil
}

func (m *mockRepository) Delete(_ context.Context, id string) error {
	if _, ok := m.projects[id]; !ok {
		return fmt.Errorf("%w: project", shared.ErrNotFound)
	}
	delete(m.projects, id)
	return nil
}

func (m *mockRepository) Resource(_ context.Context, ref ownership.Ref) (ownership.Resource, error) {
	p, ok := m.projects[ref.ID]
	if !ok || ref.Kind != ownership.KindProject {
		return ownership.Resource{}, shared.ErrNotFound
	}
	return ownership.Resource{Ref: ref, TenantID: p.TenantID, CreatedBy: p.CreatedBy}, nil
}

type mockTx struct {
	mock     *mockRepository
	inserted []Project
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
	for _, p := range tx.mock.projects {
		if p.TenantID == tenantID {
			n++
		}
	}
	return n, nil
}

func (tx *mockTx) Insert(_ context.Context, np NewProject) (Project, error) {
	if tx.mock.insertErr != nil {
		return Project{}, tx.mock.insertErr
	}
	p := Project{
		ID: np.ID, TenantID: np.TenantID, Name: np.Name, Description: np.Description,
		Status: np.Status, CreatedBy: np.CreatedBy, CreatedAt: tx.mock.tick(),
	}
	tx.inserted = append(tx.inserted, p)
	return p, nil
}

var (
	_ Repository       = (*mockRepository)(nil)
	_ ownership.Lookup = (*mockRepository)(nil)
)

type recordingAudit struct {
	entries []audit.Entry
}

func (r *recordingAudit) Record(_ context.Context, e audit.Entry) {
	r.entries = append(r.entries, e)
}
