package tasks

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/tenantflow/tenantflow/internal/audit"
	"github.com/tenantflow/tenantflow/internal/ownership"
	"github.com/tenantflow/tenantflow/internal/shared"
)

// ============================================================================
// MOCK REPOSITORY
// ============================================================================

type mockRepository struct {
	tasks    map[string]Task
	projects map[string]string // project id -> tenant id
	users    map[string]string // user id -> tenant id
	seq      int
	base     time.Time
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		tasks:    make(map[string]Task),
		projects: make(map[string]string),
		users:    make(map[string]string),
		base:     time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func (m *mockRepository) tick() time.Time {
	m.seq++
	return m.base.Add(time.Duration(m.seq) * time.Minute)
}

func (m *mockRepository) add(id, projectID, priority string, due *string) Task {
	t := Task{
		ID: id, ProjectID: projectID, TenantID: m.projects[projectID], Title: "Task " + id,
		Status: StatusTodo, Priority: priority, DueDate: due, CreatedAt: m.tick(),
	}
	m.tasks[id] = t
	return t
}

func (m *mockRepository) Get(_ context.Context, id string) (Task, error) {
	t, ok := m.tasks[id]
	if !ok {
		return Task{}, fmt.Errorf("%w: task", shared.ErrNotFound)
	}
	return t, nil
}

func priorityRank(p string) int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	default:
		return 2
	}
}

func (m *mockRepository) List(_ context.Context, projectID string, f ListFilters) ([]Task, error) {
	var out []Task
	for _, t := range m.tasks {
		if t.ProjectID != projectID {
			continue
		}
		if f.Status != "" && t.Status != f.Status {
			continue
		}
		if f.Priority != "" && t.Priority != f.Priority {
			continue
		}
		if f.AssignedTo != "" && (t.AssignedTo == nil || *t.AssignedTo != f.AssignedTo) {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if ra, rb := priorityRank(a.Priority), priorityRank(b.Priority); ra != rb {
			return ra < rb
		}
		switch {
		case a.DueDate != nil && b.DueDate == nil:
			return true
		case a.DueDate == nil && b.DueDate != nil:
			return false
		case a.DueDate != nil && *a.DueDate != *b.DueDate:
			return *a.DueDate < *b.DueDate
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})
	return out, nil
}

func formatDate(d *time.Time) *string {
	if d == nil {
		return nil
	}
	s := d.Format(DateLayout)
	return &s
}

func (m *mockRepository) Insert(_ context.Context, nt NewTask) (Task, error) {
	t := Task{
		ID: nt.ID, ProjectID: nt.ProjectID, TenantID: nt.TenantID, Title: nt.Title,
		Description: nt.Description, Status: StatusTodo, Priority: nt.Priority,
		AssignedTo: nt.AssignedTo, DueDate: formatDate(nt.DueDate), CreatedAt: m.tick(),
	}
	m.tasks[t.ID] = t
	return t, nil
}

func (m *mockRepository) Update(_ context.Context, id string, c Changes) (Task, error) {
	t, ok := m.tasks[id]
	if !ok {
		return Task{}, fmt.Errorf("%w: task", shared.ErrNotFound)
	}
	if c.Title != nil {
		t.Title = *c.Title
	}
	if c.Description != nil {
		t.Description = *c.Description
	}
	if c.Status != nil {
		t.Status = *c.Status
	}
	if c.Priority != nil {
		t.Priority = *c.Priority
	}
	if c.SetAssignee {
		t.AssignedTo = c.AssignedTo
	}
	if c.SetDueDate {
		t.DueDate = formatDate(c.DueDate)
	}
	t.UpdatedAt = m.tick()
	m.tasks[id] = t
	return t, nil
}

func (m *mockRepository) UpdateStatus(_ context.Context, id, status string) (Task, error) {
	t, ok := m.tasks[id]
	if !ok {
		return Task{}, fmt.Errorf("%w: task", shared.ErrNotFound)
	}
	t.Status = status
	m.tasks[id] = t
	return t, nil
}

func (m *mockRepository) Delete(_ context.Context, id string) error {
	if _, ok := m.tasks[id]; !ok {
		return fmt.Errorf("%w: task", shared.ErrNotFound)
	}
	delete(m.tasks, id)
	return nil
}

func (m *mockRepository) Resource(_ context.Context, ref ownership.Ref) (ownership.Resource, error) {
	var (
		tenantID string
		ok       bool
	)
	switch ref.Kind {
	case ownership.KindProject:
		tenantID, ok = m.projects[ref.ID]
	case ownership.KindUser:
		tenantID, ok = m.users[ref.ID]
	case ownership.KindTask:
		var t Task
		t, ok = m.tasks[ref.ID]
		tenantID = t.TenantID
	}
	if !ok {
		return ownership.Resource{}, shared.ErrNotFound
	}
	return ownership.Resource{Ref: ref, TenantID: tenantID}, nil
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
