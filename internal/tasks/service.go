package tasks

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/tenantflow/tenantflow/internal/audit"
	"github.com/tenantflow/tenantflow/internal/ownership"
	"github.com/tenantflow/tenantflow/internal/rbac"
	"github.com/tenantflow/tenantflow/internal/shared"
)

// OwnershipChecker resolves path ids and body references against the caller's tenant.
type OwnershipChecker interface {
	Mutable(ctx context.Context, p rbac.Principal, ref ownership.Ref, action rbac.Action) (ownership.Resource, error)
	Reference(ctx context.Context, tenantID string, ref ownership.Ref) error
}

// AuditRecorder records committed mutations.
type AuditRecorder interface {
	Record(ctx context.Context, e audit.Entry)
}

// Service implements task operations.
type Service struct {
	repo    Repository
	checker OwnershipChecker
	audit   AuditRecorder
	logger  *slog.Logger
	newID   func() string
}

// NewService constructs a Service.
func NewService(repo Repository, checker OwnershipChecker, recorder AuditRecorder, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, checker: checker, audit: recorder, logger: logger, newID: uuid.NewString}
}

// Create adds a todo task to a project. The task inherits the project's tenant
// and any assignee must be a user of that tenant.
func (s *Service) Create(ctx context.Context, p rbac.Principal, projectID string, in CreateInput) (Task, error) {
	project, err := s.checker.Mutable(ctx, p, projectRef(projectID), rbac.ActionTaskCreate)
	if err != nil {
		return Task{}, err
	}
	row := NewTask{
		ID:          s.newID(),
		ProjectID:   projectID,
		TenantID:    project.TenantID,
		Title:       in.Title,
		Description: in.Description,
		Priority:    in.Priority,
	}
	if in.AssignedTo != "" {
		if err := s.checker.Reference(ctx, project.TenantID, userRef(in.AssignedTo)); err != nil {
			return Task{}, err
		}
		row.AssignedTo = &in.AssignedTo
	}
	if row.DueDate, err = parseDate(in.DueDate); err != nil {
		return Task{}, err
	}

	created, err := s.repo.Insert(ctx, row)
	if err != nil {
		return Task{}, err
	}
	s.record(ctx, p, created.TenantID, audit.ActionCreateTask, created.ID)
	return created, nil
}

// List returns a project's tasks.
func (s *Service) List(ctx context.Context, p rbac.Principal, projectID string, f ListFilters) ([]Task, error) {
	if _, err := s.checker.Mutable(ctx, p, projectRef(projectID), rbac.ActionTaskList); err != nil {
		return nil, err
	}
	out, err := s.repo.List(ctx, projectID, f)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []Task{}
	}
	return out, nil
}

// Get returns one task visible to the caller.
func (s *Service) Get(ctx context.Context, p rbac.Principal, id string) (Task, error) {
	if _, err := s.checker.Mutable(ctx, p, taskRef(id), rbac.ActionTaskRead); err != nil {
		return Task{}, err
	}
	return s.repo.Get(ctx, id)
}

// Update applies a partial update. Any member of the task's tenant may edit it.
func (s *Service) Update(ctx context.Context, p rbac.Principal, id string, in UpdateInput) (Task, error) {
	if in.empty() {
		return Task{}, shared.Validationf("no fields to update")
	}
	if in.Title != nil && *in.Title == "" {
		return Task{}, shared.Validationf("title must not be empty")
	}
	res, err := s.checker.Mutable(ctx, p, taskRef(id), rbac.ActionTaskUpdate)
	if err != nil {
		return Task{}, err
	}

	c := Changes{Title: in.Title, Description: in.Description, Status: in.Status, Priority: in.Priority}
	if in.AssignedTo != nil {
		c.SetAssignee = true
		if *in.AssignedTo != "" {
			if err := s.checker.Reference(ctx, res.TenantID, userRef(*in.AssignedTo)); err != nil {
				return Task{}, err
			}
			c.AssignedTo = in.AssignedTo
		}
	}
	if in.DueDate != nil {
		c.SetDueDate = true
		if c.DueDate, err = parseDate(*in.DueDate); err != nil {
			return Task{}, err
		}
	}

	updated, err := s.repo.Update(ctx, id, c)
	if err != nil {
		return Task{}, err
	}
	s.record(ctx, p, res.TenantID, audit.ActionUpdateTask, id)
	return updated, nil
}

// UpdateStatus moves a task between todo, in_progress and completed.
func (s *Service) UpdateStatus(ctx context.Context, p rbac.Principal, id string, in StatusInput) (Task, error) {
	res, err := s.checker.Mutable(ctx, p, taskRef(id), rbac.ActionTaskUpdate)
	if err != nil {
		return Task{}, err
	}
	updated, err := s.repo.UpdateStatus(ctx, id, in.Status)
	if err != nil {
		return Task{}, err
	}
	s.record(ctx, p, res.TenantID, audit.ActionUpdateTaskStatus, id)
	return updated, nil
}

// Delete removes a task.
func (s *Service) Delete(ctx context.Context, p rbac.Principal, id string) error {
	res, err := s.checker.Mutable(ctx, p, taskRef(id), rbac.ActionTaskDelete)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.record(ctx, p, res.TenantID, audit.ActionDeleteTask, id)
	return nil
}

func (s *Service) record(ctx context.Context, p rbac.Principal, tenantID, action, taskID string) {
	s.audit.Record(ctx, audit.Entry{
		TenantID:   tenantID,
		UserID:     p.UserID,
		Action:     action,
		EntityType: audit.EntityTask,
		EntityID:   taskID,
	})
}

func parseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	d, err := time.Parse(DateLayout, s)
	if err != nil {
		return nil, shared.Validationf("dueDate must be YYYY-MM-DD")
	}
	return &d, nil
}

func projectRef(id string) ownership.Ref { return ownership.Ref{Kind: ownership.KindProject, ID: id} }
func taskRef(id string) ownership.Ref    { return ownership.Ref{Kind: ownership.KindTask, ID: id} }
func userRef(id string) ownership.Ref    { return ownership.Ref{Kind: ownership.KindUser, ID: id} }
