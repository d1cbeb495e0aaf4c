package projects

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/tenantflow/tenantflow/internal/audit"
	"github.com/tenantflow/tenantflow/internal/ownership"
	"github.com/tenantflow/tenantflow/internal/quota"
	"github.com/tenantflow/tenantflow/internal/rbac"
	"github.com/tenantflow/tenantflow/internal/shared"
)

// OwnershipChecker resolves a project id against the caller's scope and policy.
type OwnershipChecker interface {
	Mutable(ctx context.Context, p rbac.Principal, ref ownership.Ref, action rbac.Action) (ownership.Resource, error)
}

// AuditRecorder records committed mutations.
type AuditRecorder interface {
	Record(ctx context.Context, e audit.Entry)
}

// Service implements project operations.
type Service struct {
	repo    Repository
	checker OwnershipChecker
	quota   *quota.Enforcer
	audit   AuditRecorder
	logger  *slog.Logger
	newID   func() string
}

// NewService constructs a Service.
func NewService(repo Repository, checker OwnershipChecker, enforcer *quota.Enforcer, recorder AuditRecorder, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, checker: checker, quota: enforcer, audit: recorder, logger: logger, newID: uuid.NewString}
}

// Create adds a project to the caller's tenant within the tenant's project quota.
// Platform administrators have no tenant to own a project.
func (s *Service) Create(ctx context.Context, p rbac.Principal, in CreateInput) (Project, error) {
	scope, err := rbac.ScopeFor(p)
	if err != nil {
		return Project{}, err
	}
	if scope.Unscoped {
		return Project{}, fmt.Errorf("%w: projects belong to a tenant member", shared.ErrTenantAccessDenied)
	}
	if err := rbac.Authorize(p, rbac.ActionProjectCreate, rbac.Target{TenantID: scope.TenantID}); err != nil {
		return Project{}, err
	}
	row := NewProject{
		ID:          s.newID(),
		TenantID:    scope.TenantID,
		Name:        in.Name,
		Description: in.Description,
		Status:      in.Status,
		CreatedBy:   p.UserID,
	}

	var created Project
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := s.quota.Check(ctx, tx, scope.TenantID, quota.Projects); err != nil {
			return err
		}
		var err error
		created, err = tx.Insert(ctx, row)
		return err
	})
	if err != nil {
		return Project{}, err
	}
	s.record(ctx, p, created.TenantID, audit.ActionCreateProject, created.ID)
	return created, nil
}

// List returns the projects of the selected tenant.
func (s *Service) List(ctx context.Context, p rbac.Principal, f ListFilters) ([]Project, error) {
	scope, err := rbac.ScopeFor(p)
	if err != nil {
		return nil, err
	}
	tenantID, err := scope.Select(f.TenantID)
	if err != nil {
		return nil, err
	}
	if err := rbac.Authorize(p, rbac.ActionProjectList, rbac.Target{TenantID: tenantID}); err != nil {
		return nil, err
	}
	out, err := s.repo.List(ctx, tenantID, f)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []Project{}
	}
	return out, nil
}

// Get returns one project visible to the caller.
func (s *Service) Get(ctx context.Context, p rbac.Principal, id string) (Project, error) {
	if _, err := s.checker.Mutable(ctx, p, ref(id), rbac.ActionProjectRead); err != nil {
		return Project{}, err
	}
	return s.repo.Get(ctx, id)
}

// Update changes a project; only its creator or a tenant_admin may.
func (s *Service) Update(ctx context.Context, p rbac.Principal, id string, in UpdateInput) (Project, error) {
	if in.empty() {
		return Project{}, shared.Validationf("no fields to update")
	}
	if in.Name != nil && *in.Name == "" {
		return Project{}, shared.Validationf("name must not be empty")
	}
	res, err := s.checker.Mutable(ctx, p, ref(id), rbac.ActionProjectUpdate)
	if err != nil {
		return Project{}, err
	}
	updated, err := s.repo.Update(ctx, id, in)
	if err != nil {
		return Project{}, err
	}
	s.record(ctx, p, res.TenantID, audit.ActionUpdateProject, id)
	return updated, nil
}

// Delete removes a project and its tasks; only its creator or a tenant_admin may.
func (s *Service) Delete(ctx context.Context, p rbac.Principal, id string) error {
	res, err := s.checker.Mutable(ctx, p, ref(id), rbac.ActionProjectDelete)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.record(ctx, p, res.TenantID, audit.ActionDeleteProject, id)
	return nil
}

func (s *Service) record(ctx context.Context, p rbac.Principal, tenantID, action, projectID string) {
	s.audit.Record(ctx, audit.Entry{
		TenantID:   tenantID,
		UserID:     p.UserID,
		Action:     action,
		EntityType: audit.EntityProject,
		EntityID:   projectID,
	})
}

func ref(id string) ownership.Ref {
	return ownership.Ref{Kind: ownership.KindProject, ID: id}
}
