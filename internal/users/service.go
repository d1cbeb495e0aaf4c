package users

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/tenantflow/tenantflow/internal/audit"
	"github.com/tenantflow/tenantflow/internal/ownership"
	"github.com/tenantflow/tenantflow/internal/quota"
	"github.com/tenantflow/tenantflow/internal/rbac"
	"github.com/tenantflow/tenantflow/internal/shared"
)

// OwnershipChecker resolves a user id against the caller's scope and policy.
type OwnershipChecker interface {
	Mutable(ctx context.Context, p rbac.Principal, ref ownership.Ref, action rbac.Action) (ownership.Resource, error)
}

// PasswordHasher hashes invited users' passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
}

// AuditRecorder records committed mutations.
type AuditRecorder interface {
	Record(ctx context.Context, e audit.Entry)
}

// Service handles user business logic.
type Service struct {
	repo    Repository
	checker OwnershipChecker
	quota   *quota.Enforcer
	hasher  PasswordHasher
	audit   AuditRecorder
	logger  *slog.Logger
	newID   func() string
}

// NewService builds Service instance.
func NewService(repo Repository, checker OwnershipChecker, enforcer *quota.Enforcer, hasher PasswordHasher, recorder AuditRecorder, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:    repo,
		checker: checker,
		quota:   enforcer,
		hasher:  hasher,
		audit:   recorder,
		logger:  logger,
		newID:   uuid.NewString,
	}
}

// Create adds a member to tenantID within the tenant's user quota.
func (s *Service) Create(ctx context.Context, p rbac.Principal, tenantID string, in CreateInput) (User, error) {
	if err := inTenant(p, tenantID, rbac.ActionUserCreate); err != nil {
		return User{}, err
	}
	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return User{}, err
	}
	row := NewUser{
		ID:           s.newID(),
		TenantID:     tenantID,
		Email:        in.Email,
		PasswordHash: hash,
		FullName:     in.FullName,
		Role:         rbac.Role(in.Role),
	}

	var created User
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := s.quota.Check(ctx, tx, tenantID, quota.Users); err != nil {
			return err
		}
		var err error
		created, err = tx.Insert(ctx, row)
		return err
	})
	if err != nil {
		return User{}, err
	}

	s.record(ctx, p, tenantID, audit.ActionCreateUser, created.ID)
	return created, nil
}

// List returns the members of tenantID.
func (s *Service) List(ctx context.Context, p rbac.Principal, tenantID string, f ListFilters) ([]User, error) {
	if err := inTenant(p, tenantID, rbac.ActionUserList); err != nil {
		return nil, err
	}
	users, err := s.repo.List(ctx, tenantID, f)
	if err != nil {
		return nil, err
	}
	if users == nil {
		users = []User{}
	}
	return users, nil
}

// Update changes a user. Anyone may rename themself; role and active flag changes
// require tenant_admin and never apply to the caller's own account.
func (s *Service) Update(ctx context.Context, p rbac.Principal, id string, in UpdateInput) (User, error) {
	if in.empty() {
		return User{}, shared.Validationf("no fields to update")
	}
	if in.FullName != nil && *in.FullName == "" {
		return User{}, shared.Validationf("fullName must not be empty")
	}
	res, err := s.checker.Mutable(ctx, p, ownership.Ref{Kind: ownership.KindUser, ID: id}, rbac.ActionUserUpdate)
	if err != nil {
		return User{}, err
	}
	if in.administrative() {
		if res.TenantID == "" {
			return User{}, shared.Validationf("platform accounts have no tenant role")
		}
		target := rbac.Target{TenantID: res.TenantID, UserID: res.ID}
		if err := rbac.Authorize(p, rbac.ActionUserManage, target); err != nil {
			return User{}, err
		}
	}
	updated, err := s.repo.Update(ctx, id, in)
	if err != nil {
		return User{}, err
	}
	s.record(ctx, p, res.TenantID, audit.ActionUpdateUser, id)
	return updated, nil
}

// Delete removes another member of the caller's tenant.
func (s *Service) Delete(ctx context.Context, p rbac.Principal, id string) error {
	res, err := s.checker.Mutable(ctx, p, ownership.Ref{Kind: ownership.KindUser, ID: id}, rbac.ActionUserDelete)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.record(ctx, p, res.TenantID, audit.ActionDeleteUser, id)
	return nil
}

func (s *Service) record(ctx context.Context, p rbac.Principal, tenantID, action, userID string) {
	s.audit.Record(ctx, audit.Entry{
		TenantID:   tenantID,
		UserID:     p.UserID,
		Action:     action,
		EntityType: audit.EntityUser,
		EntityID:   userID,
	})
}

// inTenant hides foreign tenants behind NotFound before applying the policy row.
func inTenant(p rbac.Principal, tenantID string, action rbac.Action) error {
	scope, err := rbac.ScopeFor(p)
	if err != nil {
		return err
	}
	if !scope.Includes(tenantID) {
		return shared.ErrCrossTenant
	}
	return rbac.Authorize(p, action, rbac.Target{TenantID: tenantID})
}
