package tenants

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/tenantflow/tenantflow/internal/audit"
	"github.com/tenantflow/tenantflow/internal/rbac"
	"github.com/tenantflow/tenantflow/internal/shared"
)

// PasswordHasher hashes the admin password at registration.
type PasswordHasher interface {
	Hash(password string) (string, error)
}

// AuditRecorder records committed mutations.
type AuditRecorder interface {
	Record(ctx context.Context, e audit.Entry)
}

// Service implements tenant registration and administration.
type Service struct {
	repo   Repository
	hasher PasswordHasher
	audit  AuditRecorder
	logger *slog.Logger
	newID  func() string
}

// NewService constructs a Service.
func NewService(repo Repository, hasher PasswordHasher, recorder AuditRecorder, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, hasher: hasher, audit: recorder, logger: logger, newID: uuid.NewString}
}

// Register creates a tenant on the free plan together with its first tenant_admin.
// Both rows commit together or not at all.
func (s *Service) Register(ctx context.Context, in RegisterInput) (Registration, error) {
	hash, err := s.hasher.Hash(in.AdminPassword)
	if err != nil {
		return Registration{}, err
	}
	tenant := Tenant{
		ID:               s.newID(),
		Name:             in.TenantName,
		Subdomain:        in.Subdomain,
		Status:           StatusActive,
		SubscriptionPlan: PlanFree,
		MaxUsers:         FreeMaxUsers,
		MaxProjects:      FreeMaxProjects,
	}
	admin := NewAdmin{
		ID:           s.newID(),
		TenantID:     tenant.ID,
		Email:        in.AdminEmail,
		PasswordHash: hash,
		FullName:     in.AdminFullName,
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := tx.CreateTenant(ctx, tenant); err != nil {
			return err
		}
		return tx.CreateAdmin(ctx, admin)
	})
	if err != nil {
		return Registration{}, err
	}

	s.logger.Info("tenant registered", slog.String("tenant_id", tenant.ID), slog.String("subdomain", tenant.Subdomain))
	s.audit.Record(ctx, audit.Entry{
		TenantID:   tenant.ID,
		UserID:     admin.ID,
		Action:     audit.ActionRegisterTenant,
		EntityType: audit.EntityTenant,
		EntityID:   tenant.ID,
	})
	return Registration{
		TenantID:  tenant.ID,
		Subdomain: tenant.Subdomain,
		AdminUser: AdminUser{
			ID:       admin.ID,
			Email:    admin.Email,
			FullName: admin.FullName,
			Role:     rbac.RoleTenantAdmin,
		},
	}, nil
}

// List returns the platform-wide tenant listing.
func (s *Service) List(ctx context.Context, p rbac.Principal, f ListFilters) (ListResult, error) {
	if err := rbac.Authorize(p, rbac.ActionTenantList, rbac.Target{}); err != nil {
		return ListResult{}, err
	}
	f.Page, f.PerPage = shared.NormalizePage(f.Page, f.PerPage)
	items, total, err := s.repo.List(ctx, f)
	if err != nil {
		return ListResult{}, err
	}
	if items == nil {
		items = []Summary{}
	}
	return ListResult{Tenants: items, Pagination: shared.NewPagination(f.Page, f.PerPage, total)}, nil
}

// Get returns a tenant with its user, project and task counts.
func (s *Service) Get(ctx context.Context, p rbac.Principal, id string) (Details, error) {
	if err := guard(p, id, rbac.ActionTenantRead); err != nil {
		return Details{}, err
	}
	tenant, err := s.repo.Get(ctx, id)
	if err != nil {
		return Details{}, err
	}

	var stats Stats
	g, gctx := errgroup.WithContext(ctx)
	count := func(what Counted, into *int) {
		g.Go(func() error {
			n, err := s.repo.Count(gctx, id, what)
			*into = n
			return err
		})
	}
	count(CountUsers, &stats.TotalUsers)
	count(CountProjects, &stats.TotalProjects)
	count(CountTasks, &stats.TotalTasks)
	if err := g.Wait(); err != nil {
		return Details{}, err
	}
	return Details{Tenant: tenant, Stats: stats}, nil
}

// Update changes tenant fields. A tenant_admin may only rename their own tenant;
// status, plan and limits are reserved to super_admin.
func (s *Service) Update(ctx context.Context, p rbac.Principal, id string, in UpdateInput) (Tenant, error) {
	if in.empty() {
		return Tenant{}, shared.Validationf("no fields to update")
	}
	if in.Name != nil && *in.Name == "" {
		return Tenant{}, shared.Validationf("name must not be empty")
	}
	if err := guard(p, id, rbac.ActionTenantUpdate); err != nil {
		return Tenant{}, err
	}
	if in.managed() {
		if err := rbac.Authorize(p, rbac.ActionTenantManage, rbac.Target{TenantID: id}); err != nil {
			return Tenant{}, err
		}
	}
	tenant, err := s.repo.Update(ctx, id, in)
	if err != nil {
		return Tenant{}, err
	}
	s.audit.Record(ctx, audit.Entry{
		TenantID:   tenant.ID,
		UserID:     p.UserID,
		Action:     audit.ActionUpdateTenant,
		EntityType: audit.EntityTenant,
		EntityID:   tenant.ID,
	})
	return tenant, nil
}

// guard hides foreign tenants behind NotFound before applying the policy row.
func guard(p rbac.Principal, tenantID string, action rbac.Action) error {
	scope, err := rbac.ScopeFor(p)
	if err != nil {
		return err
	}
	if !scope.Includes(tenantID) {
		return shared.ErrCrossTenant
	}
	return rbac.Authorize(p, action, rbac.Target{TenantID: tenantID})
}
