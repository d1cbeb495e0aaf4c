package auth

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tenantflow/tenantflow/internal/platform/db"
	"github.com/tenantflow/tenantflow/internal/rbac"
	"github.com/tenantflow/tenantflow/internal/shared"
)

// Repository defines persistence operations for the auth module.
type Repository interface {
	FindSuperAdmin(ctx context.Context, email string) (Account, error)
	FindTenantBySubdomain(ctx context.Context, subdomain string) (TenantSummary, error)
	FindTenantAccount(ctx context.Context, tenantID, email string) (Account, error)
	GetAccount(ctx context.Context, id string) (Account, error)
	GetTenant(ctx context.Context, id string) (TenantSummary, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const accountColumns = `id::text, tenant_id::text, email, password_hash, full_name, role, is_active`

const tenantColumns = `id::text, name, subdomain, status, subscription_plan, max_users, max_projects`

// FindSuperAdmin looks up a platform administrator by email.
func (r *PGRepository) FindSuperAdmin(ctx context.Context, email string) (Account, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+accountColumns+` FROM users
		WHERE email = $1 AND role = 'super_admin' AND tenant_id IS NULL`, email)
	return scanAccount(row)
}

// FindTenantBySubdomain resolves the tenant selected at login.
func (r *PGRepository) FindTenantBySubdomain(ctx context.Context, subdomain string) (TenantSummary, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+tenantColumns+` FROM tenants WHERE subdomain = $1`, subdomain)
	return scanTenant(row)
}

// FindTenantAccount looks up a login identity inside one tenant.
func (r *PGRepository) FindTenantAccount(ctx context.Context, tenantID, email string) (Account, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+accountColumns+` FROM users
		WHERE tenant_id = $1 AND email = $2`, tenantID, email)
	return scanAccount(row)
}

// GetAccount fetches a user by id.
func (r *PGRepository) GetAccount(ctx context.Context, id string) (Account, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+accountColumns+` FROM users WHERE id = $1`, id)
	return scanAccount(row)
}

// GetTenant fetches a tenant by id.
func (r *PGRepository) GetTenant(ctx context.Context, id string) (TenantSummary, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+tenantColumns+` FROM tenants WHERE id = $1`, id)
	return scanTenant(row)
}

func scanAccount(row pgx.Row) (Account, error) {
	var (
		acc      Account
		tenantID *string
		role     string
	)
	if err := row.Scan(&acc.ID, &tenantID, &acc.Email, &acc.PasswordHash, &acc.FullName, &role, &acc.IsActive); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, shared.ErrNotFound
		}
		return Account{}, db.Translate(err, "user")
	}
	if tenantID != nil {
		acc.TenantID = *tenantID
	}
	acc.Role = rbac.Role(role)
	return acc, nil
}

func scanTenant(row pgx.Row) (TenantSummary, error) {
	var t TenantSummary
	if err := row.Scan(&t.ID, &t.Name, &t.Subdomain, &t.Status, &t.SubscriptionPlan, &t.MaxUsers, &t.MaxProjects); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return TenantSummary{}, shared.ErrNotFound
		}
		return TenantSummary{}, db.Translate(err, "tenant")
	}
	return t, nil
}

var _ Repository = (*PGRepository)(nil)
