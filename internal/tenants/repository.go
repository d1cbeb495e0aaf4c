package tenants

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tenantflow/tenantflow/internal/platform/db"
	"github.com/tenantflow/tenantflow/internal/rbac"
	"github.com/tenantflow/tenantflow/internal/shared"
)

// Counted names an entity counted in tenant stats.
type Counted string

const (
	CountUsers    Counted = "users"
	CountProjects Counted = "projects"
	CountTasks    Counted = "tasks"
)

// Repository defines persistence for tenants.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	Get(ctx context.Context, id string) (Tenant, error)
	List(ctx context.Context, f ListFilters) ([]Summary, int, error)
	Count(ctx context.Context, tenantID string, what Counted) (int, error)
	Update(ctx context.Context, id string, in UpdateInput) (Tenant, error)
}

// TxRepository exposes the registration writes.
type TxRepository interface {
	CreateTenant(ctx context.Context, t Tenant) error
	CreateAdmin(ctx context.Context, a NewAdmin) error
}

// PGRepository implements Repository with pgx.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PGRepository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

type txRepository struct {
	tx pgx.Tx
}

// WithTx runs fn in a repeatable-read transaction.
func (r *PGRepository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

func (t *txRepository) CreateTenant(ctx context.Context, tenant Tenant) error {
	_, err := t.tx.Exec(ctx, `INSERT INTO tenants (id, name, subdomain, status, subscription_plan, max_users, max_projects)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		tenant.ID, tenant.Name, tenant.Subdomain, tenant.Status, tenant.SubscriptionPlan, tenant.MaxUsers, tenant.MaxProjects)
	if err != nil {
		return db.Translate(err, "subdomain")
	}
	return nil
}

func (t *txRepository) CreateAdmin(ctx context.Context, a NewAdmin) error {
	_, err := t.tx.Exec(ctx, `INSERT INTO users (id, tenant_id, email, password_hash, full_name, role)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		a.ID, a.TenantID, a.Email, a.PasswordHash, a.FullName, string(rbac.RoleTenantAdmin))
	if err != nil {
		return db.Translate(err, "admin email")
	}
	return nil
}

const tenantColumns = `id::text, name, subdomain, status, subscription_plan, max_users, max_projects, created_at, updated_at`

// Get fetches a tenant by id.
func (r *PGRepository) Get(ctx context.Context, id string) (Tenant, error) {
	return scanTenant(r.pool.QueryRow(ctx, `SELECT `+tenantColumns+` FROM tenants WHERE id = $1`, id))
}

const listWhere = `WHERE ($1::text IS NULL OR t.status = $1::text)
	AND ($2::text IS NULL OR t.subscription_plan = $2::text)`

// List returns one page of tenants with user and project totals, newest first.
func (r *PGRepository) List(ctx context.Context, f ListFilters) ([]Summary, int, error) {
	p := shared.NewPagination(f.Page, f.PerPage, 0)
	status, plan := db.OptionalText(f.Status), db.OptionalText(f.SubscriptionPlan)

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM tenants t `+listWhere, status, plan).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("tenants: count: %w", err)
	}

	rows, err := r.pool.Query(ctx, `SELECT t.id::text, t.name, t.subdomain, t.status, t.subscription_plan, t.created_at,
			(SELECT COUNT(*) FROM users u WHERE u.tenant_id = t.id),
			(SELECT COUNT(*) FROM projects p WHERE p.tenant_id = t.id)
		FROM tenants t `+listWhere+`
		ORDER BY t.created_at DESC, t.id
		LIMIT $3 OFFSET $4`, status, plan, p.PerPage, p.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("tenants: list: %w", err)
	}
	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Summary, error) {
		var s Summary
		err := row.Scan(&s.ID, &s.Name, &s.Subdomain, &s.Status, &s.SubscriptionPlan, &s.CreatedAt, &s.TotalUsers, &s.TotalProjects)
		return s, err
	})
	if err != nil {
		return nil, 0, fmt.Errorf("tenants: scan: %w", err)
	}
	return items, total, nil
}

var countSQL = map[Counted]string{
	CountUsers:    `SELECT COUNT(*) FROM users WHERE tenant_id = $1`,
	CountProjects: `SELECT COUNT(*) FROM projects WHERE tenant_id = $1`,
	CountTasks:    `SELECT COUNT(*) FROM tasks WHERE tenant_id = $1`,
}

// Count returns the number of rows of what owned by tenantID.
func (r *PGRepository) Count(ctx context.Context, tenantID string, what Counted) (int, error) {
	query, ok := countSQL[what]
	if !ok {
		return 0, fmt.Errorf("tenants: unknown count %q", what)
	}
	var n int
	if err := r.pool.QueryRow(ctx, query, tenantID).Scan(&n); err != nil {
		return 0, fmt.Errorf("tenants: count %s: %w", what, err)
	}
	return n, nil
}

// Update applies the non-nil fields of in and returns the stored tenant.
func (r *PGRepository) Update(ctx context.Context, id string, in UpdateInput) (Tenant, error) {
	row := r.pool.QueryRow(ctx, `UPDATE tenants
		SET name = COALESCE($2, name),
		    status = COALESCE($3, status),
		    subscription_plan = COALESCE($4, subscription_plan),
		    max_users = COALESCE($5, max_users),
		    max_projects = COALESCE($6, max_projects),
		    updated_at = NOW()
		WHERE id = $1
		RETURNING `+tenantColumns,
		id, in.Name, in.Status, in.SubscriptionPlan, in.MaxUsers, in.MaxProjects)
	return scanTenant(row)
}

func scanTenant(row pgx.Row) (Tenant, error) {
	var t Tenant
	err := row.Scan(&t.ID, &t.Name, &t.Subdomain, &t.Status, &t.SubscriptionPlan, &t.MaxUsers, &t.MaxProjects, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Tenant{}, fmt.Errorf("%w: tenant", shared.ErrNotFound)
		}
		return Tenant{}, db.Translate(err, "tenant")
	}
	return t, nil
}

var _ Repository = (*PGRepository)(nil)
