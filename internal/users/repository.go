package users

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tenantflow/tenantflow/internal/platform/db"
	"github.com/tenantflow/tenantflow/internal/quota"
	"github.com/tenantflow/tenantflow/internal/rbac"
	"github.com/tenantflow/tenantflow/internal/shared"
)

// Repository defines data access methods for users.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	Get(ctx context.Context, id string) (User, error)
	List(ctx context.Context, tenantID string, f ListFilters) ([]User, error)
	Update(ctx context.Context, id string, in UpdateInput) (User, error)
	Delete(ctx context.Context, id string) error
}

// TxRepository exposes the quota-checked insert. Its quota.Counter locks the tenant row.
type TxRepository interface {
	quota.Counter
	Insert(ctx context.Context, u NewUser) (User, error)
}

// PGRepository provides PostgreSQL backed persistence.
type PGRepository struct {
	pool db.Conn
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

type txRepository struct {
	quota.PGCounter
	tx pgx.Tx
}

// WithTx runs fn in a read-committed transaction. The tenant row lock taken by the
// quota counter makes concurrent creators wait, and read committed lets the waiter
// count the rows the previous holder inserted.
func (r *PGRepository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTxOptions(ctx, r.pool, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{PGCounter: quota.NewPGCounter(tx), tx: tx})
	})
}

const userColumns = `id::text, tenant_id::text, email, full_name, role, is_active, created_at, updated_at`

func (t *txRepository) Insert(ctx context.Context, u NewUser) (User, error) {
	row := t.tx.QueryRow(ctx, `INSERT INTO users (id, tenant_id, email, password_hash, full_name, role)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+userColumns,
		u.ID, u.TenantID, u.Email, u.PasswordHash, u.FullName, string(u.Role))
	user, err := scanUser(row)
	if err != nil {
		return User{}, db.Translate(err, "email")
	}
	return user, nil
}

// Get fetches a user by id.
func (r *PGRepository) Get(ctx context.Context, id string) (User, error) {
	user, err := scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		return User{}, db.Translate(err, "user")
	}
	return user, nil
}

// List returns a tenant's users, newest first.
func (r *PGRepository) List(ctx context.Context, tenantID string, f ListFilters) ([]User, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+userColumns+` FROM users
		WHERE tenant_id = $1 AND ($2::text IS NULL OR role = $2::text)
		ORDER BY created_at DESC, id`, tenantID, db.OptionalText(f.Role))
	if err != nil {
		return nil, db.Translate(err, "tenant")
	}
	users, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (User, error) {
		return scanUser(row)
	})
	if err != nil {
		return nil, fmt.Errorf("users: scan: %w", err)
	}
	return users, nil
}

// Update applies the non-nil fields of in.
func (r *PGRepository) Update(ctx context.Context, id string, in UpdateInput) (User, error) {
	row := r.pool.QueryRow(ctx, `UPDATE users
		SET full_name = COALESCE($2, full_name),
		    role = COALESCE($3, role),
		    is_active = COALESCE($4, is_active),
		    updated_at = NOW()
		WHERE id = $1
		RETURNING `+userColumns, id, in.FullName, in.Role, in.IsActive)
	user, err := scanUser(row)
	if err != nil {
		return User{}, db.Translate(err, "user")
	}
	return user, nil
}

// Delete removes a user.
func (r *PGRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return db.Translate(err, "user")
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: user", shared.ErrNotFound)
	}
	return nil
}

func scanUser(row pgx.Row) (User, error) {
	var (
		u        User
		tenantID *string
		role     string
	)
	if err := row.Scan(&u.ID, &tenantID, &u.Email, &u.FullName, &role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return User{}, err
	}
	if tenantID != nil {
		u.TenantID = *tenantID
	}
	u.Role = rbac.Role(role)
	return u, nil
}

var _ Repository = (*PGRepository)(nil)
