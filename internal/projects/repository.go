package projects

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tenantflow/tenantflow/internal/platform/db"
	"github.com/tenantflow/tenantflow/internal/quota"
	"github.com/tenantflow/tenantflow/internal/shared"
)

// Repository defines persistence for projects.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	Get(ctx context.Context, id string) (Project, error)
	List(ctx context.Context, tenantID string, f ListFilters) ([]Project, error)
	Update(ctx context.Context, id string, in UpdateInput) (Project, error)
	Delete(ctx context.Context, id string) error
}

// TxRepository exposes the quota-checked insert.
type TxRepository interface {
	quota.Counter
	Insert(ctx context.Context, p NewProject) (Project, error)
}

// PGRepository implements Repository with pgx.
type PGRepository struct {
	pool db.Conn
}

// NewRepository constructs a PGRepository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

type txRepository struct {
	quota.PGCounter
	tx pgx.Tx
}

// WithTx runs fn in a read-committed transaction; see users.PGRepository.WithTx for
// why the quota lock needs read committed.
func (r *PGRepository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTxOptions(ctx, r.pool, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{PGCounter: quota.NewPGCounter(tx), tx: tx})
	})
}

func (t *txRepository) Insert(ctx context.Context, p NewProject) (Project, error) {
	var out Project
	err := t.tx.QueryRow(ctx, `INSERT INTO projects (id, tenant_id, name, description, status, created_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id::text, tenant_id::text, name, description, status, COALESCE(created_by::text, ''), created_at, updated_at`,
		p.ID, p.TenantID, p.Name, p.Description, p.Status, p.CreatedBy).
		Scan(&out.ID, &out.TenantID, &out.Name, &out.Description, &out.Status, &out.CreatedBy, &out.CreatedAt, &out.UpdatedAt)
	if err != nil {
		return Project{}, db.Translate(err, "project")
	}
	return out, nil
}

const projectSelect = `SELECT p.id::text, p.tenant_id::text, p.name, p.description, p.status,
		COALESCE(p.created_by::text, ''), COALESCE(u.full_name, ''),
		(SELECT COUNT(*) FROM tasks t WHERE t.project_id = p.id),
		p.created_at, p.updated_at
	FROM projects p
	LEFT JOIN users u ON u.id = p.created_by`

// Get fetches a project by id.
func (r *PGRepository) Get(ctx context.Context, id string) (Project, error) {
	p, err := scanProject(r.pool.QueryRow(ctx, projectSelect+` WHERE p.id = $1`, id))
	if err != nil {
		return Project{}, db.Translate(err, "project")
	}
	return p, nil
}

// List returns a tenant's projects, newest first.
func (r *PGRepository) List(ctx context.Context, tenantID string, f ListFilters) ([]Project, error) {
	rows, err := r.pool.Query(ctx, projectSelect+`
		WHERE p.tenant_id = $1 AND ($2::text IS NULL OR p.status = $2::text)
		ORDER BY p.created_at DESC, p.id`, tenantID, db.OptionalText(f.Status))
	if err != nil {
		return nil, db.Translate(err, "tenant")
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Project, error) {
		return scanProject(row)
	})
	if err != nil {
		return nil, fmt.Errorf("projects: scan: %w", err)
	}
	return out, nil
}

// Update applies the non-nil fields of in and returns the stored project.
func (r *PGRepository) Update(ctx context.Context, id string, in UpdateInput) (Project, error) {
	tag, err := r.pool.Exec(ctx, `UPDATE projects
		SET name = COALESCE($2, name),
		    description = COALESCE($3, description),
		    status = COALESCE($4, status),
		    updated_at = NOW()
		WHERE id = $1`, id, in.Name, in.Description, in.Status)
	if err != nil {
		return Project{}, db.Translate(err, "project")
	}
	if tag.RowsAffected() == 0 {
		return Project{}, fmt.Errorf("%w: project", shared.ErrNotFound)
	}
	return r.Get(ctx, id)
}

// Delete removes a project; its tasks cascade.
func (r *PGRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		return db.Translate(err, "project")
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: project", shared.ErrNotFound)
	}
	return nil
}

func scanProject(row pgx.Row) (Project, error) {
	var p Project
	err := row.Scan(&p.ID, &p.TenantID, &p.Name, &p.Description, &p.Status,
		&p.CreatedBy, &p.CreatorName, &p.TaskCount, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

var _ Repository = (*PGRepository)(nil)
