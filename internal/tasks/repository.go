package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tenantflow/tenantflow/internal/platform/db"
	"github.com/tenantflow/tenantflow/internal/shared"
)

// Repository defines persistence for tasks.
type Repository interface {
	Get(ctx context.Context, id string) (Task, error)
	List(ctx context.Context, projectID string, f ListFilters) ([]Task, error)
	Insert(ctx context.Context, t NewTask) (Task, error)
	Update(ctx context.Context, id string, c Changes) (Task, error)
	UpdateStatus(ctx context.Context, id, status string) (Task, error)
	Delete(ctx context.Context, id string) error
}

// PGRepository implements Repository with pgx.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PGRepository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const taskSelect = `SELECT t.id::text, t.project_id::text, t.tenant_id::text, t.title, t.description,
		t.status, t.priority, t.assigned_to::text, COALESCE(u.full_name, ''), t.due_date,
		t.created_at, t.updated_at
	FROM tasks t
	LEFT JOIN users u ON u.id = t.assigned_to`

// Get fetches a task by id.
func (r *PGRepository) Get(ctx context.Context, id string) (Task, error) {
	t, err := scanTask(r.pool.QueryRow(ctx, taskSelect+` WHERE t.id = $1`, id))
	if err != nil {
		return Task{}, db.Translate(err, "task")
	}
	return t, nil
}

// List returns a project's tasks, highest priority first, then by due date.
func (r *PGRepository) List(ctx context.Context, projectID string, f ListFilters) ([]Task, error) {
	rows, err := r.pool.Query(ctx, taskSelect+`
		WHERE t.project_id = $1
		  AND ($2::text IS NULL OR t.status = $2::text)
		  AND ($3::text IS NULL OR t.priority = $3::text)
		  AND ($4::uuid IS NULL OR t.assigned_to = $4::uuid)
		ORDER BY CASE t.priority WHEN 'high' THEN 0 WHEN 'medium' THEN 1 ELSE 2 END,
		         t.due_date ASC NULLS LAST, t.created_at, t.id`,
		projectID, db.OptionalText(f.Status), db.OptionalText(f.Priority), db.OptionalText(f.AssignedTo))
	if err != nil {
		return nil, fmt.Errorf("tasks: list: %w", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Task, error) {
		return scanTask(row)
	})
	if err != nil {
		return nil, fmt.Errorf("tasks: scan: %w", err)
	}
	return out, nil
}

// Insert stores a new todo task.
func (r *PGRepository) Insert(ctx context.Context, t NewTask) (Task, error) {
	_, err := r.pool.Exec(ctx, `INSERT INTO tasks (id, project_id, tenant_id, title, description, status, priority, assigned_to, due_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		t.ID, t.ProjectID, t.TenantID, t.Title, t.Description, StatusTodo, t.Priority, t.AssignedTo, dateArg(t.DueDate))
	if err != nil {
		return Task{}, db.Translate(err, "task")
	}
	return r.Get(ctx, t.ID)
}

// Update applies c and returns the stored task.
func (r *PGRepository) Update(ctx context.Context, id string, c Changes) (Task, error) {
	tag, err := r.pool.Exec(ctx, `UPDATE tasks
		SET title = COALESCE($2, title),
		    description = COALESCE($3, description),
		    status = COALESCE($4, status),
		    priority = COALESCE($5, priority),
		    assigned_to = CASE WHEN $6::bool THEN $7::uuid ELSE assigned_to END,
		    due_date = CASE WHEN $8::bool THEN $9::date ELSE due_date END,
		    updated_at = NOW()
		WHERE id = $1`,
		id, c.Title, c.Description, c.Status, c.Priority, c.SetAssignee, c.AssignedTo, c.SetDueDate, dateArg(c.DueDate))
	if err != nil {
		return Task{}, db.Translate(err, "task")
	}
	if tag.RowsAffected() == 0 {
		return Task{}, fmt.Errorf("%w: task", shared.ErrNotFound)
	}
	return r.Get(ctx, id)
}

// UpdateStatus moves a task to status.
func (r *PGRepository) UpdateStatus(ctx context.Context, id, status string) (Task, error) {
	tag, err := r.pool.Exec(ctx, `UPDATE tasks SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	if err != nil {
		return Task{}, db.Translate(err, "task")
	}
	if tag.RowsAffected() == 0 {
		return Task{}, fmt.Errorf("%w: task", shared.ErrNotFound)
	}
	return r.Get(ctx, id)
}

// Delete removes a task.
func (r *PGRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return db.Translate(err, "task")
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: task", shared.ErrNotFound)
	}
	return nil
}

func dateArg(t *time.Time) pgtype.Date {
	if t == nil {
		return pgtype.Date{}
	}
	return pgtype.Date{Time: *t, Valid: true}
}

func scanTask(row pgx.Row) (Task, error) {
	var (
		t   Task
		due pgtype.Date
	)
	err := row.Scan(&t.ID, &t.ProjectID, &t.TenantID, &t.Title, &t.Description,
		&t.Status, &t.Priority, &t.AssignedTo, &t.AssigneeName, &due, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return Task{}, err
	}
	if due.Valid {
		s := due.Time.Format(DateLayout)
		t.DueDate = &s
	}
	return t, nil
}

var _ Repository = (*PGRepository)(nil)
