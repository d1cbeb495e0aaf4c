package ownership

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/tenantflow/tenantflow/internal/shared"
)

// Querier is satisfied by *pgxpool.Pool and pgx.Tx.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PGLookup reads tenant ownership columns from PostgreSQL.
type PGLookup struct {
	db Querier
}

// NewPGLookup constructs a PGLookup.
func NewPGLookup(db Querier) *PGLookup {
	return &PGLookup{db: db}
}

var lookupSQL = map[Kind]string{
	KindProject: `SELECT tenant_id::text, COALESCE(created_by::text, '') FROM projects WHERE id = $1`,
	// a task whose tenant disagrees with its project's resolves as missing
	KindTask: `SELECT t.tenant_id::text, '' FROM tasks t
		JOIN projects p ON p.id = t.project_id AND p.tenant_id = t.tenant_id
		WHERE t.id = $1`,
	KindUser: `SELECT COALESCE(tenant_id::text, ''), id::text FROM users WHERE id = $1`,
}

// Resource implements Lookup.
func (l *PGLookup) Resource(ctx context.Context, ref Ref) (Resource, error) {
	query, ok := lookupSQL[ref.Kind]
	if !ok {
		return Resource{}, fmt.Errorf("ownership: unknown kind %q", ref.Kind)
	}
	if _, err := uuid.Parse(ref.ID); err != nil {
		return Resource{}, shared.ErrNotFound
	}
	res := Resource{Ref: ref}
	if err := l.db.QueryRow(ctx, query, ref.ID).Scan(&res.TenantID, &res.CreatedBy); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Resource{}, shared.ErrNotFound
		}
		return Resource{}, fmt.Errorf("ownership: lookup %s: %w", ref, err)
	}
	return res, nil
}

var _ Lookup = (*PGLookup)(nil)
