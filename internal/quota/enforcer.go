// Package quota enforces per-tenant subscription limits on users and projects.
package quota

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/tenantflow/tenantflow/internal/platform/db"
	"github.com/tenantflow/tenantflow/internal/shared"
)

// Resource names a quota-limited entity.
type Resource string

const (
	Users    Resource = "users"
	Projects Resource = "projects"
)

// Limits are the tenant ceilings.
type Limits struct {
	MaxUsers    int
	MaxProjects int
}

// For returns the limit that applies to r.
func (l Limits) For(r Resource) int {
	if r == Users {
		return l.MaxUsers
	}
	return l.MaxProjects
}

// Counter reads limits and current counts. Implementations used inside a creation
// transaction lock the tenant row so concurrent creations serialize.
type Counter interface {
	Limits(ctx context.Context, tenantID string) (Limits, error)
	Count(ctx context.Context, tenantID string, r Resource) (int, error)
}

// Observer is told about rejected creations.
type Observer interface {
	ObserveQuotaRejection(resource string)
}

// Enforcer compares counts to limits.
type Enforcer struct {
	observer Observer
}

// NewEnforcer constructs an Enforcer. observer may be nil.
func NewEnforcer(observer Observer) *Enforcer {
	return &Enforcer{observer: observer}
}

// Check fails with shared.ErrQuotaExceeded when the tenant already holds its limit of r.
func (e *Enforcer) Check(ctx context.Context, counter Counter, tenantID string, r Resource) error {
	limits, err := counter.Limits(ctx, tenantID)
	if err != nil {
		return err
	}
	count, err := counter.Count(ctx, tenantID, r)
	if err != nil {
		return err
	}
	if limit := limits.For(r); count >= limit {
		if e != nil && e.observer != nil {
			e.observer.ObserveQuotaRejection(string(r))
		}
		return fmt.Errorf("%w: %s limit of %d reached", shared.ErrQuotaExceeded, r, limit)
	}
	return nil
}

// Querier is satisfied by pgx.Tx and *pgxpool.Pool.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PGCounter reads quota state with pgx. Use it with a transaction so the row lock holds
// until the insert commits.
type PGCounter struct {
	db Querier
}

// NewPGCounter constructs a PGCounter.
func NewPGCounter(db Querier) PGCounter {
	return PGCounter{db: db}
}

// Limits locks the tenant row and returns its ceilings.
func (c PGCounter) Limits(ctx context.Context, tenantID string) (Limits, error) {
	var l Limits
	err := c.db.QueryRow(ctx, `SELECT max_users, max_projects FROM tenants WHERE id = $1 FOR UPDATE`, tenantID).
		Scan(&l.MaxUsers, &l.MaxProjects)
	if err != nil {
		return Limits{}, db.Translate(err, "tenant")
	}
	return l, nil
}

var countSQL = map[Resource]string{
	Users:    `SELECT COUNT(*) FROM users WHERE tenant_id = $1`,
	Projects: `SELECT COUNT(*) FROM projects WHERE tenant_id = $1`,
}

// Count returns the number of r rows owned by tenantID.
func (c PGCounter) Count(ctx context.Context, tenantID string, r Resource) (int, error) {
	query, ok := countSQL[r]
	if !ok {
		return 0, fmt.Errorf("quota: unknown resource %q", r)
	}
	var n int
	if err := c.db.QueryRow(ctx, query, tenantID).Scan(&n); err != nil {
		return 0, db.Translate(err, "tenant")
	}
	return n, nil
}

var _ Counter = PGCounter{}
