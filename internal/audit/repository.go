package audit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGRepository reads audit_logs with pgx.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PGRepository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const timelineSelect = `SELECT id::text, COALESCE(tenant_id::text, ''), COALESCE(user_id::text, ''),
	action, entity_type, entity_id, ip_address, created_at
	FROM audit_logs
	WHERE ($1::uuid IS NULL OR tenant_id = $1::uuid)
	  AND ($2::timestamptz IS NULL OR created_at >= $2::timestamptz)
	  AND ($3::timestamptz IS NULL OR created_at < $3::timestamptz)
	  AND ($4::uuid IS NULL OR user_id = $4::uuid)
	  AND ($5::text IS NULL OR entity_type = $5::text)
	  AND ($6::text IS NULL OR action = $6::text)
	ORDER BY created_at DESC, id DESC`

// Window returns limit rows starting at offset.
func (r *PGRepository) Window(ctx context.Context, f TimelineFilters, offset, limit int) ([]Entry, error) {
	args := append(filterArgs(f), limit, offset)
	rows, err := r.pool.Query(ctx, timelineSelect+` LIMIT $7 OFFSET $8`, args...)
	if err != nil {
		return nil, fmt.Errorf("audit: timeline: %w", err)
	}
	return collect(rows)
}

// All returns every matching row.
func (r *PGRepository) All(ctx context.Context, f TimelineFilters) ([]Entry, error) {
	rows, err := r.pool.Query(ctx, timelineSelect, filterArgs(f)...)
	if err != nil {
		return nil, fmt.Errorf("audit: export: %w", err)
	}
	return collect(rows)
}

func filterArgs(f TimelineFilters) []any {
	var to time.Time
	if !f.To.IsZero() {
		// the upper bound is inclusive of the whole day
		to = f.To.AddDate(0, 0, 1)
	}
	return []any{
		optionalText(f.TenantID),
		optionalTime(f.From),
		optionalTime(to),
		optionalText(f.Actor),
		optionalText(f.Entity),
		optionalText(f.Action),
	}
}

func collect(rows pgx.Rows) ([]Entry, error) {
	entries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Entry, error) {
		var e Entry
		err := row.Scan(&e.ID, &e.TenantID, &e.UserID, &e.Action, &e.EntityType, &e.EntityID, &e.IP, &e.Timestamp)
		return e, err
	})
	if err != nil {
		return nil, fmt.Errorf("audit: scan: %w", err)
	}
	return entries, nil
}

func optionalTime(t time.Time) pgtype.Timestamptz {
	if t.IsZero() {
		return pgtype.Timestamptz{}
	}
	return pgtype.Timestamptz{Time: t, Valid: true}
}

func optionalText(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

var _ Repository = (*PGRepository)(nil)
