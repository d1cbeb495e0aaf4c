package db

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/tenantflow/tenantflow/internal/shared"
)

const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeInvalidTextRep      = "22P02"
)

// IsUniqueViolation reports whether err is a Postgres unique constraint violation.
func IsUniqueViolation(err error) bool {
	return pgCode(err) == codeUniqueViolation
}

// IsForeignKeyViolation reports whether err is a Postgres foreign key violation.
func IsForeignKeyViolation(err error) bool {
	return pgCode(err) == codeForeignKeyViolation
}

// Translate maps driver errors onto the shared taxonomy. Unknown errors pass through.
func Translate(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, pgx.ErrNoRows):
		return fmt.Errorf("%w: %s", shared.ErrNotFound, what)
	case IsUniqueViolation(err):
		return fmt.Errorf("%w: %s already exists", shared.ErrConflict, what)
	case IsForeignKeyViolation(err):
		return fmt.Errorf("%w: %s", shared.ErrInvalidReference, what)
	case pgCode(err) == codeInvalidTextRep:
		// malformed uuid in a lookup behaves like a missing row
		return fmt.Errorf("%w: %s", shared.ErrNotFound, what)
	default:
		return err
	}
}

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}
