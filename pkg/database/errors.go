package database

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrNotFound is returned by repositories when a lookup matches no row.
var ErrNotFound = errors.New("record not found")

// PostgreSQL SQLSTATE codes the repositories translate.
const (
	codeUniqueViolation = "23505"
	codeCheckViolation  = "23514"
)

// NotFound maps pgx.ErrNoRows to ErrNotFound and returns any other error unchanged.
func NotFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// IsUniqueViolation reports whether err is a unique constraint violation,
// optionally restricted to the named constraint.
func IsUniqueViolation(err error, constraint string) bool {
	return hasCode(err, codeUniqueViolation, constraint)
}

// IsCheckViolation reports whether err is a CHECK constraint violation,
// optionally restricted to the named constraint.
func IsCheckViolation(err error, constraint string) bool {
	return hasCode(err, codeCheckViolation, constraint)
}

func hasCode(err error, code, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != code {
		return false
	}
	return constraint == "" || pgErr.ConstraintName == constraint
}
