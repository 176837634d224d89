package database

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// PostgreSQL SQLSTATE codes the repositories react to.
const (
	CodeUniqueViolation     = "23505"
	CodeForeignKeyViolation = "23503"
	CodeNotNullViolation    = "23502"
	CodeCheckViolation      = "23514"
	CodeInvalidTextRepr     = "22P02"
)

// PgCode returns the SQLSTATE of err, or "" when err is not a server error.
func PgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// IsUniqueViolation reports a duplicate key error.
func IsUniqueViolation(err error) bool { return PgCode(err) == CodeUniqueViolation }

// IsRejectedInput reports errors caused by the values of a write rather than
// by the server: dangling references, missing required columns, failed CHECK
// constraints and malformed ids.
func IsRejectedInput(err error) bool {
	switch PgCode(err) {
	case CodeForeignKeyViolation, CodeNotNullViolation, CodeCheckViolation, CodeInvalidTextRepr:
		return true
	}
	return false
}
