package pkg

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// postgres error codes, see https://www.postgresql.org/docs/current/errcodes-appendix.html
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// PgErrorCode returns the SQLSTATE of a wrapped postgres error, or "" for any other error
func PgErrorCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// IsUniqueViolationError is true when an insert hit a UNIQUE constraint (duplicate email or username)
func IsUniqueViolationError(err error) bool {
	return PgErrorCode(err) == pgUniqueViolation
}

// IsForeignKeyViolationError is true when a row references a user that does not exist
func IsForeignKeyViolationError(err error) bool {
	return PgErrorCode(err) == pgForeignKeyViolation
}
