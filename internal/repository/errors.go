// Package repository provides PostgreSQL persistence for users and the
// equipment inventory.
package repository

import (
	"database/sql"
	"errors"

	"github.com/lib/pq"
)

// Sentinel errors returned by every repository method.
var (
	// ErrNotFound means no row matched the given id or key.
	ErrNotFound = errors.New("not found")
	// ErrConflict means a unique constraint was violated.
	ErrConflict = errors.New("conflict")
	// ErrInUse means a row cannot be deleted because others reference it.
	ErrInUse = errors.New("in use")
	// ErrMissingReference means a write pointed at a row that does not exist.
	ErrMissingReference = errors.New("missing reference")
)

// PostgreSQL error codes.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
)

// mapError translates driver errors into the sentinels above. onForeignKey
// is returned for foreign key violations, which mean different things for
// deletes and for inserts.
func mapError(err, onForeignKey error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case codeUniqueViolation:
			return ErrConflict
		case codeForeignKeyViolation:
			return onForeignKey
		}
	}
	return err
}

// affected turns a zero row count into ErrNotFound.
func affected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// nullIfEmpty stores blank optional text as NULL.
func nullIfEmpty(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
