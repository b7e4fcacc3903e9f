package db

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/clinicops/clinic/internal/platform/apperr"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
)

// MapError translates driver errors into apperr kinds. what names the entity
// for not-found messages, e.g. "bill".
func MapError(err error, what string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.NotFound("%s not found", what)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return apperr.Conflict("%s already exists", what)
		case pgForeignKeyViolation:
			return apperr.InvalidInput("%s references a record that does not exist", what)
		case pgCheckViolation:
			return apperr.InvalidInput("%s violates constraint %s", what, pgErr.ConstraintName)
		}
	}
	return err
}
