package db

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/hms/hms/internal/platform/apperr"
)

// SQLSTATE codes mapped by MapError.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeCheckViolation      = "23514"
	codeInvalidText         = "22P02"
	codeStringTooLong       = "22001"
	codeNumericOutOfRange   = "22003"
)

// MapError translates driver errors into the apperr taxonomy. resource names
// the entity in messages ("patient not found"). Other errors are wrapped with
// op and passed through.
func MapError(err error, op, resource string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.NotFound(resource)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeUniqueViolation:
			return apperr.Conflict(resource)
		case codeForeignKeyViolation:
			return apperr.Validation("referenced record does not exist")
		case codeCheckViolation, codeInvalidText:
			return apperr.Validation("invalid %s", resource)
		case codeStringTooLong, codeNumericOutOfRange:
			return apperr.Validation("%s field value is out of range", resource)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
