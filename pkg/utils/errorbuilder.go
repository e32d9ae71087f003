package utils

import (
	"context"
	"errors"

	"github.com/darwin-luque/uptime-monitor/pkg/apperror"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
)

const uniqueViolation = "23505"

// WrapRepoError turns a pgx error into an *apperror.Error for op.
func WrapRepoError(op string, err error, isNotFoundErrPossible bool, log *zerolog.Logger) error {
	// Context errors
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return &apperror.Error{
			Kind:    apperror.RequestTimeout,
			Op:      op,
			Err:     err,
			Message: "store call cancelled or timed out",
		}
	}

	// if no row present
	if isNotFoundErrPossible && errors.Is(err, pgx.ErrNoRows) {
		return &apperror.Error{
			Kind:    apperror.NotFound,
			Op:      op,
			Message: "record not found",
		}
	}

	// postgres errors
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == uniqueViolation {
			return &apperror.Error{
				Kind:    apperror.Conflict,
				Op:      op,
				Err:     err,
				Message: "record already exists",
			}
		}

		log.Error().
			Str("op", op).
			Str("pg_code", pgErr.Code).
			Str("pg_table", pgErr.TableName).
			Str("pg_detail", pgErr.Detail).
			Err(err).
			Msg("postgres database error")

		return apperror.New(apperror.DatabaseErr, op, err).WithMessage("database error")
	}

	// connection refused, pool closed, ...
	return apperror.New(apperror.Dependency, op, err).WithMessage("record store unavailable")
}
