package repository

import (
	"context"
	"errors"

	"github.com/cloo-solutions/matchd/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// dbtx is satisfied by both *pgxpool.Pool and pgx.Tx.
type dbtx interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const (
	pgUniqueViolation      = "23505"
	pgForeignKeyViolation  = "23503"
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"

	candidateForeignKey = "match_records_candidate_id_fkey"
	jobForeignKey       = "match_records_job_id_fkey"
)

// translatePgError maps Postgres contention errors to ErrConcurrentWriteConflict
// and a match record referencing an unknown candidate or job to the matching
// not-found error. Everything else is returned untouched.
func translatePgError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation, pgSerializationFailure, pgDeadlockDetected:
			return wrapDomainError(domain.ErrConcurrentWriteConflict, err)
		case pgForeignKeyViolation:
			switch pgErr.ConstraintName {
			case candidateForeignKey:
				return wrapDomainError(domain.ErrCandidateNotFound, err)
			case jobForeignKey:
				return wrapDomainError(domain.ErrJobNotFound, err)
			}
		}
	}
	return err
}

func wrapDomainError(sentinel *domain.DomainError, cause error) error {
	return domain.NewDomainErrorWithCause(sentinel.Code, sentinel.Message, cause)
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
