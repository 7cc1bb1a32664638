package infra

import (
	"errors"
	"log/slog"

	"hostdash/internal/pkg/errs"
	"hostdash/internal/usecase/shared"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	pgErrCodeUniqueViolation     = "23505"
	pgErrCodeForeignKeyViolation = "23503"
	pgErrCodeCheckViolation      = "23514"
)

type RepositoryErrorKind string

type RepositoryError struct {
	Kind RepositoryErrorKind
	msg  string
	err  error // wrapped low-level error
}

func (e RepositoryError) Error() string {
	if e.err != nil {
		return string(e.Kind) + ": " + e.msg + ": " + e.err.Error()
	}
	return string(e.Kind) + ": " + e.msg
}

func (e RepositoryError) Unwrap() error {
	return e.err
}

// WrapRepoErr classifies a pgx error and marks it so usecases can match shared.ErrNotFound
// and shared.ErrDuplicate without importing the driver.
func WrapRepoErr(msg string, err error) error {
	kind := classify(err)

	switch kind {
	case KindNotFound:
		slog.Debug("Repository miss: "+msg, slog.String("kind", string(kind)))
	default:
		slog.Error("Repository error: "+msg,
			slog.String("kind", string(kind)),
			slog.Any("error", err))
	}

	wrapped := RepositoryError{Kind: kind, msg: msg, err: errs.Wrap(err, msg)}
	switch kind {
	case KindNotFound:
		return notFound(wrapped)
	case KindDuplicateKey:
		return duplicate(wrapped)
	default:
		return wrapped
	}
}

// Marks are not transitive, so the category is applied next to the sentinel.
func notFound(err error) error {
	return errs.Mark(errs.Mark(err, shared.ErrNotFound), errs.ErrNotFound)
}

func duplicate(err error) error {
	return errs.Mark(errs.Mark(err, shared.ErrDuplicate), errs.ErrConflict)
}

// NotFound builds a not-found error for lookups that do not go through pgx.ErrNoRows.
func NotFound(msg string) error {
	return notFound(RepositoryError{Kind: KindNotFound, msg: msg})
}

// Duplicate builds a conflict error for inserts that use ON CONFLICT DO NOTHING.
func Duplicate(msg string) error {
	return duplicate(RepositoryError{Kind: KindDuplicateKey, msg: msg})
}

func IsKind(err error, kind RepositoryErrorKind) bool {
	var e RepositoryError
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

func classify(err error) RepositoryErrorKind {
	if errors.Is(err, pgx.ErrNoRows) {
		return KindNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgErrCodeUniqueViolation:
			return KindDuplicateKey
		case pgErrCodeForeignKeyViolation:
			return KindForeignKeyViolated
		case pgErrCodeCheckViolation:
			return KindCheckViolated
		}
	}
	return KindDBFailure
}

// Infrastructure-specific error kinds
const (
	KindNotFound           RepositoryErrorKind = "NOT_FOUND"
	KindDBFailure          RepositoryErrorKind = "DB_FAILURE"
	KindDuplicateKey       RepositoryErrorKind = "DUPLICATE_KEY"
	KindForeignKeyViolated RepositoryErrorKind = "FOREIGN_KEY_VIOLATED"
	KindCheckViolated      RepositoryErrorKind = "CHECK_VIOLATED"
)
