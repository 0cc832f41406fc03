package data

import (
	"database/sql"
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	apperrors "github.com/agrimanage/farmreg/internal/errors"
)

var errNoRows = pgx.ErrNoRows

func isNotFound(err error) bool { return apperrors.IsNotFound(err) }

// classify maps low-level database errors onto application error codes so the
// service layer never inspects driver errors directly.
func classify(err error, entity string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) || errors.Is(err, sql.ErrNoRows) {
		return apperrors.NotFoundf("%s not found", entity)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.UniqueViolation:
			return apperrors.Conflictf("%s already exists", entity)
		case pgerrcode.ForeignKeyViolation:
			return apperrors.Validationf("%s references a missing record", entity)
		}
	}

	return apperrors.Wrapf(err, apperrors.ErrCodeInternal, "%s query failed", entity)
}
