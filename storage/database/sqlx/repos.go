// Package sqlxrepos implements the domain repositories against PostgreSQL
// using hand-written SQL over sqlx.
package sqlxrepos

import (
	"database/sql"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/darasahq/darasa/core"
)

const pgUniqueViolation = "23505"

// NewDB wraps an open *sql.DB for use by the repositories.
func NewDB(db *sql.DB) *sqlx.DB {
	return sqlx.NewDb(db, "postgres")
}

// isUniqueViolation reports whether err is a unique-constraint violation on
// the named constraint (any constraint if name is empty).
func isUniqueViolation(err error, constraint string) bool {
	var pqErr *pq.Error
	if errors.As(errors.Cause(err), &pqErr) && pqErr.Code == pgUniqueViolation {
		return constraint == "" || pqErr.Constraint == constraint
	}
	return false
}

// trapNoRowsErr maps psql "no rows" err to the given sentinel.
func trapNoRowsErr(err, sentinel error, msg string) error {
	if errors.Cause(err) == sql.ErrNoRows {
		return sentinel
	}
	return errors.Wrap(err, msg)
}

func pqStringArray(ss []string) interface{} { return pq.Array(ss) }

func joinConds(conds []string) string { return strings.Join(conds, " AND ") }

func orderClause(ordering []core.DBOrdering, fallback string) string {
	if len(ordering) == 0 {
		return fallback
	}
	orderList := make([]string, 0, len(ordering))
	for _, ord := range ordering {
		orderList = append(orderList, ord.String())
	}
	return strings.Join(orderList, ", ")
}
