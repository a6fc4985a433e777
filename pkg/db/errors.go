package db

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

const pgUniqueViolationCode = "23505"

// IsUniqueViolation reports whether err is a unique constraint violation.
// When constraint names are given, at least one must match the violated
// constraint. SQLite errors (used by tests) are matched on message text.
func IsUniqueViolation(err error, constraints ...string) bool {
	if err == nil {
		return false
	}

	var pgxErr *pgconn.PgError
	if errors.As(err, &pgxErr) {
		return pgxErr.Code == pgUniqueViolationCode && matchesConstraint(pgxErr.ConstraintName, constraints)
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == pgUniqueViolationCode && matchesConstraint(pqErr.Constraint, constraints)
	}

	msg := err.Error()
	if strings.Contains(msg, "duplicate key value") || strings.Contains(msg, "UNIQUE constraint failed") {
		return matchesConstraint(msg, constraints)
	}
	return false
}

func matchesConstraint(violated string, constraints []string) bool {
	if len(constraints) == 0 {
		return true
	}
	for _, name := range constraints {
		if name != "" && strings.Contains(violated, name) {
			return true
		}
	}
	return false
}
