package dbx

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

// UniqueViolation reports whether err is a Postgres unique constraint
// violation and, if so, the column guessed from the constraint name.
// Constraints follow the default "<table>_<column>_key" naming.
func UniqueViolation(err error) (field string, ok bool) {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != uniqueViolation {
		return "", false
	}
	return fieldFromConstraint(pgErr.TableName, pgErr.ConstraintName), true
}

func fieldFromConstraint(table, constraint string) string {
	name := strings.TrimSuffix(constraint, "_key")
	if name == constraint {
		name = strings.TrimSuffix(constraint, "_idx")
	}
	if table != "" {
		name = strings.TrimPrefix(name, table+"_")
	} else if i := strings.Index(name, "_"); i >= 0 {
		name = name[i+1:]
	}
	if name == constraint {
		return ""
	}
	return name
}
