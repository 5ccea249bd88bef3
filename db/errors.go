package db

import (
	"strings"

	"github.com/teranos/globi/errors"
)

// ErrDatabaseClosed is returned when operations are attempted on a closed database.
var ErrDatabaseClosed = errors.New("database is closed")

// IsDatabaseClosed reports whether err indicates the connection is closed,
// either as ErrDatabaseClosed or as a raw driver error.
func IsDatabaseClosed(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrDatabaseClosed) {
		return true
	}
	return strings.Contains(err.Error(), "database is closed")
}

// IsConstraintViolation reports whether err came from a SQLite constraint
// (unique, foreign key, not null).
func IsConstraintViolation(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "constraint failed")
}
