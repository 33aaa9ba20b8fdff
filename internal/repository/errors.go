// Package repository defines error types that are reused across multiple
// repositories.  These sentinel values allow handlers to distinguish
// between failure scenarios without inspecting driver errors.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when the requested row does not exist.
// Handlers translate it into an HTTP 404 response.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a delete or update cannot be performed
// because of conflicting state, such as deleting a showtime that still
// has bookings or creating a category whose name is taken.  Handlers
// translate it into an HTTP 409 response.
var ErrConflict = errors.New("conflict")

// ErrEmailExists is returned when a user is created or renamed to an
// email already in use.
var ErrEmailExists = errors.New("email already exists")

const (
	mysqlDuplicateEntry  = 1062
	mysqlRowIsReferenced = 1451
	mysqlNoReferencedRow = 1452
)

func mysqlErrorIs(err error, codes ...uint16) bool {
	var me *mysql.MySQLError
	if !errors.As(err, &me) {
		return false
	}
	for _, c := range codes {
		if me.Number == c {
			return true
		}
	}
	return false
}
