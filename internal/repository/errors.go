// Package repository holds the PostgreSQL data access layer. Repositories
// translate driver errors into the sentinel values below so handlers can
// choose a status code without inspecting SQL state.
package repository

import (
	"errors"

	"github.com/iliyamo/cloudlab/internal/database"
)

// ErrNotFound is returned when a lookup or conditional update matched no row.
var ErrNotFound = errors.New("not found")

// ErrForbidden is returned when the caller attempts an operation
// on a resource they do not own. Handlers should translate this
// into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when a write collides with existing state, such
// as assigning a lab the user already holds. Handlers should translate this
// into an HTTP 409 response.
var ErrConflict = errors.New("conflict")

// ErrInvalidReference is returned when the database rejects the values of a
// write: unknown lab or user ids, missing required fields or a failed CHECK.
var ErrInvalidReference = errors.New("invalid reference")

// ErrUnsupportedProvider is returned for a cloud without an instance catalogue.
var ErrUnsupportedProvider = errors.New("unsupported provider")

// ErrInvalidTransition is returned when an assignment is not in the status a
// session change requires.
var ErrInvalidTransition = errors.New("invalid status transition")

// ErrEmailExists is returned by UserRepo.Create for a duplicate email.
var ErrEmailExists = errors.New("email already exists")

type rowScanner interface {
	Scan(dest ...any) error
}

// writeErr classifies an insert or update failure.
func writeErr(err error) error {
	switch {
	case err == nil:
		return nil
	case database.IsUniqueViolation(err):
		return ErrConflict
	case database.IsRejectedInput(err):
		return ErrInvalidReference
	}
	return err
}
