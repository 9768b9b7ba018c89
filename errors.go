package persons

import "errors"

var (
	// ErrMigrationFailed indicates the startup migration exhausted its retry budget.
	// The process must not enter its serving state when this is returned.
	ErrMigrationFailed = errors.New("migration failed")

	// ErrInvalidPerson indicates a request body could not be used as a person.
	ErrInvalidPerson = errors.New("invalid person")
)
