package store

import (
	"context"

	persons "github.com/getpup/persons-api"
)

// Migrator applies pending schema changes.
// It is the only capability the startup migration runner needs.
type Migrator interface {
	// Migrate brings the schema up to date. It must be idempotent:
	// calling it on an up-to-date schema is a no-op.
	Migrate(ctx context.Context) error
}

// MigratorFunc adapts a plain function to the Migrator interface.
type MigratorFunc func(ctx context.Context) error

// Migrate calls f(ctx).
func (f MigratorFunc) Migrate(ctx context.Context) error {
	return f(ctx)
}

// PersonStore provides persistence for persons.
// Implementations must be safe for concurrent access from multiple handlers.
type PersonStore interface {
	Migrator

	// Create inserts a new person and sets its ID.
	Create(ctx context.Context, p *persons.Person) error

	// List returns all persons ordered by ID.
	// Returns an empty slice if no persons exist.
	List(ctx context.Context) ([]persons.Person, error)

	// Get returns a person by ID.
	// Returns ErrPersonNotFound if the person does not exist.
	Get(ctx context.Context, id int64) (persons.Person, error)

	// Update replaces the name and age of an existing person and returns it.
	// Returns ErrPersonNotFound if the person does not exist.
	Update(ctx context.Context, id int64, name string, age int) (persons.Person, error)

	// Delete removes a person.
	// Returns ErrPersonNotFound if the person does not exist.
	Delete(ctx context.Context, id int64) error

	// Ping checks that the backing storage is reachable.
	Ping(ctx context.Context) error
}
