package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	persons "github.com/getpup/persons-api"
	"github.com/getpup/persons-api/pkg/migrations"
	"github.com/getpup/persons-api/store"
	"github.com/jmoiron/sqlx"
)

// Store is a SQL implementation of PersonStore backed by sqlx.
// It works against PostgreSQL, MySQL and SQLite; queries are written with
// '?' placeholders and rebound for the driver.
type Store struct {
	db           *sqlx.DB
	dialect      migrations.Dialect
	tables       migrations.Config
	logger       persons.Logger
	personsTable string
}

// Compile-time check that Store implements PersonStore.
var _ store.PersonStore = (*Store)(nil)

// Option configures a Store.
type Option func(*Store)

// WithTableNames overrides the persons and migrations table names.
// Empty names keep the defaults.
func WithTableNames(personsTable, migrationsTable string) Option {
	return func(s *Store) {
		if personsTable != "" {
			s.tables.PersonsTable = personsTable
		}
		if migrationsTable != "" {
			s.tables.MigrationsTable = migrationsTable
		}
	}
}

// WithLogger sets a logger for migration progress.
func WithLogger(logger persons.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// Open connects to the database with the given driver and DSN.
// The connection is verified with a ping bounded by ctx.
func Open(ctx context.Context, driver, dsn string, opts ...Option) (*Store, error) {
	dialect, err := DialectFor(driver)
	if err != nil {
		return nil, err
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if dialect == migrations.SQLite {
		// SQLite serializes writers; one connection also keeps ":memory:" databases shared.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(10)
		db.SetConnMaxLifetime(30 * time.Minute)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s, err := New(db, dialect, opts...)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return s, nil
}

// New wraps an existing connection.
// Returns an error if a configured table name is not a safe identifier.
func New(db *sqlx.DB, dialect migrations.Dialect, opts ...Option) (*Store, error) {
	defaults := migrations.DefaultConfig()
	s := &Store{
		db:      db,
		dialect: dialect,
		tables: migrations.Config{
			PersonsTable:    defaults.PersonsTable,
			MigrationsTable: defaults.MigrationsTable,
		},
	}

	for _, opt := range opts {
		opt(s)
	}

	if err := migrations.Validate(&s.tables); err != nil {
		return nil, fmt.Errorf("invalid table configuration: %w", err)
	}
	s.personsTable = s.tables.PersonsTable

	return s, nil
}

// DB returns the underlying connection.
func (s *Store) DB() *sqlx.DB {
	return s.db
}

// Close closes the underlying connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks that the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Create inserts a new person and sets its ID.
func (s *Store) Create(ctx context.Context, p *persons.Person) error {
	if s.dialect == migrations.Postgres {
		query := fmt.Sprintf(`INSERT INTO %s (name, age) VALUES ($1, $2) RETURNING id`, s.personsTable)
		if err := s.db.QueryRowxContext(ctx, query, p.Name, p.Age).Scan(&p.ID); err != nil {
			return fmt.Errorf("failed to create person: %w", err)
		}
		return nil
	}

	query := fmt.Sprintf(`INSERT INTO %s (name, age) VALUES (?, ?)`, s.personsTable)
	result, err := s.db.ExecContext(ctx, query, p.Name, p.Age)
	if err != nil {
		return fmt.Errorf("failed to create person: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read inserted id: %w", err)
	}
	p.ID = id

	return nil
}

// List returns all persons ordered by ID.
// Returns an empty slice if no persons exist.
func (s *Store) List(ctx context.Context) ([]persons.Person, error) {
	query := fmt.Sprintf(`SELECT id, name, age FROM %s ORDER BY id`, s.personsTable)

	result := []persons.Person{}
	if err := s.db.SelectContext(ctx, &result, query); err != nil {
		return nil, fmt.Errorf("failed to list persons: %w", err)
	}

	return result, nil
}

// Get returns a person by ID.
// Returns store.ErrPersonNotFound if the person does not exist.
func (s *Store) Get(ctx context.Context, id int64) (persons.Person, error) {
	return s.get(ctx, s.db, id)
}

func (s *Store) get(ctx context.Context, q sqlx.QueryerContext, id int64) (persons.Person, error) {
	query := s.db.Rebind(fmt.Sprintf(`SELECT id, name, age FROM %s WHERE id = ?`, s.personsTable))

	var p persons.Person
	err := sqlx.GetContext(ctx, q, &p, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return persons.Person{}, store.ErrPersonNotFound
	}
	if err != nil {
		return persons.Person{}, fmt.Errorf("failed to get person: %w", err)
	}

	return p, nil
}

// Update replaces the name and age of an existing person.
// The existence check and update run in one transaction because MySQL reports
// zero affected rows when the values are unchanged.
// Returns store.ErrPersonNotFound if the person does not exist.
func (s *Store) Update(ctx context.Context, id int64, name string, age int) (persons.Person, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return persons.Person{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	p, err := s.get(ctx, tx, id)
	if err != nil {
		return persons.Person{}, err
	}

	query := tx.Rebind(fmt.Sprintf(`UPDATE %s SET name = ?, age = ? WHERE id = ?`, s.personsTable))
	if _, err := tx.ExecContext(ctx, query, name, age, id); err != nil {
		return persons.Person{}, fmt.Errorf("failed to update person: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return persons.Person{}, fmt.Errorf("failed to commit update: %w", err)
	}

	p.Name = name
	p.Age = age
	return p, nil
}

// Delete removes a person.
// Returns store.ErrPersonNotFound if the person does not exist.
func (s *Store) Delete(ctx context.Context, id int64) error {
	query := s.db.Rebind(fmt.Sprintf(`DELETE FROM %s WHERE id = ?`, s.personsTable))

	result, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete person: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return store.ErrPersonNotFound
	}

	return nil
}
