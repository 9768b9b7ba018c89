// Package migrations provides versioned schema migrations for the persons service.
// It holds the DDL for PostgreSQL, MySQL/MariaDB, and SQLite, used both by the
// SQL store at startup and by the migrate-gen command to write migration files.
package migrations
