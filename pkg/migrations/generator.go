package migrations

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// Dialect identifies the SQL flavour a migration is written for.
type Dialect string

const (
	// Postgres is PostgreSQL.
	Postgres Dialect = "postgres"

	// MySQL is MySQL or MariaDB.
	MySQL Dialect = "mysql"

	// SQLite is SQLite 3.
	SQLite Dialect = "sqlite"
)

var identifierRegex = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]*$`)

// validateIdentifier ensures an identifier contains only safe characters for SQL.
// Returns an error if the identifier contains characters that could be used for SQL injection.
func validateIdentifier(name, fieldName string) error {
	if name == "" {
		return fmt.Errorf("%s cannot be empty", fieldName)
	}
	if !identifierRegex.MatchString(name) {
		return fmt.Errorf("%s must start with a letter and contain only letters, numbers, and underscores (got: %s)", fieldName, name)
	}
	return nil
}

// Validate validates all table names to prevent SQL injection.
func Validate(config *Config) error {
	if err := validateIdentifier(config.PersonsTable, "PersonsTable"); err != nil {
		return err
	}
	if err := validateIdentifier(config.MigrationsTable, "MigrationsTable"); err != nil {
		return err
	}
	return nil
}

// Config configures migration generation for the persons schema.
type Config struct {
	// OutputFolder is the directory where the migration file will be written
	OutputFolder string

	// OutputFilename is the name of the migration file
	OutputFilename string

	// PersonsTable is the name of the persons table
	PersonsTable string

	// MigrationsTable is the name of the table recording applied versions
	MigrationsTable string
}

// DefaultConfig returns the default configuration for persons migrations.
func DefaultConfig() Config {
	timestamp := time.Now().Format("20060102150405")
	return Config{
		OutputFolder:    "migrations",
		OutputFilename:  fmt.Sprintf("%s_init_persons.sql", timestamp),
		PersonsTable:    "persons",
		MigrationsTable: "schema_migrations",
	}
}

// Migration is one versioned schema change.
type Migration struct {
	// Version orders migrations; it is recorded once applied.
	Version int

	// Description is a short human-readable summary.
	Description string

	// Statements are executed in order, one Exec per statement.
	Statements []string
}

// Migrations returns the ordered migrations for a dialect.
// Returns an error for an unknown dialect.
func Migrations(dialect Dialect, config Config) ([]Migration, error) {
	switch dialect {
	case Postgres:
		return postgresMigrations(config), nil
	case MySQL:
		return mysqlMigrations(config), nil
	case SQLite:
		return sqliteMigrations(config), nil
	default:
		return nil, fmt.Errorf("unsupported dialect %q", dialect)
	}
}

// MigrationsTableSQL returns the DDL for the table that records applied versions.
func MigrationsTableSQL(dialect Dialect, config Config) (string, error) {
	switch dialect {
	case Postgres:
		return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
    version INTEGER PRIMARY KEY,
    description TEXT NOT NULL,
    applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`, config.MigrationsTable), nil
	case MySQL:
		return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
    version INT PRIMARY KEY,
    description VARCHAR(255) NOT NULL,
    applied_at TIMESTAMP(6) NOT NULL DEFAULT CURRENT_TIMESTAMP(6)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`, config.MigrationsTable), nil
	case SQLite:
		return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
    version INTEGER PRIMARY KEY,
    description TEXT NOT NULL,
    applied_at TEXT NOT NULL DEFAULT (datetime('now'))
)`, config.MigrationsTable), nil
	default:
		return "", fmt.Errorf("unsupported dialect %q", dialect)
	}
}

func postgresMigrations(config Config) []Migration {
	return []Migration{
		{
			Version:     1,
			Description: "create persons table",
			Statements: []string{fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
    id BIGSERIAL PRIMARY KEY,
    name TEXT NOT NULL,
    age INTEGER NOT NULL DEFAULT 0
)`, config.PersonsTable)},
		},
		{
			Version:     2,
			Description: "index persons by name",
			Statements: []string{fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%s_name
    ON %s (name)`, config.PersonsTable, config.PersonsTable)},
		},
	}
}

func mysqlMigrations(config Config) []Migration {
	return []Migration{
		{
			Version:     1,
			Description: "create persons table",
			Statements: []string{fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
    id BIGINT AUTO_INCREMENT PRIMARY KEY,
    name VARCHAR(255) NOT NULL,
    age INT NOT NULL DEFAULT 0
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`, config.PersonsTable)},
		},
		{
			// MySQL has no CREATE INDEX IF NOT EXISTS and DDL commits implicitly,
			// so the index is created only when information_schema lacks it.
			Version:     2,
			Description: "index persons by name",
			Statements:  mysqlCreateIndex(config.PersonsTable, fmt.Sprintf("idx_%s_name", config.PersonsTable), "name"),
		},
	}
}

func mysqlCreateIndex(table, index, column string) []string {
	return []string{
		fmt.Sprintf(`SET @idx_exists = (SELECT COUNT(*) FROM information_schema.statistics
    WHERE table_schema = DATABASE() AND table_name = '%s' AND index_name = '%s')`, table, index),
		fmt.Sprintf(`SET @idx_ddl = IF(@idx_exists = 0, 'CREATE INDEX %s ON %s (%s)', 'DO 0')`, index, table, column),
		"PREPARE idx_stmt FROM @idx_ddl",
		"EXECUTE idx_stmt",
		"DEALLOCATE PREPARE idx_stmt",
	}
}

func sqliteMigrations(config Config) []Migration {
	return []Migration{
		{
			Version:     1,
			Description: "create persons table",
			Statements: []string{fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL,
    age INTEGER NOT NULL DEFAULT 0
)`, config.PersonsTable)},
		},
		{
			Version:     2,
			Description: "index persons by name",
			Statements: []string{fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%s_name
    ON %s (name)`, config.PersonsTable, config.PersonsTable)},
		},
	}
}

// recordVersionSQL returns an idempotent insert of a version row, with values inlined.
func recordVersionSQL(dialect Dialect, config Config, m Migration) string {
	description := strings.ReplaceAll(m.Description, "'", "''")
	switch dialect {
	case MySQL:
		return fmt.Sprintf("INSERT IGNORE INTO %s (version, description) VALUES (%d, '%s')",
			config.MigrationsTable, m.Version, description)
	case SQLite:
		return fmt.Sprintf("INSERT OR IGNORE INTO %s (version, description) VALUES (%d, '%s')",
			config.MigrationsTable, m.Version, description)
	default:
		return fmt.Sprintf("INSERT INTO %s (version, description) VALUES (%d, '%s') ON CONFLICT (version) DO NOTHING",
			config.MigrationsTable, m.Version, description)
	}
}

// Render returns the full migration script for a dialect.
func Render(dialect Dialect, config *Config) (string, error) {
	if err := Validate(config); err != nil {
		return "", fmt.Errorf("invalid configuration: %w", err)
	}

	tableSQL, err := MigrationsTableSQL(dialect, *config)
	if err != nil {
		return "", err
	}

	migrations, err := Migrations(dialect, *config)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "-- Persons Schema Migration\n-- Generated: %s\n-- Database: %s\n\n", time.Now().Format(time.RFC3339), dialectTitle(dialect))
	b.WriteString("-- Applied versions\n")
	b.WriteString(tableSQL)
	b.WriteString(";\n")

	for _, m := range migrations {
		fmt.Fprintf(&b, "\n-- Version %d: %s\n", m.Version, m.Description)
		for _, stmt := range m.Statements {
			b.WriteString(stmt)
			b.WriteString(";\n")
		}
		b.WriteString(recordVersionSQL(dialect, *config, m))
		b.WriteString(";\n")
	}

	return b.String(), nil
}

func dialectTitle(dialect Dialect) string {
	switch dialect {
	case Postgres:
		return "PostgreSQL"
	case MySQL:
		return "MySQL/MariaDB"
	case SQLite:
		return "SQLite"
	default:
		return string(dialect)
	}
}

// GeneratePostgres generates a PostgreSQL migration file.
func GeneratePostgres(config *Config) error {
	return generate(Postgres, config)
}

// GenerateMySQL generates a MySQL/MariaDB migration file.
func GenerateMySQL(config *Config) error {
	return generate(MySQL, config)
}

// GenerateSQLite generates a SQLite migration file.
func GenerateSQLite(config *Config) error {
	return generate(SQLite, config)
}

func generate(dialect Dialect, config *Config) error {
	sql, err := Render(dialect, config)
	if err != nil {
		return err
	}

	// Ensure output folder exists
	if err := os.MkdirAll(config.OutputFolder, 0o755); err != nil {
		return fmt.Errorf("failed to create output folder: %w", err)
	}

	outputPath := filepath.Join(config.OutputFolder, config.OutputFilename)
	if err := os.WriteFile(outputPath, []byte(sql), 0o600); err != nil {
		return fmt.Errorf("failed to write migration file: %w", err)
	}

	return nil
}
