package sqlstore

import (
	"fmt"
	"strings"

	"github.com/getpup/persons-api/pkg/migrations"
	"github.com/getpup/persons-api/store"
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"
)

// Supported database/sql driver names.
const (
	DriverPostgres = "postgres" // github.com/lib/pq
	DriverPgx      = "pgx"      // github.com/jackc/pgx/v5/stdlib
	DriverMySQL    = "mysql"    // github.com/go-sql-driver/mysql
	DriverSQLite   = "sqlite"   // modernc.org/sqlite, pure Go
	DriverSQLite3  = "sqlite3"  // github.com/mattn/go-sqlite3, requires cgo
)

func init() {
	// sqlx does not know the modernc driver name.
	sqlx.BindDriver(DriverSQLite, sqlx.QUESTION)
}

// DialectFor maps a driver name to the SQL dialect it speaks.
// Returns store.ErrUnsupportedDriver for unknown drivers.
func DialectFor(driver string) (migrations.Dialect, error) {
	switch driver {
	case DriverPostgres, DriverPgx:
		return migrations.Postgres, nil
	case DriverMySQL:
		return migrations.MySQL, nil
	case DriverSQLite, DriverSQLite3:
		return migrations.SQLite, nil
	default:
		return "", fmt.Errorf("%w: %q", store.ErrUnsupportedDriver, driver)
	}
}

// IsInMemory reports whether dsn names a SQLite in-memory database. Such a
// database lives only as long as the handle that opened it.
func IsInMemory(driver, dsn string) bool {
	switch driver {
	case DriverSQLite, DriverSQLite3:
		return strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory")
	default:
		return false
	}
}
