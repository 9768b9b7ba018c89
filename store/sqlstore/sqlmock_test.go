package sqlstore

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	persons "github.com/getpup/persons-api"
	"github.com/getpup/persons-api/pkg/migrations"
	"github.com/getpup/persons-api/store"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	s, err := New(sqlx.NewDb(db, DriverPostgres), migrations.Postgres)
	require.NoError(t, err)

	return s, mock
}

func TestPostgresCreate_UsesReturning(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO persons (name, age) VALUES ($1, $2) RETURNING id`)).
		WithArgs("Ada", 36).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(42))

	p := persons.Person{Name: "Ada", Age: 36}
	require.NoError(t, s.Create(context.Background(), &p))

	assert.Equal(t, int64(42), p.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGet_NoRowsIsNotFound(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, name, age FROM persons WHERE id = $1`)).
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "age"}))

	_, err := s.Get(context.Background(), 7)

	assert.ErrorIs(t, err, store.ErrPersonNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGet_QueryErrorIsWrapped(t *testing.T) {
	s, mock := newMockStore(t)
	errReset := errors.New("connection reset by peer")

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, name, age FROM persons WHERE id = $1`)).
		WithArgs(7).
		WillReturnError(errReset)

	_, err := s.Get(context.Background(), 7)

	assert.ErrorIs(t, err, errReset)
	assert.NotErrorIs(t, err, store.ErrPersonNotFound)
}

func TestPostgresUpdate_RunsInTransaction(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, name, age FROM persons WHERE id = $1`)).
		WithArgs(3).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "age"}).AddRow(3, "Ada", 36))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE persons SET name = $1, age = $2 WHERE id = $3`)).
		WithArgs("Ada Lovelace", 37, 3).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	p, err := s.Update(context.Background(), 3, "Ada Lovelace", 37)

	require.NoError(t, err)
	assert.Equal(t, persons.Person{ID: 3, Name: "Ada Lovelace", Age: 37}, p)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresUpdate_MissingRollsBack(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, name, age FROM persons WHERE id = $1`)).
		WithArgs(3).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "age"}))
	mock.ExpectRollback()

	_, err := s.Update(context.Background(), 3, "Nobody", 1)

	assert.ErrorIs(t, err, store.ErrPersonNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresDelete_ZeroRowsIsNotFound(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM persons WHERE id = $1`)).
		WithArgs(9).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := s.Delete(context.Background(), 9)

	assert.ErrorIs(t, err, store.ErrPersonNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrate_FailedStatementRollsBack(t *testing.T) {
	s, mock := newMockStore(t)
	errDenied := errors.New("permission denied for schema public")

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS schema_migrations").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT version FROM schema_migrations ORDER BY version`)).
		WillReturnRows(sqlmock.NewRows([]string{"version"}))
	mock.ExpectBegin()
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS persons").
		WillReturnError(errDenied)
	mock.ExpectRollback()

	err := s.Migrate(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, errDenied)
	assert.Contains(t, err.Error(), "failed to apply migration 1")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrate_SkipsAppliedVersions(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS schema_migrations").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT version FROM schema_migrations ORDER BY version`)).
		WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow(1).AddRow(2))

	require.NoError(t, s.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPing_ReportsUnreachableDatabase(t *testing.T) {
	s, mock := newMockStore(t)
	errRefused := errors.New("connection refused")

	mock.ExpectPing().WillReturnError(errRefused)

	assert.ErrorIs(t, s.Ping(context.Background()), errRefused)
}

func TestMySQLMigrate_IndexCreationIsGuarded(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	s, err := New(sqlx.NewDb(db, DriverMySQL), migrations.MySQL)
	require.NoError(t, err)

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS schema_migrations").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT version FROM schema_migrations ORDER BY version`)).
		WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow(1))
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("SET @idx_exists = (SELECT COUNT(*) FROM information_schema.statistics")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("SET @idx_ddl = IF(@idx_exists = 0, 'CREATE INDEX idx_persons_name ON persons (name)', 'DO 0')")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("PREPARE idx_stmt FROM @idx_ddl")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("EXECUTE idx_stmt")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("DEALLOCATE PREPARE idx_stmt")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO schema_migrations (version, description) VALUES (?, ?)`)).
		WithArgs(2, "index persons by name").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, s.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
