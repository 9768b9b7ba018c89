package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/getpup/persons-api/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()

	for _, key := range []string{config.EnvConnection, config.EnvLegacyConnection, config.EnvDriver, config.EnvPersonsTable} {
		t.Setenv(key, "")
	}
}

func TestMigrate_MissingConnectionString(t *testing.T) {
	clearEnv(t)

	var logs bytes.Buffer
	cmd := newRootCommand(&logs)
	cmd.SetArgs([]string{"migrate", "--env-file", filepath.Join(t.TempDir(), "missing.env")})

	err := cmd.ExecuteContext(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, config.ErrMissingConnectionString)
	assert.NotContains(t, logs.String(), "applying database migrations")
}

func TestMigrate_SQLite(t *testing.T) {
	clearEnv(t)
	t.Setenv(config.EnvDriver, "sqlite")
	t.Setenv(config.EnvConnection, filepath.Join(t.TempDir(), "persons.db"))

	var logs bytes.Buffer
	cmd := newRootCommand(&logs)
	cmd.SetArgs([]string{"migrate", "--no-color", "--metrics=false", "--env-file", filepath.Join(t.TempDir(), "missing.env")})

	err := cmd.ExecuteContext(context.Background())

	require.NoError(t, err)
	assert.Contains(t, logs.String(), "applying database migrations")
	assert.Contains(t, logs.String(), "database migrations applied")
}

func TestLogLevelFlagRejectsUnknownLevel(t *testing.T) {
	clearEnv(t)
	t.Setenv(config.EnvConnection, "ignored")
	t.Setenv(config.EnvDriver, "memory")

	cmd := newRootCommand(&bytes.Buffer{})
	cmd.SetArgs([]string{"migrate", "--log-level", "loud", "--env-file", filepath.Join(t.TempDir(), "missing.env")})

	err := cmd.ExecuteContext(context.Background())

	assert.ErrorContains(t, err, "unknown log level")
}

func TestMigrate_UnsupportedDriver(t *testing.T) {
	clearEnv(t)
	t.Setenv(config.EnvConnection, "sqlserver://db")
	t.Setenv(config.EnvDriver, "sqlserver")

	var logs bytes.Buffer
	cmd := newRootCommand(&logs)
	cmd.SetArgs([]string{"migrate", "--env-file", filepath.Join(t.TempDir(), "missing.env")})

	err := cmd.ExecuteContext(context.Background())

	require.Error(t, err)
	assert.ErrorContains(t, err, config.EnvDriver)
	assert.NotContains(t, logs.String(), "applying database migrations")
}
