package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskmaster/recurring/internal/infrastructure/config"
)

func TestSQLiteMigrations(t *testing.T) {
	db, err := New(config.DatabaseConfig{Driver: config.DriverSQLite, Path: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, db.HealthCheck(context.Background()))
	assert.Equal(t, config.DriverSQLite, db.Driver())

	version, dirty, err := db.MigrationVersion()
	require.NoError(t, err)
	assert.Zero(t, version)
	assert.False(t, dirty)

	applied, err := db.MigrateUp()
	require.NoError(t, err)
	assert.True(t, applied)

	applied, err = db.MigrateUp()
	require.NoError(t, err)
	assert.False(t, applied, "second run has nothing to apply")

	version, _, err = db.MigrationVersion()
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)

	var tables int
	require.NoError(t, db.DB.Get(&tables, `SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name IN ('recurrence_templates', 'recurrence_exceptions', 'tasks')`))
	assert.Equal(t, 3, tables)

	applied, err = db.MigrateDown(1)
	require.NoError(t, err)
	assert.True(t, applied)

	require.NoError(t, db.DB.Get(&tables, `SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'tasks'`))
	assert.Zero(t, tables)
}

func TestNew_UnreachablePostgres(t *testing.T) {
	_, err := New(config.DatabaseConfig{
		Driver:  config.DriverPostgres,
		Host:    "127.0.0.1",
		Port:    1,
		Name:    "recurring",
		User:    "recurring",
		SSLMode: "disable",
	})
	assert.Error(t, err)
}
