package container

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"breakfit/adapters/postgres"
	"breakfit/internal/config"
	"breakfit/internal/errors"
	"breakfit/internal/testkit"
)

func TestNew_NilConfig(t *testing.T) {
	_, err := New(nil)
	assert.Error(t, err)
}

func TestInit_InMemory(t *testing.T) {
	c, err := New(config.Default())
	require.NoError(t, err)
	require.NoError(t, c.Init(context.Background()))
	defer c.Shutdown(context.Background())

	assert.Nil(t, c.DB)
	assert.IsType(t, &testkit.InMemorySelectionRepository{}, c.Runs)
	assert.NotNil(t, c.Selections)
	assert.NotNil(t, c.Charts)
}

func TestInit_SQLite(t *testing.T) {
	cfg := config.Default()
	cfg.Database.Driver = postgres.DriverSQLite
	cfg.Database.URL = ":memory:"

	c, err := New(cfg)
	require.NoError(t, err)
	require.NoError(t, c.Init(context.Background()))
	defer c.Shutdown(context.Background())

	require.NotNil(t, c.DB)
	var applied int
	require.NoError(t, c.DB.Get(&applied, "SELECT COUNT(*) FROM schema_migrations"))
	assert.Equal(t, 2, applied)

	runs, err := c.Selections.Recent(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestInit_ConnectFailure(t *testing.T) {
	cfg := config.Default()
	cfg.Database.Driver = "oracle"
	cfg.Database.URL = "whatever"
	cfg.Database.Retries = 1

	c, err := New(cfg)
	require.NoError(t, err)
	err = c.Init(context.Background())
	require.Error(t, err)
	assert.Equal(t, errors.CodeDatabaseError, errors.GetCode(err))
}
