package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prana-run/prana/internal/config"
)

func TestLoad_ShouldApplyDefaults_WhenNoEnvironmentVariablesSet(t *testing.T) {
	cfg, err := config.Load()

	require.NoError(t, err)
	assert.Equal(t, 1000, cfg.Engine.MaxLoopIterations)
	assert.Equal(t, "info", cfg.Engine.LogLevel)
	assert.Equal(t, "memory", cfg.Storage.Driver)
	assert.Equal(t, ":8080", cfg.Server.Addr)
}

func TestLoad_ShouldOverrideDefaults_FromEnvironmentVariables(t *testing.T) {
	t.Setenv("PRANA_MAX_LOOP_ITERATIONS", "50")
	t.Setenv("PRANA_STORAGE_DRIVER", "postgres")
	t.Setenv("PRANA_POSTGRES_DSN", "postgres://localhost/prana")
	t.Setenv("PRANA_ADDR", ":9090")

	cfg, err := config.Load()

	require.NoError(t, err)
	assert.Equal(t, 50, cfg.Engine.MaxLoopIterations)
	assert.Equal(t, "postgres", cfg.Storage.Driver)
	assert.Equal(t, "postgres://localhost/prana", cfg.Storage.Postgres)
	assert.Equal(t, ":9090", cfg.Server.Addr)
}
