package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("JWT_SECRET_KEY", "test-secret")
}

func TestConfig_Load_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 25, cfg.Database.MaxConns)
	assert.Equal(t, 8, cfg.Aggregation.Workers)
	assert.Equal(t, "1h", cfg.JWT.AccessExpiration)
}

func TestConfig_Load_PoolSizing(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("DB_MAX_CONNS", "40")
	t.Setenv("AGGREGATION_WORKERS", "16")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 40, cfg.Database.MaxConns)
	assert.Equal(t, 16, cfg.Aggregation.Workers)
}

func TestConfig_Load_RejectsInvalidPoolSize(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("DB_MAX_CONNS", "0")

	_, err := Load()
	assert.Error(t, err)
}

func TestConfig_DatabaseURL(t *testing.T) {
	cfg := &Config{Database: DatabaseConfig{
		Host: "db.internal", Port: 5433, User: "svc", Password: "pw", Name: "attendance", SSLMode: "require",
	}}

	assert.Equal(t, "postgres://svc:pw@db.internal:5433/attendance?sslmode=require", cfg.DatabaseURL())
}
