package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("SUPABASE_JWT_SECRET", "secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.AppEnv)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "8081", cfg.RealtimePort)
	assert.Equal(t, "authenticated", cfg.JWTAudience)
	assert.Equal(t, "barterhub.exchanges", cfg.KafkaTopic)
	assert.Equal(t, []string{"*"}, cfg.CORSAllowOrigins)
	assert.Equal(t, 2000, cfg.MessageMaxLength)
	assert.Equal(t, int32(10), cfg.DatabaseConfig.MaxConns)
	assert.True(t, cfg.RunMigrations)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.False(t, cfg.IsDevelopment())
}

func TestLoad_FromEnvVars(t *testing.T) {
	t.Setenv("SUPABASE_JWT_SECRET", "secret")
	t.Setenv("APP_ENV", "development")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092,kafka-2:9092")
	t.Setenv("PGHOST", "db.internal")
	t.Setenv("PGUSER", "app")
	t.Setenv("PGPASSWORD", "pw")
	t.Setenv("PGDATABASE", "market")
	t.Setenv("MESSAGE_MAX_LENGTH", "500")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 500, cfg.MessageMaxLength)
	assert.Equal(t, "postgres://app:pw@db.internal:5432/market?sslmode=disable", cfg.DSN())
}

func TestLoad_MissingSecret(t *testing.T) {
	t.Setenv("SUPABASE_JWT_SECRET", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config")
}

func TestLoad_InvalidMessageLength(t *testing.T) {
	t.Setenv("SUPABASE_JWT_SECRET", "secret")
	t.Setenv("MESSAGE_MAX_LENGTH", "0")

	_, err := Load()
	require.Error(t, err)
}

func TestDSN_DatabaseURLOverrides(t *testing.T) {
	cfg := &Config{DatabaseURL: "postgres://u:p@h:1/d"}
	assert.Equal(t, "postgres://u:p@h:1/d", cfg.DSN())
}
