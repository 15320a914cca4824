package database

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/BradenHooton/loginguard/internal/config"
	"github.com/BradenHooton/loginguard/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDatabaseConfig() *config.DatabaseConfig {
	return &config.DatabaseConfig{
		Host:              "127.0.0.1",
		Port:              1,
		User:              "loginguard",
		Password:          "secret",
		Name:              "loginguard",
		SSLMode:           "disable",
		MaxConns:          7,
		MinConns:          0,
		MaxConnLifetime:   time.Hour,
		MaxConnIdleTime:   15 * time.Minute,
		HealthCheckPeriod: time.Minute,
	}
}

func TestNewPoolConfig_AppliesPoolSettings(t *testing.T) {
	poolConfig, err := newPoolConfig(testDatabaseConfig())
	require.NoError(t, err)

	assert.Equal(t, int32(7), poolConfig.MaxConns)
	assert.Equal(t, int32(0), poolConfig.MinConns)
	assert.Equal(t, time.Hour, poolConfig.MaxConnLifetime)
	assert.Equal(t, 15*time.Minute, poolConfig.MaxConnIdleTime)
	assert.Equal(t, time.Minute, poolConfig.HealthCheckPeriod)
	assert.Equal(t, "loginguard", poolConfig.ConnConfig.Database)
}

func TestNewConnection_UnreachableStoreIsUnavailable(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))

	db, err := NewConnection(testDatabaseConfig(), logger)

	assert.Nil(t, db)
	assert.ErrorIs(t, err, models.ErrStorageUnavailable)
}
