package config

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadSQLiteDefaults(t *testing.T) {
	t.Setenv("STORE_DRIVER", "sqlite")

	cfg, err := Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "trivia-api", cfg.Name)
	assert.Equal(t, "trivia.db", cfg.Store.SQLitePath)
	assert.True(t, cfg.Store.SQLiteSeed)
	assert.Empty(t, cfg.Redis.Addr)
	assert.Equal(t, 5*time.Minute, cfg.Cache.CategoryTTL)
	assert.Equal(t, 8, cfg.Import.QueueSize)
	assert.Equal(t, 50, cfg.Import.MaxAmount)
	assert.Equal(t, []string{"http://localhost:3000", "http://127.0.0.1:3000"}, cfg.CORS.AllowedOrigins)
}

func TestLoadPostgresRequiresCredentials(t *testing.T) {
	t.Setenv("STORE_DRIVER", "postgres")
	t.Setenv("PG_USER", "")
	t.Setenv("PG_PASSWORD", "")
	t.Setenv("PG_DATABASE", "")

	_, err := Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PG_USER is required")
	assert.Contains(t, err.Error(), "PG_DATABASE is required")
}

func TestLoadPostgres(t *testing.T) {
	t.Setenv("STORE_DRIVER", "postgres")
	t.Setenv("PG_HOST", "db")
	t.Setenv("PG_USER", "trivia")
	t.Setenv("PG_PASSWORD", "secret")
	t.Setenv("PG_DATABASE", "trivia")
	t.Setenv("IMPORT_QUEUE_SIZE", "3")

	cfg, err := Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Import.QueueSize)
	assert.Equal(t, "host=db port=5432 user=trivia password=secret dbname=trivia sslmode=disable", cfg.Postgres.DSN())
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	t.Setenv("STORE_DRIVER", "mongo")

	_, err := Load(context.Background())
	assert.ErrorContains(t, err, `unknown STORE_DRIVER "mongo"`)
}

func TestLoadRejectsBadImportSettings(t *testing.T) {
	t.Setenv("STORE_DRIVER", "sqlite")
	t.Setenv("IMPORT_MAX_AMOUNT", "0")

	_, err := Load(context.Background())
	assert.ErrorContains(t, err, "IMPORT_MAX_AMOUNT")
}
