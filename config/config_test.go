package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	unsetenv(t, "DB_HOST", "S3_URL", "UPLOAD_DIR", "BATCH_RETENTION", "HTTP_PORT", "MAX_UPLOAD_MB")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "uploads", cfg.UploadDir)
	assert.Equal(t, "8000", cfg.HTTPPort)
	assert.Equal(t, 24*time.Hour, cfg.BatchRetention)
	assert.False(t, cfg.DatabaseEnabled())
	assert.False(t, cfg.S3Enabled())
	assert.Equal(t, int64(512<<20), cfg.MaxUploadBytes())
}

func TestLoadOverrides(t *testing.T) {
	unsetenv(t, "DB_NAME", "DB_PORT")
	t.Setenv("UPLOAD_DIR", "/srv/batches")
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_USER", "arrange")
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("BATCH_RETENTION", "90m")
	t.Setenv("S3_URL", "https://s3.example.com")
	t.Setenv("S3_BUCKET", "archives")
	t.Setenv("S3_KEY", "k")
	t.Setenv("S3_SECRET", "s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/srv/batches", cfg.UploadDir)
	assert.Equal(t, 90*time.Minute, cfg.BatchRetention)
	assert.True(t, cfg.DatabaseEnabled())
	assert.True(t, cfg.S3Enabled())
	assert.Equal(t, "host=db user=arrange password=secret dbname=arrangeit port=5432 sslmode=disable", cfg.DSN())
}

// unsetenv entfernt Variablen für die Dauer des Tests; t.Setenv stellt sie danach wieder her.
func unsetenv(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}
