package settings

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	raw := `{
		"database_url": "postgres://localhost/sutra",
		"influx_addr": "http://localhost:8086",
		"result_dir": "/tmp/results",
		"log_level": "warn"
	}`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "postgres://localhost/sutra", cfg.DatabaseURL)
	assert.Equal(t, "http://localhost:8086", cfg.InfluxAddr)
	assert.Equal(t, "/tmp/results", cfg.ResultDir)

	_, err = Load(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{not json"), 0o644))
	_, err = Load(bad)
	require.Error(t, err)
}

func TestFromEnv(t *testing.T) {
	t.Setenv("SUTRA_DATABASE_URL", "postgres://db.internal/sutra")
	t.Setenv("SUTRA_INFLUX_PASSWORD", "hunter2")

	cfg := Config{DatabaseURL: "postgres://localhost/sutra", InfluxUser: "writer"}
	cfg.FromEnv()

	assert.Equal(t, "postgres://db.internal/sutra", cfg.DatabaseURL, "env wins over file values")
	assert.Equal(t, "hunter2", cfg.InfluxPassword)
	assert.Equal(t, "writer", cfg.InfluxUser, "unset env leaves the field alone")
}
