package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigAppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	body := "jwt:\n  secret: test-secret\nsync:\n  max_concurrent_sessions: 2\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "billsync.yaml"), []byte(body), 0o644))
	t.Setenv("CONFIG_PATH", dir)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 2, cfg.Sync.MaxConcurrentSessions)
	assert.Equal(t, "RON", cfg.Sync.DefaultCurrency)
	assert.Equal(t, 3*time.Minute, cfg.Sync.Timeouts.SupplierCeiling)
	assert.Equal(t, 8080, cfg.Server.HTTP.Port)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestValidate(t *testing.T) {
	cfg := &Config{Sync: SyncConfig{MaxConcurrentSessions: 0, SupplierDir: "x"}, JWT: JWTConfig{Secret: "s"}}
	assert.Error(t, cfg.Validate())

	cfg.Sync.MaxConcurrentSessions = 1
	assert.NoError(t, cfg.Validate())

	cfg.JWT.Secret = ""
	assert.Error(t, cfg.Validate())
}

func TestDSN(t *testing.T) {
	db := DatabaseConfig{Host: "localhost", Port: 5432, User: "u", Password: "p", Name: "bills", SSLMode: "disable"}
	assert.Equal(t, "host=localhost port=5432 user=u password=p dbname=bills sslmode=disable", db.DSN())
}
