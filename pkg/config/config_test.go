package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadReadsFileAndEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	body := "server:\n  port: 8080\nsync:\n  default_currency: RON\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "billsync.yaml"), []byte(body), 0o644))

	t.Setenv("CONFIG_PATH", dir)
	t.Setenv("BILLSYNC_SERVER_PORT", "9090")

	cfg, err := Load("billsync", map[string]interface{}{"log.level": "info"})
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.GetInt("server.port"))
	assert.Equal(t, "RON", cfg.GetString("sync.default_currency"))
	assert.Equal(t, "info", cfg.GetString("log.level"))

	var out struct {
		Sync struct {
			DefaultCurrency string `mapstructure:"default_currency"`
		} `mapstructure:"sync"`
	}
	require.NoError(t, cfg.Unmarshal(&out))
	assert.Equal(t, "RON", out.Sync.DefaultCurrency)
}

func TestLoadMissingFile(t *testing.T) {
	t.Setenv("CONFIG_PATH", t.TempDir())
	_, err := Load("does-not-exist", nil)
	assert.Error(t, err)
}
