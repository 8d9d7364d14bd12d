package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeJSONConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestParseJSON_FullConfig(t *testing.T) {
	path := writeJSONConfig(t, `{
		"app": {"version": "2.1.0"},
		"storage": {
			"db": {"dsn": "/data/dg.db"},
			"cache": {"path": "/data/dg-cache.json", "max_bytes": 1048576}
		},
		"adapter": {"base_url": "https://api.planory.app", "request_timeout": "25s"},
		"autosave": {"delay": "2s", "retry_delay": "5s", "max_retries": 3, "saved_display_delay": "3s"},
		"workers": {"sync_interval": "1m", "probe_interval": "30s"}
	}`)

	cfg, err := parseJSON(path)
	require.NoError(t, err)

	assert.Equal(t, "2.1.0", cfg.App.Version)
	assert.Equal(t, "/data/dg.db", cfg.Storage.DB.DSN)
	assert.Equal(t, 1048576, cfg.Storage.Cache.MaxBytes)
	assert.Equal(t, 25*time.Second, cfg.Adapter.RequestTimeout)
	assert.Equal(t, 2*time.Second, cfg.Autosave.Delay)
	assert.Equal(t, time.Minute, cfg.Workers.SyncInterval)
}

func TestParseJSON_NumericDuration(t *testing.T) {
	path := writeJSONConfig(t, `{"adapter": {"request_timeout": 15000000000}}`)

	cfg, err := parseJSON(path)
	require.NoError(t, err)
	assert.Equal(t, 15*time.Second, cfg.Adapter.RequestTimeout)
}

func TestParseJSON_MissingFile(t *testing.T) {
	_, err := parseJSON("no-such-file.json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading a json file")
}

func TestParseJSON_MalformedJSON(t *testing.T) {
	path := writeJSONConfig(t, `{"adapter": `)

	_, err := parseJSON(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decoding json configs")
}
