package common

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultConfig_IsValid(t *testing.T) {
	cfg := NewDefaultConfig()

	require.NoError(t, cfg.Validate())
	assert.Equal(t, 20, cfg.Pipeline.BulletinWorkers)
	assert.Equal(t, 5, cfg.Pipeline.PredictionWorkers)
	assert.Equal(t, 3, cfg.Retry.MaxRetries)
	assert.Equal(t, 2, cfg.Retry.BackoffFactor)
	assert.Equal(t, 5000, cfg.EODHD.Bars)
	assert.Equal(t, ".BK", cfg.EODHD.ExchangeSuffix)
	assert.Equal(t, 60*time.Second, cfg.Bulletin.GetTimeout())
	assert.Equal(t, 100*time.Millisecond, cfg.EODHD.GetRateLimit())
	assert.Zero(t, cfg.Pipeline.GetRunTimeout())
}

func TestLoadFromFiles_MergesInOrder(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "base.toml")
	override := filepath.Join(dir, "override.toml")

	require.NoError(t, os.WriteFile(base, []byte(`
environment = "production"

[storage.badger]
path = "/var/lib/investech"

[bulletin]
timeout = "90s"

[pipeline]
bulletin_workers = 8
prediction_workers = 2
`), 0644))
	require.NoError(t, os.WriteFile(override, []byte(`
[pipeline]
prediction_workers = 4
symbols = ["PTT", "AOT"]
`), 0644))

	cfg, err := LoadFromFiles(base, "", override)
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.Environment)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "/var/lib/investech", cfg.Storage.Badger.Path)
	assert.Equal(t, 8, cfg.Pipeline.BulletinWorkers)
	assert.Equal(t, 4, cfg.Pipeline.PredictionWorkers)
	assert.Equal(t, []string{"PTT", "AOT"}, cfg.Pipeline.Symbols)
	assert.Equal(t, 90*time.Second, cfg.Bulletin.GetTimeout())
	// untouched sections keep defaults
	assert.Equal(t, 3, cfg.Retry.MaxRetries)
}

func TestLoadFromFiles_EnvOverrides(t *testing.T) {
	t.Setenv("INVESTECH_BADGER_PATH", "/tmp/investech-env")
	t.Setenv("INVESTECH_PREDICTION_WORKERS", "9")
	t.Setenv("INVESTECH_SYMBOLS", "ptt, aot")
	t.Setenv("INVESTECH_RUN_TIMEOUT", "15m")

	cfg, err := LoadFromFiles()
	require.NoError(t, err)

	assert.Equal(t, "/tmp/investech-env", cfg.Storage.Badger.Path)
	assert.Equal(t, 9, cfg.Pipeline.PredictionWorkers)
	assert.Equal(t, []string{"AOT", "PTT"}, cfg.Pipeline.Symbols)
	assert.Equal(t, 15*time.Minute, cfg.Pipeline.GetRunTimeout())
}

func TestLoadFromFiles_MissingFile(t *testing.T) {
	_, err := LoadFromFiles(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"zero bulletin workers", func(c *Config) { c.Pipeline.BulletinWorkers = 0 }, true},
		{"missing suffix dot", func(c *Config) { c.EODHD.ExchangeSuffix = "BK" }, true},
		{"bad level", func(c *Config) { c.Logging.Level = "verbose" }, true},
		{"bad schedule", func(c *Config) { c.Pipeline.Schedule = "every day" }, true},
		{"empty schedule", func(c *Config) { c.Pipeline.Schedule = "" }, false},
		{"bad duration", func(c *Config) { c.Bulletin.Timeout = "soon" }, true},
		{"negative duration", func(c *Config) { c.Pipeline.RunTimeout = "-1m" }, true},
		{"missing badger path", func(c *Config) { c.Storage.Badger.Path = "" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestApplyFlagOverrides(t *testing.T) {
	cfg := NewDefaultConfig()
	ApplyFlagOverrides(cfg, "/data/alt", []string{"scb", "kbank"})

	assert.Equal(t, "/data/alt", cfg.Storage.Badger.Path)
	assert.Equal(t, []string{"KBANK", "SCB"}, cfg.Pipeline.Symbols)
}
