package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		App:        AppConfig{Environment: "development"},
		Logger:     LoggerConfig{Level: "info"},
		Data:       DataConfig{BasePath: "/some/path"},
		Storage:    StorageConfig{Driver: DriverBadger},
		Manifest:   ManifestConfig{Source: "/some/path/all_wanted_objects.json"},
		Feed:       FeedConfig{BatchSize: 4, AttemptFactor: 10},
		Collection: CollectionConfig{LookupTimeout: 10 * time.Second, RPS: 40, Burst: 10},
	}
}

func TestValidate_ValidConfig(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func TestValidate_AllEnvironments(t *testing.T) {
	tests := []struct {
		env   string
		valid bool
	}{
		{"development", true},
		{"staging", true},
		{"production", true},
		{"test", false},
		{"", false},
		{"DEVELOPMENT", false}, // case sensitive
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			cfg := validConfig()
			cfg.App.Environment = tt.env

			err := cfg.Validate()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestValidate_AllLogLevels(t *testing.T) {
	tests := []struct {
		level string
		valid bool
	}{
		{"debug", true},
		{"info", true},
		{"warn", true},
		{"error", true},
		{"DEBUG", true},
		{"trace", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			cfg := validConfig()
			cfg.Logger.Level = tt.level

			err := cfg.Validate()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestValidate_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty data path", func(c *Config) { c.Data.BasePath = "" }},
		{"unknown driver", func(c *Config) { c.Storage.Driver = "postgres" }},
		{"empty manifest", func(c *Config) { c.Manifest.Source = "" }},
		{"zero batch size", func(c *Config) { c.Feed.BatchSize = 0 }},
		{"zero attempt factor", func(c *Config) { c.Feed.AttemptFactor = 0 }},
		{"zero lookup timeout", func(c *Config) { c.Collection.LookupTimeout = 0 }},
		{"zero rps", func(c *Config) { c.Collection.RPS = 0 }},
		{"negative rate limit", func(c *Config) { c.Server.RateLimit = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()

	cfg, err := Load([]string{"-data-path", dir, "-env-file", filepath.Join(dir, "missing.env")})
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.App.Environment)
	assert.Equal(t, dir, cfg.Data.BasePath)
	assert.Equal(t, DriverBadger, cfg.Storage.Driver)
	assert.Equal(t, filepath.Join(dir, DefaultManifestFile), cfg.Manifest.Source)
	assert.False(t, cfg.IsRemoteManifest())
	assert.Equal(t, 4, cfg.Feed.BatchSize)
	assert.Equal(t, 10, cfg.Feed.AttemptFactor)
	assert.Equal(t, 10*time.Second, cfg.Collection.LookupTimeout)
	assert.Equal(t, "https://collectionapi.metmuseum.org/public/collection/v1", cfg.Collection.BaseURL)
	assert.Equal(t, []string{"*"}, cfg.Server.CORSOrigins)
	assert.InDelta(t, 20.0, cfg.Server.RateLimit, 1e-9)
	assert.Equal(t, 40, cfg.Server.RateBurst)
}

func TestLoad_FlagOverridesEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("STORAGE_DRIVER", "sqlite")
	t.Setenv("BATCH_SIZE", "8")

	cfg, err := Load([]string{"-data-path", dir, "-batch-size", "6", "-env-file", filepath.Join(dir, "missing.env")})
	require.NoError(t, err)

	assert.Equal(t, DriverSQLite, cfg.Storage.Driver, "env applies when no flag is set")
	assert.Equal(t, 6, cfg.Feed.BatchSize, "flag wins over env")
}

func TestLoad_RemoteManifest(t *testing.T) {
	dir := t.TempDir()

	cfg, err := Load([]string{
		"-data-path", dir,
		"-manifest", "https://example.org/all_wanted_objects.json",
		"-env-file", filepath.Join(dir, "missing.env"),
	})
	require.NoError(t, err)

	assert.True(t, cfg.IsRemoteManifest())
	assert.Equal(t, "https://example.org/all_wanted_objects.json", cfg.Manifest.Source)
}

func TestLoad_InvalidDuration(t *testing.T) {
	dir := t.TempDir()

	_, err := Load([]string{"-data-path", dir, "-lookup-timeout", "soon", "-env-file", filepath.Join(dir, "missing.env")})
	assert.Error(t, err)
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	content := "# comment\nARTDISCOVER_TEST_KEY=\"quoted value\"\n\nARTDISCOVER_TEST_KEEP=file\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	t.Setenv("ARTDISCOVER_TEST_KEEP", "env")
	t.Setenv("ARTDISCOVER_TEST_KEY", "")

	require.NoError(t, loadEnvFile(path))
	assert.Equal(t, "quoted value", os.Getenv("ARTDISCOVER_TEST_KEY"))
	assert.Equal(t, "env", os.Getenv("ARTDISCOVER_TEST_KEEP"), "real env wins over the file")
}

func TestLoadEnvFile_InvalidLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("NOT_A_PAIR\n"), 0o600))

	assert.Error(t, loadEnvFile(path))
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"http://a", "http://b"}, splitList(" http://a , ,http://b"))
	assert.Nil(t, splitList(""))
}
