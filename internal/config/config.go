// Package config provides application configuration management with support for environment variables, command-line flags, and .env files.
package config

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Storage drivers.
const (
	DriverBadger = "badger"
	DriverSQLite = "sqlite"
)

// DefaultManifestFile is the manifest file name looked up in the data directory
// when no explicit source is configured.
const DefaultManifestFile = "all_wanted_objects.json"

// Config holds the application configuration.
type Config struct {
	App         AppConfig
	Logger      LoggerConfig
	Data        DataConfig
	Storage     StorageConfig
	Server      ServerConfig
	Collection  CollectionConfig
	Manifest    ManifestConfig
	Feed        FeedConfig
	Placeholder PlaceholderConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// DataConfig holds the local data directory. Everything persisted lives below it.
type DataConfig struct {
	BasePath string
}

// StorageConfig selects the durable key/value backend.
type StorageConfig struct {
	Driver string // badger (default) or sqlite
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	Port         string        // Server port (default: 8080)
	ReadTimeout  time.Duration // HTTP read timeout (default: 15s)
	WriteTimeout time.Duration // HTTP write timeout (default: 15s)
	IdleTimeout  time.Duration // HTTP idle timeout (default: 60s)
	CORSOrigins  []string      // Allowed browser origins (default: *)
	RateLimit    float64       // Inbound requests per second per client IP, 0 disables (default: 20)
	RateBurst    int           // Inbound burst per client IP (default: 40)
}

// CollectionConfig configures the collection API client.
type CollectionConfig struct {
	BaseURL       string
	LookupTimeout time.Duration // Per-object request timeout (default: 10s)
	RPS           float64       // Outbound requests per second (default: 40)
	Burst         int           // Outbound burst (default: 10)
	CacheTTL      time.Duration // Lookup memo lifetime (default: 10m)
}

// ManifestConfig locates the object manifest.
type ManifestConfig struct {
	// Source is an http(s) URL or a local file path.
	Source string
	// Watch reloads the universe when a local manifest file changes.
	Watch bool
}

// FeedConfig holds the feed sampling parameters.
type FeedConfig struct {
	BatchSize          int           // Artworks per batch (default: 4)
	AttemptFactor      int           // Attempt budget multiplier over BatchSize (default: 10)
	SessionIdleTimeout time.Duration // Idle feed sessions are dropped after this (default: 30m)
}

// PlaceholderConfig controls BlurHash placeholders for feed items.
type PlaceholderConfig struct {
	Enabled bool
}

// LoadConfig loads configuration from the process arguments.
func LoadConfig() (*Config, error) {
	return Load(os.Args[1:])
}

// Load loads configuration from multiple sources with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
func Load(args []string) (*Config, error) {
	fs := flag.NewFlagSet("artdiscover", flag.ContinueOnError)

	env := fs.String("env", "", "Environment (development, staging, production)")
	logLevel := fs.String("log-level", "", "Log level (debug, info, warn, error)")
	dataPath := fs.String("data-path", "", "Base path for local data")
	storageDriver := fs.String("storage", "", "Storage driver (badger, sqlite)")

	serverPort := fs.String("port", "", "Server port (default: 8080)")
	readTimeout := fs.String("read-timeout", "", "HTTP read timeout (default: 15s)")
	writeTimeout := fs.String("write-timeout", "", "HTTP write timeout (default: 15s)")
	idleTimeout := fs.String("idle-timeout", "", "HTTP idle timeout (default: 60s)")
	corsOrigins := fs.String("cors-origins", "", "Comma separated allowed origins (default: *)")
	rateLimit := fs.String("rate-limit", "", "Requests per second per client IP, 0 disables (default: 20)")
	rateBurst := fs.String("rate-burst", "", "Request burst per client IP (default: 40)")

	collectionURL := fs.String("collection-url", "", "Collection API base URL")
	lookupTimeout := fs.String("lookup-timeout", "", "Per-object lookup timeout (default: 10s)")
	lookupRPS := fs.String("lookup-rps", "", "Outbound lookups per second (default: 40)")
	lookupBurst := fs.String("lookup-burst", "", "Outbound lookup burst (default: 10)")
	lookupCacheTTL := fs.String("lookup-cache-ttl", "", "Lookup cache lifetime (default: 10m)")

	manifestSource := fs.String("manifest", "", "Manifest URL or file path")
	watchManifest := fs.String("watch-manifest", "", "Reload when the manifest file changes (default: true)")

	batchSize := fs.String("batch-size", "", "Artworks per feed batch (default: 4)")
	attemptFactor := fs.String("attempt-factor", "", "Attempt budget multiplier (default: 10)")
	sessionIdle := fs.String("session-idle-timeout", "", "Idle session lifetime (default: 30m)")

	placeholders := fs.String("placeholders", "", "Compute BlurHash placeholders (default: false)")

	envFile := fs.String("env-file", ".env", "Path to .env file")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	// Load .env file if it exists (silently ignore if not found).
	_ = loadEnvFile(*envFile)

	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(*env, "ENV", "development"),
		},
		Logger: LoggerConfig{
			Level: getConfigValue(*logLevel, "LOG_LEVEL", "info"),
		},
		Data: DataConfig{
			BasePath: getConfigValue(*dataPath, "DATA_PATH", ""),
		},
		Storage: StorageConfig{
			Driver: strings.ToLower(getConfigValue(*storageDriver, "STORAGE_DRIVER", DriverBadger)),
		},
		Server: ServerConfig{
			Port:        getConfigValue(*serverPort, "SERVER_PORT", "8080"),
			CORSOrigins: splitList(getConfigValue(*corsOrigins, "CORS_ORIGINS", "*")),
			RateLimit:   getFloatConfigValue(*rateLimit, "RATE_LIMIT", 20),
			RateBurst:   getIntConfigValue(*rateBurst, "RATE_BURST", 40),
		},
		Collection: CollectionConfig{
			BaseURL: strings.TrimRight(getConfigValue(*collectionURL, "COLLECTION_API_URL",
				"https://collectionapi.metmuseum.org/public/collection/v1"), "/"),
			RPS:   getFloatConfigValue(*lookupRPS, "LOOKUP_RPS", 40),
			Burst: getIntConfigValue(*lookupBurst, "LOOKUP_BURST", 10),
		},
		Manifest: ManifestConfig{
			Source: getConfigValue(*manifestSource, "MANIFEST_SOURCE", ""),
			Watch:  getBoolConfigValue(*watchManifest, "WATCH_MANIFEST", true),
		},
		Feed: FeedConfig{
			BatchSize:     getIntConfigValue(*batchSize, "BATCH_SIZE", 4),
			AttemptFactor: getIntConfigValue(*attemptFactor, "ATTEMPT_FACTOR", 10),
		},
		Placeholder: PlaceholderConfig{
			Enabled: getBoolConfigValue(*placeholders, "PLACEHOLDERS_ENABLED", false),
		},
	}

	durations := []struct {
		dst      *time.Duration
		flag     string
		env      string
		fallback string
	}{
		{&cfg.Server.ReadTimeout, *readTimeout, "SERVER_READ_TIMEOUT", "15s"},
		{&cfg.Server.WriteTimeout, *writeTimeout, "SERVER_WRITE_TIMEOUT", "15s"},
		{&cfg.Server.IdleTimeout, *idleTimeout, "SERVER_IDLE_TIMEOUT", "60s"},
		{&cfg.Collection.LookupTimeout, *lookupTimeout, "LOOKUP_TIMEOUT", "10s"},
		{&cfg.Collection.CacheTTL, *lookupCacheTTL, "LOOKUP_CACHE_TTL", "10m"},
		{&cfg.Feed.SessionIdleTimeout, *sessionIdle, "SESSION_IDLE_TIMEOUT", "30m"},
	}
	for _, d := range durations {
		raw := getConfigValue(d.flag, d.env, d.fallback)
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", strings.ToLower(d.env), raw, err)
		}
		*d.dst = parsed
	}

	if err := cfg.expandDataPath(); err != nil {
		return nil, fmt.Errorf("invalid data path: %w", err)
	}

	if err := cfg.expandManifestSource(); err != nil {
		return nil, fmt.Errorf("invalid manifest source: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	if c.App.Environment == "" {
		return errors.New("ENV is required")
	}

	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
	}
	if !validEnvs[c.App.Environment] {
		return fmt.Errorf("invalid environment: %s (must be development, staging, or production)", c.App.Environment)
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[strings.ToLower(c.Logger.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Data.BasePath == "" {
		return errors.New("data base path cannot be empty after expansion")
	}

	switch c.Storage.Driver {
	case DriverBadger, DriverSQLite:
	default:
		return fmt.Errorf("invalid storage driver: %s (must be badger or sqlite)", c.Storage.Driver)
	}

	if c.Manifest.Source == "" {
		return errors.New("manifest source cannot be empty")
	}

	if c.Feed.BatchSize < 1 {
		return fmt.Errorf("batch size must be at least 1, got %d", c.Feed.BatchSize)
	}
	if c.Feed.AttemptFactor < 1 {
		return fmt.Errorf("attempt factor must be at least 1, got %d", c.Feed.AttemptFactor)
	}

	if c.Server.RateLimit < 0 {
		return errors.New("rate limit cannot be negative")
	}

	if c.Collection.LookupTimeout <= 0 {
		return errors.New("lookup timeout must be positive")
	}
	if c.Collection.RPS <= 0 || c.Collection.Burst < 1 {
		return errors.New("lookup rate limit must be positive")
	}

	return nil
}

// IsRemoteManifest reports whether the manifest is fetched over HTTP.
func (c *Config) IsRemoteManifest() bool {
	return isURL(c.Manifest.Source)
}

// expandPath expands ~ and makes the path absolute.
// If path is empty and defaultPath is provided, uses the default.
func expandPath(path, defaultPath string) (string, error) {
	if path == "" {
		return defaultPath, nil
	}

	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = absPath
	}

	return filepath.Clean(path), nil
}

// expandDataPath defaults the data directory to ~/ArtDiscover/data.
func (c *Config) expandDataPath() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}
	defaultPath := filepath.Join(homeDir, "ArtDiscover", "data")

	expanded, err := expandPath(c.Data.BasePath, defaultPath)
	if err != nil {
		return err
	}
	c.Data.BasePath = expanded
	return nil
}

// expandManifestSource defaults the manifest to {data}/all_wanted_objects.json.
// URLs are left untouched.
func (c *Config) expandManifestSource() error {
	if isURL(c.Manifest.Source) {
		return nil
	}

	expanded, err := expandPath(c.Manifest.Source, filepath.Join(c.Data.BasePath, DefaultManifestFile))
	if err != nil {
		return err
	}
	c.Manifest.Source = expanded
	return nil
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// splitList splits a comma separated value, dropping blanks.
func splitList(s string) []string {
	var out []string
	for part := range strings.SplitSeq(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// getConfigValue returns the first non-empty value from flag, env var, or default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	if flagValue != "" {
		return flagValue
	}

	if envValue := os.Getenv(envKey); envValue != "" {
		return envValue
	}

	return defaultValue
}

// getBoolConfigValue returns a bool from flag, env var, or default.
// Accepts: "true", "1", "yes" (case-insensitive) as true; anything else is false.
func getBoolConfigValue(flagValue, envKey string, defaultValue bool) bool {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	strValue = strings.ToLower(strValue)
	return strValue == "true" || strValue == "1" || strValue == "yes"
}

// getIntConfigValue returns an int from flag, env var, or default.
func getIntConfigValue(flagValue, envKey string, defaultValue int) int {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	var result int
	if _, err := fmt.Sscanf(strValue, "%d", &result); err != nil {
		return defaultValue
	}
	return result
}

// getFloatConfigValue returns a float from flag, env var, or default.
func getFloatConfigValue(flagValue, envKey string, defaultValue float64) float64 {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	var result float64
	if _, err := fmt.Sscanf(strValue, "%g", &result); err != nil {
		return defaultValue
	}
	return result
}

// loadEnvFile loads environment variables from a .env file.
// Format: KEY=value (one per line, # for comments).
func loadEnvFile(path string) error {
	file, err := os.Open(path) //#nosec G304 -- Config file path from user input is expected
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return fmt.Errorf("invalid format at line %d: %s", lineNum, line)
		}

		key = strings.TrimSpace(key)
		value = strings.Trim(strings.TrimSpace(value), `"'`)

		// Real environment variables win over the file.
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("failed to set env var %s: %w", key, err)
			}
		}
	}

	return scanner.Err()
}
