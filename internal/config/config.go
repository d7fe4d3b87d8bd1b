// Package config loads readtrack configuration from flags, environment variables and .env files.
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

// Storage backends.
const (
	BackendBadger = "badger"
	BackendSQLite = "sqlite"
)

// Config holds the application configuration.
type Config struct {
	App     AppConfig
	Logger  LoggerConfig
	Storage StorageConfig
	Server  ServerConfig
	Kindle  KindleConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
	// Timezone names the location used for calendar-day math (default: Local).
	Timezone string
	Location *time.Location
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// StorageConfig selects and locates the persistence backend.
type StorageConfig struct {
	Backend  string // badger or sqlite (default: badger)
	DataPath string // default: ~/ReadTrack/data
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port               string
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	IdleTimeout        time.Duration
	CORSAllowedOrigins []string
	// RateLimitRPS caps requests per client IP; 0 disables the limiter.
	RateLimitRPS   int
	RateLimitBurst int
}

// KindleConfig holds Kindle sync configuration.
type KindleConfig struct {
	// ProxyURL is the default TLS proxy; a URL saved in settings overrides it.
	ProxyURL          string
	ProxyAPIKey       string
	FetchTimeout      time.Duration // default: 30s
	SyncCooldown      time.Duration // default: 1h
	SnapshotRetention int           // default: 10
	// AutoSyncInterval enables the background sync worker when non-zero.
	AutoSyncInterval time.Duration
}

// LoadConfig loads configuration from multiple sources with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
func LoadConfig() (*Config, error) {
	return load(flag.CommandLine, os.Args[1:])
}

func load(fs *flag.FlagSet, args []string) (*Config, error) {
	env := fs.String("env", "", "Environment (development, staging, production)")
	logLevel := fs.String("log-level", "", "Log level (debug, info, warn, error)")
	timezone := fs.String("timezone", "", "IANA timezone for calendar days (default: Local)")

	backend := fs.String("storage-backend", "", "Storage backend: badger or sqlite (default: badger)")
	dataPath := fs.String("data-path", "", "Directory for the database files")

	serverPort := fs.String("port", "", "Server port (default: 8080)")
	readTimeout := fs.String("read-timeout", "", "HTTP read timeout (default: 15s)")
	writeTimeout := fs.String("write-timeout", "", "HTTP write timeout (default: 45s)")
	idleTimeout := fs.String("idle-timeout", "", "HTTP idle timeout (default: 60s)")
	corsOrigins := fs.String("cors-origins", "", "Comma separated CORS origins (default: *)")
	rateLimit := fs.String("rate-limit", "", "Requests per second per client IP, 0 disables (default: 0)")

	proxyURL := fs.String("kindle-proxy-url", "", "Default Kindle TLS proxy URL")
	fetchTimeout := fs.String("kindle-fetch-timeout", "", "Kindle library fetch timeout (default: 30s)")
	cooldown := fs.String("sync-cooldown", "", "Minimum time between Kindle syncs (default: 1h)")
	retention := fs.String("snapshot-retention", "", "Kindle snapshots to keep (default: 10)")
	autoSync := fs.String("auto-sync-interval", "", "Background Kindle sync interval, 0 disables (default: 0)")

	envFile := fs.String("env-file", ".env", "Path to .env file")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	// Missing .env files are fine.
	_ = loadEnvFile(*envFile)

	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(*env, "ENV", "development"),
			Timezone:    getConfigValue(*timezone, "TIMEZONE", ""),
		},
		Logger: LoggerConfig{
			Level: getConfigValue(*logLevel, "LOG_LEVEL", "info"),
		},
		Storage: StorageConfig{
			Backend:  strings.ToLower(getConfigValue(*backend, "STORAGE_BACKEND", BackendBadger)),
			DataPath: getConfigValue(*dataPath, "DATA_PATH", ""),
		},
		Server: ServerConfig{
			Port:               getConfigValue(*serverPort, "SERVER_PORT", "8080"),
			CORSAllowedOrigins: splitList(getConfigValue(*corsOrigins, "CORS_ALLOWED_ORIGINS", "*")),
			RateLimitRPS:       getIntConfigValue(*rateLimit, "RATE_LIMIT_RPS", 0),
			RateLimitBurst:     getIntConfigValue("", "RATE_LIMIT_BURST", 20),
		},
		Kindle: KindleConfig{
			ProxyURL:          getConfigValue(*proxyURL, "KINDLE_PROXY_URL", ""),
			ProxyAPIKey:       getConfigValue("", "KINDLE_PROXY_API_KEY", ""),
			SnapshotRetention: getIntConfigValue(*retention, "SNAPSHOT_RETENTION", 10),
		},
	}

	durations := []struct {
		target *time.Duration
		flag   string
		envKey string
		def    string
	}{
		{&cfg.Server.ReadTimeout, *readTimeout, "SERVER_READ_TIMEOUT", "15s"},
		{&cfg.Server.WriteTimeout, *writeTimeout, "SERVER_WRITE_TIMEOUT", "45s"},
		{&cfg.Server.IdleTimeout, *idleTimeout, "SERVER_IDLE_TIMEOUT", "60s"},
		{&cfg.Kindle.FetchTimeout, *fetchTimeout, "KINDLE_FETCH_TIMEOUT", "30s"},
		{&cfg.Kindle.SyncCooldown, *cooldown, "SYNC_COOLDOWN", "1h"},
		{&cfg.Kindle.AutoSyncInterval, *autoSync, "AUTO_SYNC_INTERVAL", "0s"},
	}
	for _, d := range durations {
		v, err := getDurationConfigValue(d.flag, d.envKey, d.def)
		if err != nil {
			return nil, err
		}
		*d.target = v
	}

	loc, err := loadLocation(cfg.App.Timezone)
	if err != nil {
		return nil, err
	}
	cfg.App.Location = loc

	if err := cfg.expandDataPath(); err != nil {
		return nil, fmt.Errorf("invalid data path: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	validEnvs := map[string]bool{"development": true, "staging": true, "production": true}
	if !validEnvs[c.App.Environment] {
		return fmt.Errorf("invalid environment: %q (must be development, staging, or production)", c.App.Environment)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logger.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Storage.Backend != BackendBadger && c.Storage.Backend != BackendSQLite {
		return fmt.Errorf("invalid storage backend: %s (must be badger or sqlite)", c.Storage.Backend)
	}
	if c.Storage.DataPath == "" {
		return errors.New("data path cannot be empty after expansion")
	}

	if c.Server.RateLimitRPS < 0 {
		return errors.New("rate limit cannot be negative")
	}

	if c.Kindle.FetchTimeout <= 0 {
		return errors.New("kindle fetch timeout must be positive")
	}
	if c.Kindle.SyncCooldown < 0 {
		return errors.New("sync cooldown cannot be negative")
	}
	if c.Kindle.SnapshotRetention < 1 {
		return errors.New("snapshot retention must be at least 1")
	}
	if c.Kindle.AutoSyncInterval < 0 {
		return errors.New("auto sync interval cannot be negative")
	}

	return nil
}

func loadLocation(name string) (*time.Location, error) {
	if name == "" || name == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", name, err)
	}
	return loc, nil
}

// expandPath expands ~ and makes the path absolute.
// If path is empty, defaultPath is returned as is.
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

func (c *Config) expandDataPath() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}
	expanded, err := expandPath(c.Storage.DataPath, filepath.Join(homeDir, "ReadTrack", "data"))
	if err != nil {
		return err
	}
	c.Storage.DataPath = expanded
	return nil
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

// getDurationConfigValue parses a duration from flag, env var, or default.
func getDurationConfigValue(flagValue, envKey, defaultValue string) (time.Duration, error) {
	strValue := getConfigValue(flagValue, envKey, defaultValue)
	d, err := time.ParseDuration(strValue)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", envKey, strValue, err)
	}
	return d, nil
}

func splitList(s string) []string {
	var out []string
	for part := range strings.SplitSeq(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// loadEnvFile loads environment variables from a .env file.
// Format: KEY=value (one per line, # for comments).
func loadEnvFile(path string) error {
	file, err := os.Open(path) //#nosec G304 -- path comes from the operator
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
