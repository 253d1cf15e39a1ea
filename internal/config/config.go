// Package config loads imggen configuration from flags, the environment, and
// an optional .env file.
package config

import (
	"errors"
	"flag"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Storage backends for prompt records and the tag catalog.
const (
	BackendFiles  = "files"
	BackendBadger = "badger"
)

// Config holds the application configuration.
type Config struct {
	App        AppConfig
	Logger     LoggerConfig
	Storage    StorageConfig
	SD         SDConfig
	Generation GenerationConfig
	Server     ServerConfig
	RateLimit  RateLimitConfig
}

type AppConfig struct {
	Environment string
}

type LoggerConfig struct {
	Level string
}

// StorageConfig describes where prompts, images, and indexes live.
type StorageConfig struct {
	DataPath string
	Backend  string // files or badger
	// WatchPrompts reindexes search when record files change outside the API.
	// Only meaningful for the files backend.
	WatchPrompts bool
}

// SDConfig points at the Stable Diffusion web API.
type SDConfig struct {
	BaseURL string
	Timeout time.Duration
}

type GenerationConfig struct {
	MaxBatch int
}

type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration // generation requests can take minutes
	IdleTimeout  time.Duration
	CORSOrigins  []string
}

type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
}

// PromptsDir is the directory holding one JSON record per prompt.
func (s StorageConfig) PromptsDir() string { return filepath.Join(s.DataPath, "prompts") }

// ImagesDir is the root of the per-prompt image directories.
func (s StorageConfig) ImagesDir() string { return filepath.Join(s.DataPath, "images") }

// Load reads configuration with precedence:
// 1. Command-line flags.
// 2. Environment variables.
// 3. .env file (never overrides variables already set).
// 4. Defaults.
func Load(args []string) (*Config, error) {
	fs := flag.NewFlagSet("imggen", flag.ContinueOnError)

	env := fs.String("env", "", "Environment (development, staging, production)")
	logLevel := fs.String("log-level", "", "Log level (debug, info, warn, error)")
	dataPath := fs.String("data-path", "", "Directory for prompts, images, and indexes")
	backend := fs.String("store-backend", "", "Record backend: files or badger (default: files)")
	watch := fs.String("watch-prompts", "", "Watch prompt files for external edits (default: true)")
	sdURL := fs.String("sd-api-url", "", "Stable Diffusion web API base URL")
	sdTimeout := fs.String("sd-api-timeout", "", "Timeout for a generation call (default: 10m)")
	maxBatch := fs.String("max-batch", "", "Maximum images per generation request (default: 8)")
	port := fs.String("port", "", "Server port (default: 3000)")
	readTimeout := fs.String("read-timeout", "", "HTTP read timeout (default: 15s)")
	writeTimeout := fs.String("write-timeout", "", "HTTP write timeout (default: 15m)")
	idleTimeout := fs.String("idle-timeout", "", "HTTP idle timeout (default: 60s)")
	corsOrigins := fs.String("cors-origins", "", "Comma separated allowed origins (default: *)")
	rps := fs.String("rate-limit-rps", "", "Requests per second per client (default: 20)")
	burst := fs.String("rate-limit-burst", "", "Burst size per client (default: 40)")
	envFile := fs.String("env-file", ".env", "Path to .env file")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	// Missing .env is normal; godotenv.Load leaves existing variables alone.
	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load %s: %w", *envFile, err)
	}

	cfg := &Config{
		App:    AppConfig{Environment: getConfigValue(*env, "ENV", "development")},
		Logger: LoggerConfig{Level: getConfigValue(*logLevel, "LOG_LEVEL", "info")},
		Storage: StorageConfig{
			DataPath:     getConfigValue(*dataPath, "DATA_PATH", ""),
			Backend:      strings.ToLower(getConfigValue(*backend, "STORE_BACKEND", BackendFiles)),
			WatchPrompts: getBoolConfigValue(*watch, "WATCH_PROMPTS", true),
		},
		SD: SDConfig{
			BaseURL: strings.TrimRight(getConfigValue(*sdURL, "SD_API_URL", "http://localhost:7860"), "/"),
		},
		Generation: GenerationConfig{
			MaxBatch: getIntConfigValue(*maxBatch, "GENERATION_MAX_BATCH", 8),
		},
		Server: ServerConfig{
			Port:        getConfigValue(*port, "SERVER_PORT", "3000"),
			CORSOrigins: splitList(getConfigValue(*corsOrigins, "CORS_ALLOWED_ORIGINS", "*")),
		},
		RateLimit: RateLimitConfig{
			Burst: getIntConfigValue(*burst, "RATE_LIMIT_BURST", 40),
		},
	}

	var err error
	if cfg.RateLimit.RequestsPerSecond, err = strconv.ParseFloat(getConfigValue(*rps, "RATE_LIMIT_RPS", "20"), 64); err != nil {
		return nil, fmt.Errorf("invalid rate limit rps: %w", err)
	}

	durations := []struct {
		dst      *time.Duration
		flag     string
		key      string
		fallback string
	}{
		{&cfg.SD.Timeout, *sdTimeout, "SD_API_TIMEOUT", "10m"},
		{&cfg.Server.ReadTimeout, *readTimeout, "SERVER_READ_TIMEOUT", "15s"},
		{&cfg.Server.WriteTimeout, *writeTimeout, "SERVER_WRITE_TIMEOUT", "15m"},
		{&cfg.Server.IdleTimeout, *idleTimeout, "SERVER_IDLE_TIMEOUT", "60s"},
	}
	for _, d := range durations {
		raw := getConfigValue(d.flag, d.key, d.fallback)
		if *d.dst, err = time.ParseDuration(raw); err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", d.key, raw, err)
		}
	}

	if err := cfg.expandDataPath(); err != nil {
		return nil, fmt.Errorf("invalid data path: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks that all config values are present and valid.
func (c *Config) Validate() error {
	switch c.App.Environment {
	case "development", "staging", "production":
	default:
		return fmt.Errorf("invalid environment: %q (must be development, staging, or production)", c.App.Environment)
	}

	switch strings.ToLower(c.Logger.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Storage.DataPath == "" {
		return errors.New("data path cannot be empty after expansion")
	}
	if c.Storage.Backend != BackendFiles && c.Storage.Backend != BackendBadger {
		return fmt.Errorf("invalid store backend: %s (must be files or badger)", c.Storage.Backend)
	}

	u, err := url.Parse(c.SD.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid SD API URL: %q", c.SD.BaseURL)
	}
	if c.SD.Timeout <= 0 {
		return errors.New("SD API timeout must be positive")
	}

	if c.Generation.MaxBatch < 1 {
		return fmt.Errorf("max batch must be at least 1, got %d", c.Generation.MaxBatch)
	}
	if c.RateLimit.RequestsPerSecond <= 0 || c.RateLimit.Burst < 1 {
		return errors.New("rate limit rps and burst must be positive")
	}
	return nil
}

// expandPath expands ~ and makes the path absolute.
// If path is empty, defaultPath is returned unchanged.
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
	expanded, err := expandPath(c.Storage.DataPath, filepath.Join(homeDir, "imggen", "data"))
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

// getBoolConfigValue accepts "true", "1", "yes" (any case) as true.
func getBoolConfigValue(flagValue, envKey string, defaultValue bool) bool {
	s := getConfigValue(flagValue, envKey, "")
	if s == "" {
		return defaultValue
	}
	s = strings.ToLower(s)
	return s == "true" || s == "1" || s == "yes"
}

// getIntConfigValue falls back to the default when the value does not parse.
func getIntConfigValue(flagValue, envKey string, defaultValue int) int {
	s := getConfigValue(flagValue, envKey, "")
	if s == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return defaultValue
	}
	return n
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
