// Package config contains everything related to configuration
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application configuration.
type Config struct {
	BaseURL              string
	AccessToken          string
	UserID               string
	Role                 Role
	DatabasePath         string
	PageSize             int
	RequestTimeout       time.Duration
	QuotaPerUnit         float64
	DisplayInCurrency    bool
	DesktopNotifications bool
	LogFile              string
	LogLevel             string
	// EnvFile is the .env file values were read from, empty when none was found.
	EnvFile string
}

// source resolves a variable from the process environment first, then from the .env file.
type source struct {
	file map[string]string
}

func (s source) get(key string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return s.file[key]
}

// Load reads configuration from the first .env file found and environment variables.
func Load() (*Config, error) {
	return LoadFrom(findEnvFile())
}

// LoadFrom reads configuration from a specific .env file. An empty path reads the
// environment only. Environment variables always take precedence over the file.
func LoadFrom(envFile string) (*Config, error) {
	src := source{file: map[string]string{}}
	if envFile != "" {
		values, err := godotenv.Read(envFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", envFile, err)
		}
		src.file = values
	}

	cfg := &Config{
		BaseURL:              strings.TrimRight(strings.TrimSpace(src.get(envBaseURL)), "/"),
		AccessToken:          strings.TrimSpace(src.get(envAccessToken)),
		UserID:               strings.TrimSpace(src.get(envUserID)),
		Role:                 ParseRole(src.get(envRole)),
		DatabasePath:         getString(src, envDatabasePath, getDefaultDatabasePath()),
		PageSize:             getInt(src, envPageSize, defaultPageSize),
		RequestTimeout:       getDuration(src, envRequestTimeout, defaultRequestTimeout),
		QuotaPerUnit:         getFloat(src, envQuotaPerUnit, defaultQuotaPerUnit),
		DisplayInCurrency:    getBool(src, envDisplayInCurrency, true),
		DesktopNotifications: getBool(src, envDesktopNotifications, false),
		LogFile:              getString(src, envLogFile, getDefaultLogPath()),
		LogLevel:             getString(src, envLogLevel, defaultLogLevel),
		EnvFile:              envFile,
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if err := ensureDir(filepath.Dir(cfg.DatabasePath)); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks required values and normalizes out-of-range ones.
func (c *Config) Validate() error {
	if c.BaseURL == "" || c.AccessToken == "" {
		return fmt.Errorf("%s and %s are required (set via env or .env file)", envBaseURL, envAccessToken)
	}
	if !strings.HasPrefix(c.BaseURL, "http://") && !strings.HasPrefix(c.BaseURL, "https://") {
		return fmt.Errorf("%s must start with http:// or https://, got %q", envBaseURL, c.BaseURL)
	}
	if c.PageSize < 1 || c.PageSize > 100 {
		c.PageSize = defaultPageSize
	}
	if c.QuotaPerUnit <= 0 {
		c.QuotaPerUnit = defaultQuotaPerUnit
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = defaultRequestTimeout
	}
	return nil
}

// Dir returns the per-user configuration directory of the application.
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", appDirName)
}

// findEnvFile returns the first existing .env path, or "".
func findEnvFile() string {
	for _, path := range getEnvPaths() {
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path
		}
	}
	return ""
}

// getEnvPaths returns a list of paths to check for .env files.
func getEnvPaths() []string {
	var paths []string

	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(cwd, ".env"))
	}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths,
			filepath.Join(home, ".config", appDirName, ".env"),
			filepath.Join(home, ".usage-dashboard", ".env"),
		)
	}

	// Parent directories (useful for development)
	if cwd, err := os.Getwd(); err == nil {
		parent := filepath.Dir(cwd)
		paths = append(paths, filepath.Join(parent, ".env"))
		grandparent := filepath.Dir(parent)
		paths = append(paths, filepath.Join(grandparent, ".env"))
	}

	return paths
}

func getDefaultDatabasePath() string {
	return filepath.Join(Dir(), "usage.db")
}

func getDefaultLogPath() string {
	return filepath.Join(Dir(), "udt.log")
}

func getString(src source, key, defaultValue string) string {
	if value := strings.TrimSpace(src.get(key)); value != "" {
		return value
	}
	return defaultValue
}

func getInt(src source, key string, defaultValue int) int {
	if n, err := strconv.Atoi(strings.TrimSpace(src.get(key))); err == nil {
		return n
	}
	return defaultValue
}

func getFloat(src source, key string, defaultValue float64) float64 {
	if f, err := strconv.ParseFloat(strings.TrimSpace(src.get(key)), 64); err == nil {
		return f
	}
	return defaultValue
}

func getBool(src source, key string, defaultValue bool) bool {
	if b, err := strconv.ParseBool(strings.TrimSpace(src.get(key))); err == nil {
		return b
	}
	return defaultValue
}

// getDuration accepts values like "30s", "1m", "500ms", or plain seconds.
func getDuration(src source, key string, defaultValue time.Duration) time.Duration {
	if value := strings.TrimSpace(src.get(key)); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		if secs, err := strconv.Atoi(value); err == nil {
			return time.Duration(secs) * time.Second
		}
	}
	return defaultValue
}

// ensureDir creates a directory and all parent directories if they don't exist.
func ensureDir(path string) error {
	if path == "" || path == "." {
		return nil
	}
	return os.MkdirAll(path, 0o750)
}
