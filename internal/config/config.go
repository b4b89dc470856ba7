// ABOUTME: Configuration loader for the einvoice client and dev server
// ABOUTME: Loads settings from an optional .env file and environment variables with defaults

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DefaultAPIURL is the backend used when nothing else is configured
const DefaultAPIURL = "http://localhost:4000/api"

// DefaultDevServerSecret signs dev-server tokens when no secret is configured
const DefaultDevServerSecret = "einvoice-development-secret"

type Config struct {
	// Client
	APIURL      string
	ConfigDir   string
	HTTPTimeout time.Duration

	// Dev server
	DevServerPort        string
	DevServerSecret      string
	DevServerRateLimit   int      // auth requests per second per client
	DevServerCORSOrigins []string // allowed CORS origins (empty = block all cross-origin)

	// Logging
	LogLevel  string
	LogFormat string
}

// Load reads envFiles (".env" when none are given) and then the environment.
// Missing env files are ignored; variables already set in the environment win.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("loading %s: %w", f, err)
		}
	}

	cfg := &Config{
		APIURL:      ensureScheme(getEnv("EINVOICE_API_URL", DefaultAPIURL)),
		ConfigDir:   getEnv("EINVOICE_CONFIG_DIR", defaultConfigDir()),
		HTTPTimeout: time.Duration(getEnvInt("EINVOICE_HTTP_TIMEOUT", 30)) * time.Second,

		DevServerPort:        getEnv("EINVOICE_DEVSERVER_PORT", "4000"),
		DevServerSecret:      getEnv("EINVOICE_DEVSERVER_SECRET", DefaultDevServerSecret),
		DevServerRateLimit:   getEnvInt("EINVOICE_DEVSERVER_RATE_LIMIT", 5),
		DevServerCORSOrigins: getEnvStringList("EINVOICE_DEVSERVER_CORS_ORIGINS"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),
	}

	if cfg.HTTPTimeout <= 0 {
		return nil, fmt.Errorf("EINVOICE_HTTP_TIMEOUT must be positive, got %s", os.Getenv("EINVOICE_HTTP_TIMEOUT"))
	}
	if port, err := strconv.Atoi(cfg.DevServerPort); err != nil || port < 1 || port > 65535 {
		return nil, fmt.Errorf("EINVOICE_DEVSERVER_PORT must be a port number, got %q", cfg.DevServerPort)
	}
	if cfg.DevServerRateLimit < 1 || cfg.DevServerRateLimit > 10000 {
		return nil, fmt.Errorf("EINVOICE_DEVSERVER_RATE_LIMIT must be between 1 and 10000, got %d", cfg.DevServerRateLimit)
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvStringList(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

// ensureScheme adds https:// prefix if the URL has no scheme
func ensureScheme(url string) string {
	if url == "" {
		return url
	}
	if !strings.Contains(url, "://") {
		return "https://" + url
	}
	return url
}

// defaultConfigDir follows the XDG spec
func defaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "einvoice")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "einvoice")
}
