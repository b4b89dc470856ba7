// ABOUTME: Tests for environment and .env configuration loading
// ABOUTME: Covers defaults, overrides, XDG paths and validation errors

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// withCleanEnv clears the environment and restores it when the test ends
func withCleanEnv(t *testing.T, extra map[string]string) {
	t.Helper()
	saved := os.Environ()
	os.Clearenv()
	for k, v := range extra {
		os.Setenv(k, v)
	}
	t.Cleanup(func() {
		os.Clearenv()
		for _, kv := range saved {
			for i := 0; i < len(kv); i++ {
				if kv[i] == '=' {
					os.Setenv(kv[:i], kv[i+1:])
					break
				}
			}
		}
	})
}

func noEnvFile(t *testing.T) string {
	return filepath.Join(t.TempDir(), "missing.env")
}

func TestLoadConfig_Defaults(t *testing.T) {
	withCleanEnv(t, map[string]string{"HOME": "/home/tester"})

	cfg, err := Load(noEnvFile(t))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if cfg.APIURL != DefaultAPIURL {
		t.Errorf("Expected APIURL %s, got %s", DefaultAPIURL, cfg.APIURL)
	}
	if cfg.ConfigDir != filepath.Join("/home/tester", ".config", "einvoice") {
		t.Errorf("Unexpected ConfigDir %s", cfg.ConfigDir)
	}
	if cfg.HTTPTimeout != 30*time.Second {
		t.Errorf("Expected 30s timeout, got %v", cfg.HTTPTimeout)
	}
	if cfg.DevServerPort != "4000" {
		t.Errorf("Expected default port 4000, got %s", cfg.DevServerPort)
	}
	if cfg.DevServerSecret != DefaultDevServerSecret {
		t.Errorf("Expected default secret, got %s", cfg.DevServerSecret)
	}
	if cfg.DevServerRateLimit != 5 {
		t.Errorf("Expected rate limit 5, got %d", cfg.DevServerRateLimit)
	}
	if cfg.DevServerCORSOrigins != nil {
		t.Errorf("Expected no CORS origins, got %v", cfg.DevServerCORSOrigins)
	}
	if cfg.LogLevel != "info" || cfg.LogFormat != "text" {
		t.Errorf("Unexpected log settings %s/%s", cfg.LogLevel, cfg.LogFormat)
	}
}

func TestLoadConfig_FromEnvironment(t *testing.T) {
	withCleanEnv(t, map[string]string{
		"EINVOICE_API_URL":                "api.example.com/v1",
		"EINVOICE_CONFIG_DIR":             "/tmp/einvoice",
		"EINVOICE_HTTP_TIMEOUT":           "5",
		"EINVOICE_DEVSERVER_PORT":         "9090",
		"EINVOICE_DEVSERVER_RATE_LIMIT":   "50",
		"EINVOICE_DEVSERVER_CORS_ORIGINS": "http://a.test, ,http://b.test",
		"XDG_CONFIG_HOME":                 "/ignored",
	})

	cfg, err := Load(noEnvFile(t))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if cfg.APIURL != "https://api.example.com/v1" {
		t.Errorf("Expected scheme to be added, got %s", cfg.APIURL)
	}
	if cfg.ConfigDir != "/tmp/einvoice" {
		t.Errorf("Expected explicit config dir, got %s", cfg.ConfigDir)
	}
	if cfg.HTTPTimeout != 5*time.Second {
		t.Errorf("Expected 5s timeout, got %v", cfg.HTTPTimeout)
	}
	if cfg.DevServerPort != "9090" || cfg.DevServerRateLimit != 50 {
		t.Errorf("Unexpected dev server settings %s/%d", cfg.DevServerPort, cfg.DevServerRateLimit)
	}
	if len(cfg.DevServerCORSOrigins) != 2 || cfg.DevServerCORSOrigins[1] != "http://b.test" {
		t.Errorf("Unexpected CORS origins %v", cfg.DevServerCORSOrigins)
	}
}

func TestLoadConfig_XDGConfigHome(t *testing.T) {
	withCleanEnv(t, map[string]string{"XDG_CONFIG_HOME": "/xdg"})

	cfg, err := Load(noEnvFile(t))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if cfg.ConfigDir != filepath.Join("/xdg", "einvoice") {
		t.Errorf("Expected XDG config dir, got %s", cfg.ConfigDir)
	}
}

func TestLoadConfig_EnvFile(t *testing.T) {
	withCleanEnv(t, map[string]string{"EINVOICE_DEVSERVER_PORT": "7000"})

	envFile := filepath.Join(t.TempDir(), ".env")
	content := "EINVOICE_API_URL=http://dotenv.test/api\nEINVOICE_DEVSERVER_PORT=1234\n"
	if err := os.WriteFile(envFile, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(envFile)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if cfg.APIURL != "http://dotenv.test/api" {
		t.Errorf("Expected APIURL from .env, got %s", cfg.APIURL)
	}
	if cfg.DevServerPort != "7000" {
		t.Errorf("Expected environment to win over .env, got %s", cfg.DevServerPort)
	}
}

func TestLoadConfig_InvalidValues(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"zero timeout", map[string]string{"EINVOICE_HTTP_TIMEOUT": "0"}},
		{"bad port", map[string]string{"EINVOICE_DEVSERVER_PORT": "http"}},
		{"port out of range", map[string]string{"EINVOICE_DEVSERVER_PORT": "70000"}},
		{"rate limit too low", map[string]string{"EINVOICE_DEVSERVER_RATE_LIMIT": "0"}},
		{"rate limit too high", map[string]string{"EINVOICE_DEVSERVER_RATE_LIMIT": "10001"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			withCleanEnv(t, tt.env)
			if _, err := Load(noEnvFile(t)); err == nil {
				t.Error("Expected error, got nil")
			}
		})
	}
}

func TestEnsureScheme(t *testing.T) {
	tests := map[string]string{
		"":                     "",
		"localhost:4000":       "https://localhost:4000",
		"http://localhost:400": "http://localhost:400",
	}
	for in, want := range tests {
		if got := ensureScheme(in); got != want {
			t.Errorf("ensureScheme(%q) = %q, want %q", in, got, want)
		}
	}
}
