package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// clearEnv unsets every variable Load reads so the host environment cannot
// leak into a test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, kv := range os.Environ() {
		name, _, _ := strings.Cut(kv, "=")
		if strings.HasPrefix(name, EnvPrefix) {
			t.Setenv(name, "")
			os.Unsetenv(name)
		}
	}
	for _, names := range fallbackEnv {
		for _, name := range names {
			t.Setenv(name, "")
			os.Unsetenv(name)
		}
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		clearEnv(t)

		cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}

		if cfg.Server.Port != 8080 {
			t.Errorf("port = %v, want 8080", cfg.Server.Port)
		}
		if cfg.Server.RequestTimeout != 60*time.Second {
			t.Errorf("request_timeout = %v, want 60s", cfg.Server.RequestTimeout)
		}
		if cfg.Gemini.Timeout != 30*time.Second {
			t.Errorf("gemini.timeout = %v, want 30s", cfg.Gemini.Timeout)
		}
		if cfg.Images.Timeout != 2500*time.Millisecond {
			t.Errorf("images.timeout = %v, want 2.5s", cfg.Images.Timeout)
		}
		if !cfg.Images.Wikipedia.Enabled {
			t.Error("wikipedia should be enabled by default")
		}
		if cfg.Storage.Driver != "memory" || cfg.Storage.HistoryLimit != 50 {
			t.Errorf("storage = %+v", cfg.Storage)
		}
		if len(cfg.Server.CORSOrigins) != 1 || cfg.Server.CORSOrigins[0] != "*" {
			t.Errorf("cors_origins = %v", cfg.Server.CORSOrigins)
		}
		if cfg.Gemini.APIKey != "" {
			t.Errorf("api_key = %q, want empty", cfg.Gemini.APIKey)
		}
	})

	t.Run("file", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("TEST_GEMINI_KEY", "from-file-var")

		path := writeConfig(t, `
server:
  port: 9100
  cors_origins: ["https://a.example", "https://b.example"]
gemini:
  api_key: ${TEST_GEMINI_KEY}
  timeout: 45s
images:
  wikipedia:
    enabled: false
storage:
  driver: sqlite
  dsn: /tmp/trips.db
`)

		cfg, err := Load(path)
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if cfg.Server.Port != 9100 {
			t.Errorf("port = %v, want 9100", cfg.Server.Port)
		}
		if len(cfg.Server.CORSOrigins) != 2 {
			t.Errorf("cors_origins = %v", cfg.Server.CORSOrigins)
		}
		if cfg.Gemini.APIKey != "from-file-var" {
			t.Errorf("api_key = %q", cfg.Gemini.APIKey)
		}
		if cfg.Gemini.Timeout != 45*time.Second {
			t.Errorf("gemini.timeout = %v", cfg.Gemini.Timeout)
		}
		if cfg.Images.Wikipedia.Enabled {
			t.Error("wikipedia should be disabled")
		}
		if cfg.Storage.Driver != "sqlite" || cfg.Storage.DSN != "/tmp/trips.db" {
			t.Errorf("storage = %+v", cfg.Storage)
		}
	})

	t.Run("env overrides file", func(t *testing.T) {
		clearEnv(t)
		path := writeConfig(t, "server:\n  port: 9100\n")
		t.Setenv("WAYFARER_SERVER__PORT", "9000")
		t.Setenv("WAYFARER_SERVER__CORS_ORIGINS", "https://a.example, https://b.example")
		t.Setenv("WAYFARER_SERVER__RATE_LIMIT__BURST", "3")
		t.Setenv("WAYFARER_SERVER__TRUSTED_PROXIES", "10.0.0.0/8, 192.0.2.1")

		cfg, err := Load(path)
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if cfg.Server.Port != 9000 {
			t.Errorf("port = %v, want 9000", cfg.Server.Port)
		}
		if cfg.Server.RateLimit.Burst != 3 {
			t.Errorf("burst = %v, want 3", cfg.Server.RateLimit.Burst)
		}
		if len(cfg.Server.TrustedProxies) != 2 || cfg.Server.TrustedProxies[1] != "192.0.2.1" {
			t.Errorf("trusted_proxies = %v", cfg.Server.TrustedProxies)
		}
		want := []string{"https://a.example", "https://b.example"}
		if len(cfg.Server.CORSOrigins) != 2 || cfg.Server.CORSOrigins[0] != want[0] || cfg.Server.CORSOrigins[1] != want[1] {
			t.Errorf("cors_origins = %v, want %v", cfg.Server.CORSOrigins, want)
		}
	})

	t.Run("legacy credential variables", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("API_KEY", "legacy-gemini")
		t.Setenv("UNSPLASH_ACCESS_KEY", "legacy-unsplash")
		t.Setenv("PEXELS_API_KEY", "legacy-pexels")

		cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if cfg.Gemini.APIKey != "legacy-gemini" {
			t.Errorf("gemini key = %q", cfg.Gemini.APIKey)
		}
		if cfg.Images.Unsplash.AccessKey != "legacy-unsplash" {
			t.Errorf("unsplash key = %q", cfg.Images.Unsplash.AccessKey)
		}
		if cfg.Images.Pexels.APIKey != "legacy-pexels" {
			t.Errorf("pexels key = %q", cfg.Images.Pexels.APIKey)
		}
	})

	t.Run("prefixed variable wins over legacy", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("API_KEY", "legacy")
		t.Setenv("WAYFARER_GEMINI__API_KEY", "current")

		cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if cfg.Gemini.APIKey != "current" {
			t.Errorf("gemini key = %q, want current", cfg.Gemini.APIKey)
		}
	})

	t.Run("invalid storage", func(t *testing.T) {
		clearEnv(t)
		path := writeConfig(t, "storage:\n  driver: postgres\n")
		if _, err := Load(path); err == nil {
			t.Error("expected error for postgres without dsn")
		}
	})

	t.Run("malformed file", func(t *testing.T) {
		clearEnv(t)
		path := writeConfig(t, "server: [unterminated\n")
		if _, err := Load(path); err == nil {
			t.Error("expected error for malformed yaml")
		}
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"port zero", func(c *Config) { c.Server.Port = 0 }, true},
		{"unknown driver", func(c *Config) { c.Storage.Driver = "mysql" }, true},
		{"sqlite without dsn", func(c *Config) { c.Storage.Driver = "sqlite" }, true},
		{"negative burst", func(c *Config) { c.Server.RateLimit.Burst = -1 }, true},
		{"trusted proxies", func(c *Config) { c.Server.TrustedProxies = []string{"10.0.0.0/8", "::1"} }, false},
		{"invalid trusted proxy", func(c *Config) { c.Server.TrustedProxies = []string{"proxy.internal"} }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Config{
				Server:  ServerConfig{Port: 8080},
				Storage: StorageConfig{Driver: "memory"},
			}
			tt.mutate(&cfg)
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSubstituteEnvVars(t *testing.T) {
	t.Setenv("TEST_VAR", "test-value")

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "simple substitution",
			input: "${TEST_VAR}",
			want:  "test-value",
		},
		{
			name:  "substitution in string",
			input: "prefix-${TEST_VAR}-suffix",
			want:  "prefix-test-value-suffix",
		},
		{
			name:  "no substitution",
			input: "plain-string",
			want:  "plain-string",
		},
		{
			name:  "undefined var",
			input: "${UNDEFINED_VAR}",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := substituteEnvVars(tt.input)
			if got != tt.want {
				t.Errorf("substituteEnvVars() = %v, want %v", got, tt.want)
			}
		})
	}
}
