// Package config loads service configuration from an optional YAML file
// overridden by WAYFARER_ environment variables.
package config

import (
	"fmt"
	"net/netip"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is stripped from environment variables; "__" separates levels,
// so WAYFARER_SERVER__PORT sets server.port.
const EnvPrefix = "WAYFARER_"

// DefaultPath is read when Load is given no path. A missing file is not an error.
const DefaultPath = "config.yaml"

type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Gemini    GeminiConfig    `koanf:"gemini"`
	Images    ImagesConfig    `koanf:"images"`
	Storage   StorageConfig   `koanf:"storage"`
	Telemetry TelemetryConfig `koanf:"telemetry"`
}

type ServerConfig struct {
	Port           int             `koanf:"port"`
	RequestTimeout time.Duration   `koanf:"request_timeout"`
	CORSOrigins    []string        `koanf:"cors_origins"`
	RateLimit      RateLimitConfig `koanf:"rate_limit"`

	// TrustedProxies are the peers (addresses or CIDRs) whose
	// X-Forwarded-For header is believed when keying the rate limiter.
	TrustedProxies []string `koanf:"trusted_proxies"`
}

// RateLimitConfig is per client. A zero rate disables limiting.
type RateLimitConfig struct {
	RequestsPerSecond float64 `koanf:"requests_per_second"`
	Burst             int     `koanf:"burst"`
}

type GeminiConfig struct {
	APIKey          string        `koanf:"api_key"`
	Model           string        `koanf:"model"`
	Temperature     float32       `koanf:"temperature"`
	Timeout         time.Duration `koanf:"timeout"`
	BaseURL         string        `koanf:"base_url"`
	MaxPromptTokens int           `koanf:"max_prompt_tokens"`
}

type ImagesConfig struct {
	Timeout   time.Duration   `koanf:"timeout"`
	Results   int             `koanf:"results"`
	Unsplash  UnsplashConfig  `koanf:"unsplash"`
	Pexels    PexelsConfig    `koanf:"pexels"`
	Wikipedia WikipediaConfig `koanf:"wikipedia"`
}

type UnsplashConfig struct {
	AccessKey string `koanf:"access_key"`
	BaseURL   string `koanf:"base_url"`
}

type PexelsConfig struct {
	APIKey  string `koanf:"api_key"`
	BaseURL string `koanf:"base_url"`
}

type WikipediaConfig struct {
	BaseURL string `koanf:"base_url"`
	Enabled bool   `koanf:"enabled"`
}

type StorageConfig struct {
	Driver       string `koanf:"driver"` // memory, sqlite, postgres
	DSN          string `koanf:"dsn"`
	HistoryLimit int    `koanf:"history_limit"`
}

type TelemetryConfig struct {
	ServiceName string `koanf:"service_name"`
	SentryDSN   string `koanf:"sentry_dsn"`
	Environment string `koanf:"environment"`
}

var defaults = map[string]any{
	"server.port":                           8080,
	"server.request_timeout":                "60s",
	"server.cors_origins":                   []string{"*"},
	"server.rate_limit.requests_per_second": 1.0,
	"server.rate_limit.burst":               10,
	"gemini.model":                          "gemini-3-flash-preview",
	"gemini.temperature":                    0.6,
	"gemini.timeout":                        "30s",
	"gemini.max_prompt_tokens":              32000,
	"images.timeout":                        "2500ms",
	"images.results":                        1,
	"images.wikipedia.enabled":              true,
	"storage.driver":                        "memory",
	"storage.history_limit":                 50,
	"telemetry.service_name":                "wayfarer",
	"telemetry.environment":                 "development",
}

// Credentials the service historically read from unprefixed variables.
var fallbackEnv = map[string][]string{
	"gemini.api_key":             {"GEMINI_API_KEY", "GOOGLE_API_KEY", "API_KEY"},
	"images.unsplash.access_key": {"UNSPLASH_ACCESS_KEY"},
	"images.pexels.api_key":      {"PEXELS_API_KEY"},
	"telemetry.sentry_dsn":       {"SENTRY_DSN"},
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// Load reads path (DefaultPath when empty), then the environment.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path == "" {
		path = DefaultPath
	}
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
	}

	if err := k.Load(env.ProviderWithValue(EnvPrefix, ".", func(key, value string) (string, any) {
		key = strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(key, EnvPrefix)), "__", ".")
		if key == "server.cors_origins" || key == "server.trusted_proxies" {
			return key, splitList(value)
		}
		return key, value
	}), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	for key, names := range fallbackEnv {
		if k.String(key) != "" {
			continue
		}
		for _, name := range names {
			if v := os.Getenv(name); v != "" {
				k.Set(key, v)
				break
			}
		}
	}

	for key, value := range defaults {
		if !k.Exists(key) {
			k.Set(key, value)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	cfg.Gemini.APIKey = substituteEnvVars(cfg.Gemini.APIKey)
	cfg.Images.Unsplash.AccessKey = substituteEnvVars(cfg.Images.Unsplash.AccessKey)
	cfg.Images.Pexels.APIKey = substituteEnvVars(cfg.Images.Pexels.APIKey)
	cfg.Storage.DSN = substituteEnvVars(cfg.Storage.DSN)
	cfg.Telemetry.SentryDSN = substituteEnvVars(cfg.Telemetry.SentryDSN)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports settings the service cannot start with. A missing Gemini
// key is not checked here.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	switch c.Storage.Driver {
	case "memory":
	case "sqlite", "postgres":
		if c.Storage.DSN == "" {
			return fmt.Errorf("storage.dsn is required for driver %q", c.Storage.Driver)
		}
	default:
		return fmt.Errorf("unknown storage.driver %q", c.Storage.Driver)
	}
	if c.Server.RateLimit.RequestsPerSecond < 0 || c.Server.RateLimit.Burst < 0 {
		return fmt.Errorf("server.rate_limit must not be negative")
	}
	for _, p := range c.Server.TrustedProxies {
		if _, err := netip.ParsePrefix(p); err == nil {
			continue
		}
		if _, err := netip.ParseAddr(p); err != nil {
			return fmt.Errorf("server.trusted_proxies: invalid address %q", p)
		}
	}
	return nil
}

func substituteEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := envVarPattern.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
