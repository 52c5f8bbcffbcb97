package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds the vecvstext service configuration.
type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	Upstream   UpstreamConfig   `yaml:"upstream"`
	Cache      CacheConfig      `yaml:"cache"`
	Projection ProjectionConfig `yaml:"projection"`
	Sessions   SessionsConfig   `yaml:"sessions"`
	Tracing    TracingConfig    `yaml:"tracing"`
	Auth       AuthConfig       `yaml:"auth"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings. Empty APIKeys disables auth.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// UpstreamConfig points at the books API serving search, embeddings and words.
type UpstreamConfig struct {
	BaseURL    string `yaml:"base_url"`
	TimeoutSec int    `yaml:"timeout_sec"`
	HealthPath string `yaml:"health_path"`
}

// Timeout returns the per-request upstream timeout.
func (u UpstreamConfig) Timeout() time.Duration {
	return time.Duration(u.TimeoutSec) * time.Second
}

// Cache drivers.
const (
	CacheNone   = "none"
	CacheRedis  = "redis"
	CacheBadger = "badger"
)

// CacheConfig holds the word index / embedding cache settings.
type CacheConfig struct {
	Driver           string   `yaml:"driver"` // none, redis, badger (default: none)
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	Path             string   `yaml:"path"` // badger directory; empty = in-memory
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
	WordTTLSec       int      `yaml:"word_ttl_sec"`
	EmbeddingTTLSec  int      `yaml:"embedding_ttl_sec"`
	KeyPrefix        string   `yaml:"key_prefix"`
	LocalTTLSec      int      `yaml:"local_ttl_sec"` // redis client-side caching; 0 = off
}

// ProjectionConfig controls which ids feed the 2-D projection.
type ProjectionConfig struct {
	CandidateSource    string `yaml:"candidate_source"` // vector, text, union
	IncludeQueryAnchor *bool  `yaml:"include_query_anchor"`
}

// QueryAnchor reports whether the query's own embedding takes part in the fit.
func (p ProjectionConfig) QueryAnchor() bool {
	return p.IncludeQueryAnchor == nil || *p.IncludeQueryAnchor
}

// SessionsConfig bounds the number and lifetime of comparison sessions.
type SessionsConfig struct {
	Max        int `yaml:"max"`
	IdleTTLSec int `yaml:"idle_ttl_sec"`
}

// TracingConfig holds OpenTelemetry export settings. Empty endpoint disables export.
type TracingConfig struct {
	OTLPEndpoint string  `yaml:"otlp_endpoint"`
	SampleRate   float64 `yaml:"sample_rate"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
// A .env file in the working directory, if present, is loaded first.
func Load(env string) (Config, error) {
	_ = godotenv.Load()

	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	return Parse(data)
}

// Parse expands env variables in raw YAML, applies defaults and validates.
func Parse(data []byte) (Config, error) {
	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 30
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Upstream.TimeoutSec <= 0 {
		c.Upstream.TimeoutSec = 15
	}
	if c.Upstream.HealthPath == "" {
		c.Upstream.HealthPath = "/openapi.json"
	}
	c.Upstream.BaseURL = strings.TrimRight(c.Upstream.BaseURL, "/")
	if c.Cache.Driver == "" {
		c.Cache.Driver = CacheNone
	}
	if c.Cache.ReadinessTimeout <= 0 {
		c.Cache.ReadinessTimeout = 10
	}
	if c.Cache.WordTTLSec <= 0 {
		c.Cache.WordTTLSec = 24 * 3600
	}
	if c.Cache.EmbeddingTTLSec <= 0 {
		c.Cache.EmbeddingTTLSec = 3600
	}
	if c.Cache.KeyPrefix == "" {
		c.Cache.KeyPrefix = "vecvstext:"
	}
	if c.Projection.CandidateSource == "" {
		c.Projection.CandidateSource = "vector"
	}
	if c.Sessions.Max <= 0 {
		c.Sessions.Max = 1000
	}
	if c.Sessions.IdleTTLSec <= 0 {
		c.Sessions.IdleTTLSec = 1800
	}
	if c.Tracing.SampleRate == 0 {
		c.Tracing.SampleRate = 1.0
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if c.Upstream.BaseURL == "" {
		return fmt.Errorf("upstream.base_url is required")
	}
	if !strings.HasPrefix(c.Upstream.HealthPath, "/") {
		return fmt.Errorf("upstream.health_path must start with /, got %q", c.Upstream.HealthPath)
	}
	switch c.Cache.Driver {
	case CacheNone, CacheBadger:
	case CacheRedis:
		if len(c.Cache.Addrs) == 0 {
			return fmt.Errorf("cache.addrs is required for driver %q", c.Cache.Driver)
		}
	default:
		return fmt.Errorf("cache.driver must be one of none, redis, badger, got %q", c.Cache.Driver)
	}
	if c.Cache.LocalTTLSec < 0 {
		return fmt.Errorf("cache.local_ttl_sec must not be negative, got %d", c.Cache.LocalTTLSec)
	}
	switch c.Projection.CandidateSource {
	case "vector", "text", "union":
	default:
		return fmt.Errorf(
			"projection.candidate_source must be \"vector\", \"text\" or \"union\", got %q",
			c.Projection.CandidateSource,
		)
	}
	if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1 {
		return fmt.Errorf("tracing.sample_rate must be between 0 and 1, got %v", c.Tracing.SampleRate)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
