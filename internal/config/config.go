// Package config loads gateway configuration from a YAML file with
// environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	EnvConfigPath   = "CONFIG_PATH"
	EnvDBConnection = "DB_CONNECTION"
	EnvJWTSecret    = "JWT_SECRET"
	EnvJWTExpiry    = "JWT_EXPIRY"
)

// AppConfig holds resolved application configuration values.
type AppConfig struct {
	ConfigPath string
}

// LoadFromEnv loads app config from environment variables.
func LoadFromEnv() (AppConfig, error) {
	return AppConfig{ConfigPath: ResolveConfigPath(os.Getenv(EnvConfigPath))}, nil
}

// ResolveConfigPath normalizes the config path and applies defaults.
func ResolveConfigPath(p string) string {
	trimmed := strings.TrimSpace(p)
	if trimmed == "" {
		trimmed = "./config.yaml"
	}
	if abs, err := filepath.Abs(trimmed); err == nil {
		return abs
	}
	return trimmed
}

// ErrMissingDatabaseDSN indicates no database DSN is present in the config file.
var ErrMissingDatabaseDSN = errors.New("missing database dsn (set `database-dsn` or `database.dsn` in config file)")

// JWTConfig holds JWT secret and expiry settings.
type JWTConfig struct {
	Secret string        `yaml:"secret"`
	Expiry time.Duration `yaml:"expiry"`
}

// CompanionSetting names an additional environment setting a provider
// requires alongside its primary secret, such as a region or project id.
type CompanionSetting struct {
	Name             string `yaml:"name"`
	CoveredByPrimary bool   `yaml:"covered-by-primary"`
}

// OAuthConfig describes a provider's delegated-credential exchange.
type OAuthConfig struct {
	TokenURL        string   `yaml:"token-url"`
	ClientIDEnv     string   `yaml:"client-id-env"`
	ClientSecretEnv string   `yaml:"client-secret-env"`
	Scopes          []string `yaml:"scopes"`
}

// Configured reports whether the OAuth section carries usable settings.
func (c OAuthConfig) Configured() bool {
	return strings.TrimSpace(c.TokenURL) != "" &&
		strings.TrimSpace(c.ClientIDEnv) != "" &&
		strings.TrimSpace(c.ClientSecretEnv) != ""
}

// ProviderConfig describes how credentials resolve for one provider.
type ProviderConfig struct {
	// EnvKey names the environment slot holding one or more
	// comma-separated static secrets.
	EnvKey string `yaml:"env-key"`
	// RequiredSettings lists companion env settings validated before a
	// static secret is handed out.
	RequiredSettings []CompanionSetting `yaml:"required-settings"`
	// OAuth, when configured, enables the delegated-credential path.
	OAuth OAuthConfig `yaml:"oauth"`
}

// RateLimitConfig carries the per-caller request budget and the Redis
// settings for the shared limit store.
type RateLimitConfig struct {
	// RequestsPerMinute caps dispatch decisions per caller per minute.
	RequestsPerMinute int `yaml:"requests-per-minute"`

	RedisEnabled  bool   `yaml:"redis-enabled"`
	RedisAddr     string `yaml:"redis-addr"`
	RedisPassword string `yaml:"redis-password"`
	RedisDB       int    `yaml:"redis-db"`
	RedisPrefix   string `yaml:"redis-prefix"`
}

// GatewayConfig is the full YAML config file shape.
type GatewayConfig struct {
	DatabaseDSN string `yaml:"database-dsn"`
	Database    struct {
		DSN string `yaml:"dsn"`
	} `yaml:"database"`

	CatalogPath string `yaml:"catalog-path"`

	JWT JWTConfig `yaml:"jwt"`

	// CompletionBuffer is the token reserve assumed for the completion
	// when the caller does not set max tokens.
	CompletionBuffer int `yaml:"completion-buffer"`

	Providers map[string]ProviderConfig `yaml:"providers"`

	RateLimit RateLimitConfig `yaml:"rate-limit"`
}

const (
	defaultCompletionBuffer  = 2048
	defaultRedisPrefix       = "mg:rl"
	defaultRequestsPerMinute = 60
)

// LoadGatewayConfig reads and normalizes the YAML config file.
func LoadGatewayConfig(configPath string) (GatewayConfig, error) {
	var cfg GatewayConfig

	data, errRead := os.ReadFile(configPath)
	if errRead != nil {
		return cfg, fmt.Errorf("read config file: %w", errRead)
	}
	if errUnmarshal := yaml.Unmarshal(data, &cfg); errUnmarshal != nil {
		return cfg, fmt.Errorf("parse config file: %w", errUnmarshal)
	}

	if cfg.CompletionBuffer <= 0 {
		cfg.CompletionBuffer = defaultCompletionBuffer
	}
	if cfg.RateLimit.RequestsPerMinute <= 0 {
		cfg.RateLimit.RequestsPerMinute = defaultRequestsPerMinute
	}
	if strings.TrimSpace(cfg.RateLimit.RedisPrefix) == "" {
		cfg.RateLimit.RedisPrefix = defaultRedisPrefix
	}
	if cfg.RateLimit.RedisDB < 0 {
		cfg.RateLimit.RedisDB = 0
	}

	normalized := make(map[string]ProviderConfig, len(cfg.Providers))
	for name, provider := range cfg.Providers {
		key := strings.ToLower(strings.TrimSpace(name))
		if key == "" {
			continue
		}
		provider.EnvKey = strings.TrimSpace(provider.EnvKey)
		normalized[key] = provider
	}
	cfg.Providers = normalized

	return cfg, nil
}

// Provider returns the credential config for a provider id.
func (c GatewayConfig) Provider(providerID string) (ProviderConfig, bool) {
	provider, ok := c.Providers[strings.ToLower(strings.TrimSpace(providerID))]
	return provider, ok
}

// EnvProviders returns the providers that have a platform credential
// present in the environment, sorted for determinism.
func (c GatewayConfig) EnvProviders(getenv func(string) string) []string {
	if getenv == nil {
		getenv = os.Getenv
	}
	out := make([]string, 0, len(c.Providers))
	for name, provider := range c.Providers {
		if provider.EnvKey == "" {
			continue
		}
		if strings.TrimSpace(getenv(provider.EnvKey)) == "" {
			continue
		}
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// LoadDatabaseDSN reads the database DSN, env taking precedence.
func LoadDatabaseDSN(configPath string) (string, error) {
	if dsn := strings.TrimSpace(os.Getenv(EnvDBConnection)); dsn != "" {
		return dsn, nil
	}

	cfg, err := LoadGatewayConfig(configPath)
	if err != nil {
		return "", err
	}
	if dsn := strings.TrimSpace(cfg.DatabaseDSN); dsn != "" {
		return dsn, nil
	}
	if dsn := strings.TrimSpace(cfg.Database.DSN); dsn != "" {
		return dsn, nil
	}
	return "", ErrMissingDatabaseDSN
}

// defaultJWTExpiry is used when the config omits or invalidates JWT expiry.
const defaultJWTExpiry = 30 * 24 * time.Hour

// LoadJWTConfig loads JWT settings from the YAML config file.
func LoadJWTConfig(configPath string) (JWTConfig, error) {
	result := JWTConfig{Expiry: defaultJWTExpiry}

	if cfg, errLoad := LoadGatewayConfig(configPath); errLoad == nil {
		result = cfg.JWT
	}

	if secret := strings.TrimSpace(os.Getenv(EnvJWTSecret)); secret != "" {
		result.Secret = secret
	}
	if expiryRaw := strings.TrimSpace(os.Getenv(EnvJWTExpiry)); expiryRaw != "" {
		if expiry, errParse := time.ParseDuration(expiryRaw); errParse == nil && expiry > 0 {
			result.Expiry = expiry
		}
	}

	if result.Expiry <= 0 {
		result.Expiry = defaultJWTExpiry
	}
	return result, nil
}
