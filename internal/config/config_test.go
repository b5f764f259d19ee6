package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, payload string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(payload), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadGatewayConfigDefaults(t *testing.T) {
	path := writeConfig(t, `
database-dsn: "test.db"
providers:
  " ACME ":
    env-key: " ACME_KEYS "
`)
	cfg, err := LoadGatewayConfig(path)
	if err != nil {
		t.Fatalf("LoadGatewayConfig: %v", err)
	}
	if cfg.CompletionBuffer != defaultCompletionBuffer {
		t.Fatalf("expected default completion buffer %d, got %d", defaultCompletionBuffer, cfg.CompletionBuffer)
	}
	if cfg.RateLimit.RedisPrefix != defaultRedisPrefix {
		t.Fatalf("expected default redis prefix %q, got %q", defaultRedisPrefix, cfg.RateLimit.RedisPrefix)
	}
	if cfg.RateLimit.RequestsPerMinute != defaultRequestsPerMinute {
		t.Fatalf("expected default requests per minute %d, got %d", defaultRequestsPerMinute, cfg.RateLimit.RequestsPerMinute)
	}

	provider, ok := cfg.Provider("acme")
	if !ok {
		t.Fatalf("expected provider key normalized to lowercase")
	}
	if provider.EnvKey != "ACME_KEYS" {
		t.Fatalf("expected env key trimmed, got %q", provider.EnvKey)
	}
	if _, ok := cfg.Provider(" Acme "); !ok {
		t.Fatalf("expected Provider lookup to normalize its argument")
	}
}

func TestEnvProvidersSortedAndFiltered(t *testing.T) {
	path := writeConfig(t, `
providers:
  globex:
    env-key: GLOBEX_KEY
  acme:
    env-key: ACME_KEY
  unfunded:
    env-key: UNFUNDED_KEY
  oauth-only: {}
`)
	cfg, err := LoadGatewayConfig(path)
	if err != nil {
		t.Fatalf("LoadGatewayConfig: %v", err)
	}
	getenv := func(key string) string {
		switch key {
		case "ACME_KEY":
			return "a"
		case "GLOBEX_KEY":
			return "g"
		}
		return ""
	}
	got := cfg.EnvProviders(getenv)
	if len(got) != 2 || got[0] != "acme" || got[1] != "globex" {
		t.Fatalf("expected sorted [acme globex], got %v", got)
	}
}

func TestLoadDatabaseDSNPrecedence(t *testing.T) {
	path := writeConfig(t, `
database:
  dsn: "from-file.db"
`)
	t.Setenv(EnvDBConnection, "")

	dsn, err := LoadDatabaseDSN(path)
	if err != nil {
		t.Fatalf("LoadDatabaseDSN: %v", err)
	}
	if dsn != "from-file.db" {
		t.Fatalf("expected file DSN, got %q", dsn)
	}

	t.Setenv(EnvDBConnection, "from-env.db")
	dsn, err = LoadDatabaseDSN(path)
	if err != nil {
		t.Fatalf("LoadDatabaseDSN: %v", err)
	}
	if dsn != "from-env.db" {
		t.Fatalf("expected env DSN to win, got %q", dsn)
	}
}

func TestLoadDatabaseDSNMissing(t *testing.T) {
	path := writeConfig(t, `catalog-path: catalog.yaml`)
	t.Setenv(EnvDBConnection, "")

	if _, err := LoadDatabaseDSN(path); err == nil {
		t.Fatalf("expected missing DSN error, got nil")
	}
}

func TestLoadJWTConfig(t *testing.T) {
	path := writeConfig(t, `
jwt:
  secret: file-secret
`)
	t.Setenv(EnvJWTSecret, "")
	t.Setenv(EnvJWTExpiry, "")

	jwtCfg, err := LoadJWTConfig(path)
	if err != nil {
		t.Fatalf("LoadJWTConfig: %v", err)
	}
	if jwtCfg.Secret != "file-secret" {
		t.Fatalf("expected file secret, got %q", jwtCfg.Secret)
	}
	if jwtCfg.Expiry != defaultJWTExpiry {
		t.Fatalf("expected default expiry, got %v", jwtCfg.Expiry)
	}

	t.Setenv(EnvJWTSecret, "env-secret")
	t.Setenv(EnvJWTExpiry, "2h")
	jwtCfg, err = LoadJWTConfig(path)
	if err != nil {
		t.Fatalf("LoadJWTConfig: %v", err)
	}
	if jwtCfg.Secret != "env-secret" {
		t.Fatalf("expected env secret to win, got %q", jwtCfg.Secret)
	}
	if jwtCfg.Expiry != 2*time.Hour {
		t.Fatalf("expected 2h expiry, got %v", jwtCfg.Expiry)
	}
}

func TestOAuthConfigured(t *testing.T) {
	if (OAuthConfig{}).Configured() {
		t.Fatalf("expected empty oauth config not configured")
	}
	full := OAuthConfig{TokenURL: "https://x/token", ClientIDEnv: "ID", ClientSecretEnv: "SECRET"}
	if !full.Configured() {
		t.Fatalf("expected full oauth config configured")
	}
}
