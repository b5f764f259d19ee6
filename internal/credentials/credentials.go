// Package credentials resolves a usable authentication token for a
// chosen provider, preferring a cached OAuth2 exchange and falling back
// to round-robin rotation over comma-separated static secrets.
package credentials

import (
	"context"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/modelgate/modelgate/internal/apierr"
	"github.com/modelgate/modelgate/internal/config"
	log "github.com/sirupsen/logrus"
)

// Resolved is a usable credential for one dispatched request.
// ConfigIndex identifies which rotation slot was used so downstream
// endpoint or region selection stays consistent for the request's
// lifetime; callers must not re-resolve mid-request.
type Resolved struct {
	Token       string
	ConfigIndex int
	EnvVarName  string
	IsOAuth2    bool
}

// Resolver turns a provider id into a credential. Rotation cursors and
// the OAuth cache are owned state, not package globals, so isolated
// instances can be constructed for tests.
type Resolver struct {
	providers  map[string]config.ProviderConfig
	getenv     func(string) string
	oauthCache *OAuthCache

	mu      sync.Mutex
	cursors map[string]*atomic.Uint64
}

// NewResolver constructs a Resolver over the configured providers.
func NewResolver(cfg config.GatewayConfig) *Resolver {
	return NewResolverWithEnv(cfg.Providers, os.Getenv, nil)
}

// NewResolverWithEnv constructs a Resolver with injected environment
// access and OAuth source builder.
func NewResolverWithEnv(providers map[string]config.ProviderConfig, getenv func(string) string, build BuildFunc) *Resolver {
	if getenv == nil {
		getenv = os.Getenv
	}
	return &Resolver{
		providers:  providers,
		getenv:     getenv,
		oauthCache: NewOAuthCache(build, getenv),
		cursors:    make(map[string]*atomic.Uint64),
	}
}

// Resolve returns a credential for providerID. Providers with delegated
// credentials configured go through the OAuth cache first; any failure
// there clears the cache and falls through to the static-secret path.
// Missing static configuration is an operator fault, not caller input.
func (r *Resolver) Resolve(ctx context.Context, providerID string) (Resolved, error) {
	providerID = strings.ToLower(strings.TrimSpace(providerID))

	providerCfg, ok := r.providers[providerID]
	if !ok {
		return Resolved{}, apierr.NewConfigError("no credential configuration for provider %s", providerID)
	}

	if providerCfg.OAuth.Configured() {
		token, errToken := r.oauthCache.Token(ctx, providerID, providerCfg.OAuth)
		if errToken == nil {
			return Resolved{Token: token, IsOAuth2: true}, nil
		}
		log.WithError(errToken).WithField("provider", providerID).
			Warn("credentials: oauth token exchange failed, falling back to static secret")
	}

	return r.resolveStatic(providerID, providerCfg)
}

func (r *Resolver) resolveStatic(providerID string, providerCfg config.ProviderConfig) (Resolved, error) {
	slot := strings.TrimSpace(providerCfg.EnvKey)
	if slot == "" {
		return Resolved{}, apierr.NewConfigError("no credential slot configured for provider %s", providerID)
	}
	raw := strings.TrimSpace(r.getenv(slot))
	if raw == "" {
		return Resolved{}, apierr.NewConfigError("credential env %s for provider %s is empty", slot, providerID)
	}

	for _, setting := range providerCfg.RequiredSettings {
		if setting.CoveredByPrimary {
			continue
		}
		name := strings.TrimSpace(setting.Name)
		if name == "" {
			continue
		}
		if strings.TrimSpace(r.getenv(name)) == "" {
			return Resolved{}, apierr.NewConfigError("provider %s requires setting %s", providerID, name)
		}
	}

	tokens := splitTokens(raw)
	cursor := r.cursor(providerID + ":" + slot)
	index := int((cursor.Add(1) - 1) % uint64(len(tokens)))

	return Resolved{
		Token:       tokens[index],
		ConfigIndex: index,
		EnvVarName:  slot,
	}, nil
}

// cursor returns the shared rotation counter for a provider slot.
func (r *Resolver) cursor(key string) *atomic.Uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.cursors[key]; ok {
		return existing
	}
	created := &atomic.Uint64{}
	r.cursors[key] = created
	return created
}

func splitTokens(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		out = append(out, raw)
	}
	return out
}
