package credentials

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/modelgate/modelgate/internal/config"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/sync/singleflight"
)

// TokenSource yields access tokens for one provider's delegated
// credentials. Implementations refresh expired tokens transparently.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// BuildFunc constructs a TokenSource for a provider's OAuth settings.
type BuildFunc func(providerID string, oauthCfg config.OAuthConfig, getenv func(string) string) (TokenSource, error)

// OAuthCache holds at most one token source per provider, built lazily.
// Concurrent first callers share a single in-flight build; any error
// obtaining a client or token clears the slot so the next call rebuilds
// from scratch.
type OAuthCache struct {
	build  BuildFunc
	getenv func(string) string

	group   singleflight.Group
	mu      sync.Mutex
	sources map[string]TokenSource
}

// NewOAuthCache constructs an OAuthCache. A nil build installs the
// client-credentials default.
func NewOAuthCache(build BuildFunc, getenv func(string) string) *OAuthCache {
	if build == nil {
		build = buildClientCredentials
	}
	return &OAuthCache{
		build:   build,
		getenv:  getenv,
		sources: make(map[string]TokenSource),
	}
}

// Token returns an access token for the provider, building the cached
// source on first use. Errors clear the cached source before returning.
func (c *OAuthCache) Token(ctx context.Context, providerID string, oauthCfg config.OAuthConfig) (string, error) {
	providerID = strings.ToLower(strings.TrimSpace(providerID))

	c.mu.Lock()
	source := c.sources[providerID]
	c.mu.Unlock()

	if source == nil {
		built, errBuild, _ := c.group.Do(providerID, func() (any, error) {
			c.mu.Lock()
			if existing := c.sources[providerID]; existing != nil {
				c.mu.Unlock()
				return existing, nil
			}
			c.mu.Unlock()

			created, errCreate := c.build(providerID, oauthCfg, c.getenv)
			if errCreate != nil {
				return nil, errCreate
			}

			c.mu.Lock()
			c.sources[providerID] = created
			c.mu.Unlock()
			return created, nil
		})
		if errBuild != nil {
			c.Invalidate(providerID)
			return "", errBuild
		}
		source = built.(TokenSource)
	}

	token, errToken := source.Token(ctx)
	if errToken != nil {
		c.Invalidate(providerID)
		return "", errToken
	}
	return token, nil
}

// Invalidate drops the cached source for a provider so the next call
// rebuilds it.
func (c *OAuthCache) Invalidate(providerID string) {
	providerID = strings.ToLower(strings.TrimSpace(providerID))
	c.mu.Lock()
	delete(c.sources, providerID)
	c.mu.Unlock()
}

// clientCredentialsSource adapts an oauth2 client-credentials token
// source. The underlying source caches the token and refreshes it on
// expiry.
type clientCredentialsSource struct {
	conf *clientcredentials.Config
}

func (s *clientCredentialsSource) Token(ctx context.Context) (string, error) {
	token, err := s.conf.TokenSource(ctx).Token()
	if err != nil {
		return "", err
	}
	return token.AccessToken, nil
}

func buildClientCredentials(providerID string, oauthCfg config.OAuthConfig, getenv func(string) string) (TokenSource, error) {
	clientID := strings.TrimSpace(getenv(oauthCfg.ClientIDEnv))
	clientSecret := strings.TrimSpace(getenv(oauthCfg.ClientSecretEnv))
	if clientID == "" || clientSecret == "" {
		return nil, fmt.Errorf("oauth credentials for provider %s not configured", providerID)
	}
	return &clientCredentialsSource{
		conf: &clientcredentials.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			TokenURL:     strings.TrimSpace(oauthCfg.TokenURL),
			Scopes:       oauthCfg.Scopes,
		},
	}, nil
}
