// Package engine composes the dispatch decision pipeline behind a
// single facade: estimate the context need, validate capabilities,
// resolve the eligible providers, pick a credential, and admit the
// request through the rate limiter.
package engine

import (
	"context"
	"time"

	"github.com/modelgate/modelgate/internal/access"
	"github.com/modelgate/modelgate/internal/apierr"
	"github.com/modelgate/modelgate/internal/autoroute"
	"github.com/modelgate/modelgate/internal/capability"
	"github.com/modelgate/modelgate/internal/catalog"
	"github.com/modelgate/modelgate/internal/chat"
	"github.com/modelgate/modelgate/internal/config"
	"github.com/modelgate/modelgate/internal/credentials"
	"github.com/modelgate/modelgate/internal/estimate"
	"github.com/modelgate/modelgate/internal/providers"
	"github.com/modelgate/modelgate/internal/ratelimit"
	"github.com/modelgate/modelgate/internal/status"
)

// decisionKeyPrefix scopes dispatch-decision counters in the limit store.
const decisionKeyPrefix = "decision"

// Decision is the dispatch plan for one request.
type Decision struct {
	// Model is the resolved catalog model id, or the caller's sentinel
	// for custom upstream models.
	Model string `json:"model"`
	// Providers lists the eligible providers in preference order; the
	// first entry is the one the credential was resolved for.
	Providers []string `json:"providers"`
	// Credential is the upstream credential for Providers[0].
	Credential credentials.Resolved `json:"credential"`
	// ContextTokens is the estimated context need for the request.
	ContextTokens int `json:"context_tokens"`
	// RateRemaining is the caller's remaining budget in the current
	// window after this admission.
	RateRemaining int `json:"rate_remaining"`
}

// Engine owns the pipeline components and runs them in order.
type Engine struct {
	catalog          *catalog.Catalog
	statusFilter     *status.Filter
	availability     *providers.Resolver
	router           *autoroute.Selector
	credentials      *credentials.Resolver
	limiter          *ratelimit.Manager
	completionBuffer int
	limit            ratelimit.LimitConfig
}

// Option tweaks engine construction.
type Option func(*Engine)

// WithLimit overrides the per-caller decision budget.
func WithLimit(limit ratelimit.LimitConfig) Option {
	return func(e *Engine) { e.limit = limit }
}

// New wires the pipeline from its parts. The limit defaults to the
// config's requests-per-minute over a one minute window.
func New(cat *catalog.Catalog, statusFilter *status.Filter, availability *providers.Resolver,
	router *autoroute.Selector, creds *credentials.Resolver, limiter *ratelimit.Manager,
	cfg config.GatewayConfig, opts ...Option) *Engine {
	e := &Engine{
		catalog:          cat,
		statusFilter:     statusFilter,
		availability:     availability,
		router:           router,
		credentials:      creds,
		limiter:          limiter,
		completionBuffer: cfg.CompletionBuffer,
		limit: ratelimit.LimitConfig{
			KeyPrefix:   decisionKeyPrefix,
			Window:      time.Minute,
			MaxRequests: cfg.RateLimit.RequestsPerMinute,
		},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// EstimateContext returns the estimated context need for a request.
func (e *Engine) EstimateContext(req chat.Request) int {
	maxTokens := 0
	if req.MaxTokens != nil {
		maxTokens = *req.MaxTokens
	}
	return estimate.Context(req.Messages, req.Tools, maxTokens, e.completionBuffer)
}

// ValidateCapabilities checks the request's features against the
// requested model, after applying the mapping status filter.
func (e *Engine) ValidateCapabilities(ctx context.Context, req chat.Request) (catalog.ModelDefinition, error) {
	requested := catalog.ParseRequestedModel(req.Model)
	features := capability.FeaturesOf(req)

	if requested.Dynamic() {
		return catalog.ModelDefinition{}, capability.Validate(catalog.ModelDefinition{}, requested, req.Provider, features)
	}

	def, ok := e.catalog.Lookup(requested.ID)
	if !ok {
		return catalog.ModelDefinition{}, apierr.NewClientError("unknown model %s", requested.ID)
	}
	def, err := e.statusFilter.Apply(ctx, def, false)
	if err != nil {
		return catalog.ModelDefinition{}, err
	}
	if err := capability.Validate(def, requested, req.Provider, features); err != nil {
		return catalog.ModelDefinition{}, err
	}
	return def, nil
}

// ResolveAvailableProviders returns the providers reachable for the
// caller's project.
func (e *Engine) ResolveAvailableProviders(ctx context.Context, project providers.Project) ([]string, error) {
	return e.availability.Resolve(ctx, project)
}

// SelectAutoRoute picks the cheapest suitable model across the
// available providers.
func (e *Engine) SelectAutoRoute(available []string, contextNeed int, features capability.Features) *autoroute.Route {
	return e.router.Select(available, contextNeed, features, e.catalog.AllowList())
}

// ResolveCredential resolves the upstream credential for a provider.
func (e *Engine) ResolveCredential(ctx context.Context, providerID string) (credentials.Resolved, error) {
	return e.credentials.Resolve(ctx, providerID)
}

// CheckRateLimit admits or rejects one decision for the caller.
func (e *Engine) CheckRateLimit(ctx context.Context, caller access.Identity) (ratelimit.Result, error) {
	return e.limiter.Allow(ctx, caller.Key(), e.limit)
}

// Decide runs the full pipeline for one request and returns the
// dispatch plan, or the first error encountered.
func (e *Engine) Decide(ctx context.Context, caller access.Identity, req chat.Request) (*Decision, error) {
	requested := catalog.ParseRequestedModel(req.Model)
	features := capability.FeaturesOf(req)
	contextNeed := e.EstimateContext(req)

	var (
		modelID       string
		providerOrder []string
	)

	switch requested.Kind {
	case catalog.ModelAuto:
		available, err := e.ResolveAvailableProviders(ctx, projectOf(caller))
		if err != nil {
			return nil, err
		}
		route := e.SelectAutoRoute(available, contextNeed, features)
		if route == nil {
			return nil, apierr.NewClientError("no model available for automatic routing")
		}
		modelID = route.Model.ID
		providerOrder = route.Providers()
	case catalog.ModelCustom:
		if req.Provider == "" {
			return nil, apierr.NewClientError("custom model requires an explicit provider")
		}
		modelID = requested.String()
		providerOrder = []string{req.Provider}
	default:
		def, err := e.ValidateCapabilities(ctx, req)
		if err != nil {
			return nil, err
		}
		modelID = def.ID
		providerOrder = namedProviders(def, req.Provider)
		if len(providerOrder) == 0 {
			return nil, apierr.NewClientError("model %s has no active provider", def.ID)
		}
	}

	cred, err := e.ResolveCredential(ctx, providerOrder[0])
	if err != nil {
		return nil, err
	}

	admit, err := e.CheckRateLimit(ctx, caller)
	if err != nil {
		return nil, err
	}
	if !admit.Allowed {
		return nil, apierr.NewRateLimitError(admit.Reset)
	}

	return &Decision{
		Model:         modelID,
		Providers:     providerOrder,
		Credential:    cred,
		ContextTokens: contextNeed,
		RateRemaining: admit.Remaining,
	}, nil
}

// namedProviders returns the provider order for an explicit model:
// the requested provider alone when set, otherwise every remaining
// mapping's provider in catalog order.
func namedProviders(def catalog.ModelDefinition, providerID string) []string {
	if providerID != "" {
		if len(def.MappingsForProvider(providerID)) == 0 {
			return nil
		}
		return []string{providerID}
	}
	seen := make(map[string]struct{}, len(def.Mappings))
	out := make([]string, 0, len(def.Mappings))
	for _, mapping := range def.Mappings {
		if _, dup := seen[mapping.ProviderID]; dup {
			continue
		}
		seen[mapping.ProviderID] = struct{}{}
		out = append(out, mapping.ProviderID)
	}
	return out
}

// projectOf derives the availability scope from the caller identity.
func projectOf(caller access.Identity) providers.Project {
	mode := caller.ProjectMode
	if mode == "" {
		mode = providers.ModeCredits
	}
	return providers.Project{OrganizationID: caller.OrganizationID, Mode: mode}
}
