// Package providers resolves which upstream providers a project may use,
// combining platform environment credentials with the organization's own
// stored keys according to the project mode.
package providers

import (
	"context"
	"errors"
	"strings"

	"github.com/modelgate/modelgate/internal/apierr"
	"github.com/modelgate/modelgate/internal/models"
	"gorm.io/gorm"
)

// SelfProvider is the reserved virtual provider identifier, never
// eligible for dispatch.
const SelfProvider = "self"

// Project modes.
const (
	ModeAPIKeys = "api-keys"
	ModeCredits = "credits"
	ModeHybrid  = "hybrid"
)

// Project identifies the requesting project and its provider sourcing
// mode.
type Project struct {
	OrganizationID uint64
	Mode           string
}

// KeyLookupFunc fetches the provider ids with an active stored key for
// one organization.
type KeyLookupFunc func(ctx context.Context, db *gorm.DB, organizationID uint64) ([]string, error)

// Resolver computes the provider set available to a project.
type Resolver struct {
	db           *gorm.DB
	envProviders func() []string
	lookupKeys   KeyLookupFunc
}

// NewResolver constructs a Resolver. envProviders supplies the providers
// with a platform environment credential.
func NewResolver(db *gorm.DB, envProviders func() []string) *Resolver {
	return &Resolver{db: db, envProviders: envProviders, lookupKeys: LookupActiveKeyProviders}
}

// NewResolverWithLookup constructs a Resolver with an injected key
// lookup.
func NewResolverWithLookup(db *gorm.DB, envProviders func() []string, lookup KeyLookupFunc) *Resolver {
	if lookup == nil {
		lookup = LookupActiveKeyProviders
	}
	return &Resolver{db: db, envProviders: envProviders, lookupKeys: lookup}
}

// Resolve returns the ordered, de-duplicated provider set for the
// project. The reserved self provider is always excluded.
func (r *Resolver) Resolve(ctx context.Context, project Project) ([]string, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	var env []string
	if r.envProviders != nil {
		env = r.envProviders()
	}
	env = normalize(env)

	if strings.EqualFold(project.Mode, ModeCredits) {
		return env, nil
	}

	dbProviders, errLookup := r.lookupKeys(ctx, r.db, project.OrganizationID)
	if errLookup != nil {
		if errors.Is(errLookup, context.DeadlineExceeded) || errors.Is(errLookup, context.Canceled) {
			return nil, apierr.NewTransientError("provider key lookup", errLookup)
		}
		return nil, errLookup
	}
	dbProviders = normalize(dbProviders)

	if strings.EqualFold(project.Mode, ModeAPIKeys) {
		return dbProviders, nil
	}

	// Hybrid: union, database keys first, order preserving.
	seen := make(map[string]struct{}, len(dbProviders)+len(env))
	union := make([]string, 0, len(dbProviders)+len(env))
	for _, provider := range dbProviders {
		if _, dup := seen[provider]; dup {
			continue
		}
		seen[provider] = struct{}{}
		union = append(union, provider)
	}
	for _, provider := range env {
		if _, dup := seen[provider]; dup {
			continue
		}
		seen[provider] = struct{}{}
		union = append(union, provider)
	}
	return union, nil
}

// LookupActiveKeyProviders loads the distinct providers with an active
// stored key for the organization.
func LookupActiveKeyProviders(ctx context.Context, db *gorm.DB, organizationID uint64) ([]string, error) {
	if db == nil || organizationID == 0 {
		return nil, nil
	}
	var rows []string
	if errFind := db.WithContext(ctx).
		Model(&models.ProviderKey{}).
		Distinct("provider").
		Where("organization_id = ? AND status = ?", organizationID, models.ProviderKeyStatusActive).
		Pluck("provider", &rows).Error; errFind != nil {
		return nil, errFind
	}
	return rows, nil
}

// normalize lowercases, trims, de-duplicates, and drops the reserved
// self provider, preserving order.
func normalize(providerIDs []string) []string {
	seen := make(map[string]struct{}, len(providerIDs))
	out := make([]string, 0, len(providerIDs))
	for _, provider := range providerIDs {
		provider = strings.ToLower(strings.TrimSpace(provider))
		if provider == "" || provider == SelfProvider {
			continue
		}
		if _, dup := seen[provider]; dup {
			continue
		}
		seen[provider] = struct{}{}
		out = append(out, provider)
	}
	return out
}
