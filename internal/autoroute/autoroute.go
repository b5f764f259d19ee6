// Package autoroute picks the cheapest eligible (model, provider) pair
// when the caller delegates model choice, filtering by availability,
// context size, and capability compatibility.
package autoroute

import (
	"strings"
	"time"

	"github.com/modelgate/modelgate/internal/capability"
	"github.com/modelgate/modelgate/internal/catalog"
	"github.com/modelgate/modelgate/internal/chat"
)

// Route is a selected model plus its eligible provider mappings. The
// mapping list keeps catalog order so callers can fall back through it.
type Route struct {
	Model    catalog.ModelDefinition
	Mappings []catalog.ProviderModelMapping
}

// Providers returns the provider ids of the route's mappings, in order.
func (r *Route) Providers() []string {
	if r == nil {
		return nil
	}
	out := make([]string, 0, len(r.Mappings))
	for _, mapping := range r.Mappings {
		out = append(out, mapping.ProviderID)
	}
	return out
}

// Selector ranks catalog models for automatic routing.
type Selector struct {
	catalog *catalog.Catalog
	nowFn   func() time.Time
}

// NewSelector constructs a Selector over the given catalog.
func NewSelector(cat *catalog.Catalog) *Selector {
	return &Selector{catalog: cat, nowFn: time.Now}
}

// NewSelectorAt constructs a Selector with an injected clock.
func NewSelectorAt(cat *catalog.Catalog, nowFn func() time.Time) *Selector {
	if nowFn == nil {
		nowFn = time.Now
	}
	return &Selector{catalog: cat, nowFn: nowFn}
}

// Select returns the route for the allow-listed model holding the
// globally cheapest eligible mapping, or nil when no allow-listed model
// has any eligible mapping. The caller treats nil as "no route
// available", a client-facing condition rather than a fault.
//
// Price ties resolve to the first model in catalog order. That ordering
// is deterministic but not a product guarantee.
func (s *Selector) Select(available []string, contextNeed int, features capability.Features, allowList []string) *Route {
	if s == nil || s.catalog == nil {
		return nil
	}
	now := s.nowFn()

	availableSet := make(map[string]struct{}, len(available))
	for _, provider := range available {
		availableSet[strings.ToLower(strings.TrimSpace(provider))] = struct{}{}
	}
	allowed := make(map[string]struct{}, len(allowList))
	for _, id := range allowList {
		allowed[strings.ToLower(strings.TrimSpace(id))] = struct{}{}
	}

	var best *Route
	bestPrice := 0.0

	for _, def := range s.catalog.Models() {
		if _, ok := allowed[strings.ToLower(def.ID)]; !ok {
			continue
		}

		eligible := make([]catalog.ProviderModelMapping, 0, len(def.Mappings))
		for _, mapping := range def.Mappings {
			if _, ok := availableSet[strings.ToLower(mapping.ProviderID)]; !ok {
				continue
			}
			if !suitable(mapping, contextNeed, features, now) {
				continue
			}
			eligible = append(eligible, mapping)
		}
		if len(eligible) == 0 {
			continue
		}

		// Rank the model by its cheapest eligible mapping; keep every
		// eligible mapping as the fallback list.
		modelMin := eligible[0].AvgPrice()
		for _, mapping := range eligible[1:] {
			if price := mapping.AvgPrice(); price < modelMin {
				modelMin = price
			}
		}
		if best == nil || modelMin < bestPrice {
			defCopy := def
			best = &Route{Model: defCopy, Mappings: eligible}
			bestPrice = modelMin
		}
	}

	return best
}

// suitable applies the per-mapping compatibility filter.
func suitable(mapping catalog.ProviderModelMapping, contextNeed int, features capability.Features, now time.Time) bool {
	if mapping.Deprecated(now) || mapping.Deactivated(now) {
		return false
	}
	if mapping.EffectiveContextSize() < contextNeed {
		return false
	}

	caps := mapping.Capabilities
	if features.DisallowReasoning && caps.DefaultReasoning {
		return false
	}
	if features.ReasoningEffort != "" {
		if !caps.Reasoning {
			return false
		}
		if !caps.SupportsReasoningLevel(features.ReasoningEffort) {
			return false
		}
	}
	if (features.HasTools || features.HasToolChoice) && !caps.Tools {
		return false
	}
	if features.WebSearch && !caps.WebSearch {
		return false
	}
	switch features.ResponseFormat {
	case chat.FormatJSONObject:
		if !caps.JSONOutput {
			return false
		}
	case chat.FormatJSONSchema:
		if !caps.JSONOutputSchema {
			return false
		}
	}
	if features.HasImages && !caps.Vision {
		return false
	}
	return true
}
