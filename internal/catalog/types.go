package catalog

import (
	"strings"
	"time"
)

// Reasoning effort levels in fixed priority order.
const (
	ReasoningMinimal = "minimal"
	ReasoningLow     = "low"
	ReasoningMedium  = "medium"
	ReasoningHigh    = "high"
)

// ReasoningLevelOrder lists the known effort levels from lowest to highest.
var ReasoningLevelOrder = []string{ReasoningMinimal, ReasoningLow, ReasoningMedium, ReasoningHigh}

// DefaultContextSize applies when a mapping omits its context window.
const DefaultContextSize = 8192

// Capabilities describes the feature flags one provider mapping exposes.
type Capabilities struct {
	Streaming        bool     `yaml:"streaming"`
	Vision           bool     `yaml:"vision"`
	Reasoning        bool     `yaml:"reasoning"`
	ReasoningLevels  []string `yaml:"reasoning-levels"`
	DefaultReasoning bool     `yaml:"default-reasoning"`
	Tools            bool     `yaml:"tools"`
	JSONOutput       bool     `yaml:"json-output"`
	JSONOutputSchema bool     `yaml:"json-output-schema"`
	WebSearch        bool     `yaml:"web-search"`
}

// SupportsReasoningLevel reports whether level is allowed by this mapping.
// A mapping that declares no level restriction accepts every level.
func (c Capabilities) SupportsReasoningLevel(level string) bool {
	if !c.Reasoning {
		return false
	}
	if len(c.ReasoningLevels) == 0 {
		return true
	}
	for _, allowed := range c.ReasoningLevels {
		if strings.EqualFold(allowed, level) {
			return true
		}
	}
	return false
}

// ProviderModelMapping is one provider's exposure of a model.
type ProviderModelMapping struct {
	ProviderID string `yaml:"provider"`
	ModelName  string `yaml:"model-name"`

	InputPrice      *float64 `yaml:"input-price"`
	OutputPrice     *float64 `yaml:"output-price"`
	RequestPrice    *float64 `yaml:"request-price"`
	ImagePrice      *float64 `yaml:"image-price"`
	CacheReadPrice  *float64 `yaml:"cache-read-price"`
	CacheWritePrice *float64 `yaml:"cache-write-price"`

	ContextSize int `yaml:"context-size"`
	MaxOutput   int `yaml:"max-output"`

	Capabilities Capabilities `yaml:"capabilities"`

	DeprecatedAt  *time.Time `yaml:"deprecated-at"`
	DeactivatedAt *time.Time `yaml:"deactivated-at"`
}

// Deactivated reports whether the mapping is past its deactivation time.
func (m ProviderModelMapping) Deactivated(now time.Time) bool {
	return m.DeactivatedAt != nil && !m.DeactivatedAt.After(now)
}

// Deprecated reports whether the mapping is past its deprecation time.
func (m ProviderModelMapping) Deprecated(now time.Time) bool {
	return m.DeprecatedAt != nil && !m.DeprecatedAt.After(now)
}

// EffectiveContextSize returns the context window, defaulted when unset.
func (m ProviderModelMapping) EffectiveContextSize() int {
	if m.ContextSize <= 0 {
		return DefaultContextSize
	}
	return m.ContextSize
}

// AvgPrice is the mean of input and output token prices, treating missing
// prices as zero. Used for auto-route cost ranking only.
func (m ProviderModelMapping) AvgPrice() float64 {
	var in, out float64
	if m.InputPrice != nil {
		in = *m.InputPrice
	}
	if m.OutputPrice != nil {
		out = *m.OutputPrice
	}
	return (in + out) / 2
}

// ModelDefinition is one catalog model with its provider mappings.
// Definitions are immutable after catalog load.
type ModelDefinition struct {
	ID       string                 `yaml:"id"`
	Family   string                 `yaml:"family"`
	Mappings []ProviderModelMapping `yaml:"mappings"`
}

// MappingsForProvider returns the mappings exposed by providerID.
func (d ModelDefinition) MappingsForProvider(providerID string) []ProviderModelMapping {
	out := make([]ProviderModelMapping, 0, 1)
	for _, m := range d.Mappings {
		if strings.EqualFold(m.ProviderID, providerID) {
			out = append(out, m)
		}
	}
	return out
}
