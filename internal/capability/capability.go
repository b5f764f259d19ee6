// Package capability confirms that a requested (model, provider) pair can
// satisfy the features a request asks for: structured output, reasoning
// effort, tools, and web search. Vision is enforced by auto-routing only.
package capability

import (
	"strings"

	"github.com/modelgate/modelgate/internal/apierr"
	"github.com/modelgate/modelgate/internal/catalog"
	"github.com/modelgate/modelgate/internal/chat"
)

// Features is the request's capability requirement bundle.
type Features struct {
	// ResponseFormat is "", chat.FormatJSONObject, or chat.FormatJSONSchema.
	ResponseFormat string
	// ReasoningEffort is the requested level, or "" when absent.
	ReasoningEffort string
	// DisallowReasoning is set when the caller explicitly disabled
	// reasoning.
	DisallowReasoning bool
	// HasTools is set when function tools remain after extracting web
	// search.
	HasTools bool
	// HasToolChoice is set when tool_choice is present.
	HasToolChoice bool
	// WebSearch is set when a web search tool was extracted.
	WebSearch bool
	// HasImages is set when any message carries an image part.
	HasImages bool
}

// FeaturesOf derives the capability requirements from a request.
func FeaturesOf(req chat.Request) Features {
	f := Features{
		ReasoningEffort: strings.ToLower(strings.TrimSpace(req.ReasoningEffort)),
		HasTools:        len(req.FunctionTools()) > 0,
		HasToolChoice:   req.ToolChoice != nil,
		WebSearch:       req.WebSearchRequested(),
		HasImages:       req.HasImages(),
	}
	if req.ResponseFormat != nil {
		f.ResponseFormat = strings.ToLower(strings.TrimSpace(req.ResponseFormat.Type))
	}
	if req.Reasoning != nil && !*req.Reasoning {
		f.DisallowReasoning = true
	}
	return f
}

// Validate checks the requested features against the candidate mappings
// of def. When providerID is set, only that provider's mappings are
// candidates. Failures are client input errors naming the unmet
// capability. Reasoning, tool, and JSON-schema checks are skipped for
// the auto and custom sentinels, whose capabilities resolve downstream.
func Validate(def catalog.ModelDefinition, requested catalog.RequestedModel, providerID string, features Features) error {
	// Sentinel references resolve capabilities downstream; auto-routing
	// re-applies the capability filter per mapping.
	if requested.Dynamic() {
		return nil
	}

	providerID = strings.TrimSpace(providerID)
	candidates := def.Mappings
	if providerID != "" {
		candidates = def.MappingsForProvider(providerID)
	}

	if features.ResponseFormat == chat.FormatJSONObject {
		if !anyCandidate(candidates, func(c catalog.Capabilities) bool { return c.JSONOutput }) {
			return unsupported(requested, providerID, "JSON output")
		}
	}

	if features.ResponseFormat == chat.FormatJSONSchema {
		if !anyCandidate(candidates, func(c catalog.Capabilities) bool { return c.JSONOutputSchema }) {
			return unsupported(requested, providerID, "JSON schema output")
		}
	}

	if features.ReasoningEffort != "" {
		if errReasoning := validateReasoning(candidates, requested, providerID, features.ReasoningEffort); errReasoning != nil {
			return errReasoning
		}
	}

	if features.WebSearch {
		if !anyCandidate(candidates, func(c catalog.Capabilities) bool { return c.WebSearch }) {
			return unsupported(requested, providerID, "web search")
		}
	}

	if features.HasTools || features.HasToolChoice {
		hasTools := anyCandidate(candidates, func(c catalog.Capabilities) bool { return c.Tools })
		if !hasTools {
			// A request whose only tool is web search routes on the web
			// search flag instead of function calling.
			webSearchOnly := features.WebSearch && !features.HasTools
			if !webSearchOnly || !anyCandidate(candidates, func(c catalog.Capabilities) bool { return c.WebSearch }) {
				return unsupported(requested, providerID, "tools")
			}
		}
	}

	return nil
}

func validateReasoning(candidates []catalog.ProviderModelMapping, requested catalog.RequestedModel, providerID, level string) error {
	reasoning := make([]catalog.ProviderModelMapping, 0, len(candidates))
	for _, mapping := range candidates {
		if mapping.Capabilities.Reasoning {
			reasoning = append(reasoning, mapping)
		}
	}
	if len(reasoning) == 0 {
		if providerID != "" {
			return apierr.NewClientError("provider %s does not support reasoning for model %s", providerID, requested.String())
		}
		return apierr.NewClientError("model %s does not support reasoning", requested.String())
	}

	levelUnion := make(map[string]struct{})
	for _, mapping := range reasoning {
		// A reasoning-capable mapping without a level restriction accepts
		// every level.
		if len(mapping.Capabilities.ReasoningLevels) == 0 {
			return nil
		}
		for _, allowed := range mapping.Capabilities.ReasoningLevels {
			levelUnion[strings.ToLower(allowed)] = struct{}{}
		}
	}
	if _, ok := levelUnion[level]; ok {
		return nil
	}

	supported := make([]string, 0, len(levelUnion))
	for _, known := range catalog.ReasoningLevelOrder {
		if _, ok := levelUnion[known]; ok {
			supported = append(supported, known)
		}
	}
	return apierr.NewClientError("reasoning effort %q is not supported by model %s; supported levels: %s",
		level, requested.String(), strings.Join(supported, ", "))
}

func anyCandidate(candidates []catalog.ProviderModelMapping, match func(catalog.Capabilities) bool) bool {
	for _, mapping := range candidates {
		if match(mapping.Capabilities) {
			return true
		}
	}
	return false
}

func unsupported(requested catalog.RequestedModel, providerID, feature string) error {
	if providerID != "" {
		return apierr.NewClientError("model %s on provider %s does not support %s", requested.String(), providerID, feature)
	}
	return apierr.NewClientError("model %s does not support %s", requested.String(), feature)
}
