package catalog

import "strings"

// RequestedModelKind tags how the caller addressed the model.
type RequestedModelKind int

const (
	// ModelNamed means the caller asked for a specific catalog model.
	ModelNamed RequestedModelKind = iota
	// ModelAuto means the caller delegated model choice to auto-routing.
	ModelAuto
	// ModelCustom means the caller supplied a custom upstream model whose
	// capabilities resolve dynamically downstream.
	ModelCustom
)

// RequestedModel is the caller's model reference as a tagged value, so
// sentinel handling stays exhaustive instead of scattered string checks.
type RequestedModel struct {
	Kind RequestedModelKind
	ID   string
}

// ParseRequestedModel classifies a raw model identifier.
func ParseRequestedModel(raw string) RequestedModel {
	trimmed := strings.TrimSpace(raw)
	switch strings.ToLower(trimmed) {
	case "auto":
		return RequestedModel{Kind: ModelAuto, ID: trimmed}
	case "custom":
		return RequestedModel{Kind: ModelCustom, ID: trimmed}
	default:
		return RequestedModel{Kind: ModelNamed, ID: trimmed}
	}
}

// Dynamic reports whether capability validation defers to downstream
// resolution for this reference.
func (r RequestedModel) Dynamic() bool {
	return r.Kind == ModelAuto || r.Kind == ModelCustom
}

// String returns the caller-facing identifier.
func (r RequestedModel) String() string {
	switch r.Kind {
	case ModelAuto:
		return "auto"
	case ModelCustom:
		return "custom"
	default:
		return r.ID
	}
}
