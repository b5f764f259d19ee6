package catalog

import (
	"testing"
	"time"
)

const testCatalogYAML = `
models:
  - id: gpt-test
    family: gpt
    mappings:
      - provider: acme
        model-name: gpt-test-v1
        input-price: 1.0
        output-price: 3.0
        context-size: 128000
        capabilities:
          streaming: true
          tools: true
          json-output: true
      - provider: globex
        capabilities:
          reasoning: true
          reasoning-levels: [low, medium]
  - id: mini-test
    family: mini
    mappings:
      - provider: acme
        input-price: 0.1
        output-price: 0.3
auto-route:
  allow-list: [mini-test]
`

func TestParseCatalog(t *testing.T) {
	cat, err := Parse([]byte(testCatalogYAML))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got := len(cat.Models()); got != 2 {
		t.Fatalf("expected 2 models, got %d", got)
	}

	def, ok := cat.Lookup("GPT-TEST")
	if !ok {
		t.Fatalf("expected case-insensitive lookup to succeed")
	}
	if def.ID != "gpt-test" {
		t.Fatalf("expected id gpt-test, got %q", def.ID)
	}
	if got := len(def.Mappings); got != 2 {
		t.Fatalf("expected 2 mappings, got %d", got)
	}
	if def.Mappings[0].ModelName != "gpt-test-v1" {
		t.Fatalf("expected model-name gpt-test-v1, got %q", def.Mappings[0].ModelName)
	}
	// A mapping without a model-name defaults to the catalog id.
	if def.Mappings[1].ModelName != "gpt-test" {
		t.Fatalf("expected defaulted model-name gpt-test, got %q", def.Mappings[1].ModelName)
	}
}

func TestParseCatalogRejectsDuplicateID(t *testing.T) {
	payload := `
models:
  - id: same
    mappings:
      - provider: acme
  - id: SAME
    mappings:
      - provider: globex
`
	if _, err := Parse([]byte(payload)); err == nil {
		t.Fatalf("expected duplicate id error, got nil")
	}
}

func TestParseCatalogRejectsUnknownReasoningLevel(t *testing.T) {
	payload := `
models:
  - id: m
    mappings:
      - provider: acme
        capabilities:
          reasoning: true
          reasoning-levels: [extreme]
`
	if _, err := Parse([]byte(payload)); err == nil {
		t.Fatalf("expected unknown reasoning level error, got nil")
	}
}

func TestAllowListKeepsCatalogOrder(t *testing.T) {
	payload := `
models:
  - id: b
    mappings:
      - provider: acme
  - id: a
    mappings:
      - provider: acme
auto-route:
  allow-list: [a, b]
`
	cat, err := Parse([]byte(payload))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	allowed := cat.AllowList()
	if len(allowed) != 2 || allowed[0] != "b" || allowed[1] != "a" {
		t.Fatalf("expected allow-list in catalog order [b a], got %v", allowed)
	}
}

func TestParseRequestedModel(t *testing.T) {
	if got := ParseRequestedModel("  Auto "); got.Kind != ModelAuto {
		t.Fatalf("expected ModelAuto, got %v", got.Kind)
	}
	if got := ParseRequestedModel("CUSTOM"); got.Kind != ModelCustom {
		t.Fatalf("expected ModelCustom, got %v", got.Kind)
	}
	named := ParseRequestedModel("gpt-test")
	if named.Kind != ModelNamed || named.ID != "gpt-test" {
		t.Fatalf("expected named gpt-test, got kind=%v id=%q", named.Kind, named.ID)
	}
	if !ParseRequestedModel("auto").Dynamic() {
		t.Fatalf("expected auto to be dynamic")
	}
	if ParseRequestedModel("gpt-test").Dynamic() {
		t.Fatalf("expected named model not to be dynamic")
	}
}

func TestSupportsReasoningLevel(t *testing.T) {
	caps := Capabilities{Reasoning: true, ReasoningLevels: []string{"low", "medium"}}
	if !caps.SupportsReasoningLevel("LOW") {
		t.Fatalf("expected low to be supported")
	}
	if caps.SupportsReasoningLevel("high") {
		t.Fatalf("expected high to be unsupported")
	}
	unrestricted := Capabilities{Reasoning: true}
	if !unrestricted.SupportsReasoningLevel("high") {
		t.Fatalf("expected unrestricted mapping to accept any level")
	}
	off := Capabilities{}
	if off.SupportsReasoningLevel("low") {
		t.Fatalf("expected non-reasoning mapping to reject levels")
	}
}

func TestMappingPricingAndLifecycle(t *testing.T) {
	in, out := 1.0, 3.0
	mapping := ProviderModelMapping{InputPrice: &in, OutputPrice: &out}
	if got := mapping.AvgPrice(); got != 2.0 {
		t.Fatalf("expected avg price 2.0, got %v", got)
	}
	if got := (ProviderModelMapping{}).AvgPrice(); got != 0 {
		t.Fatalf("expected missing prices to average 0, got %v", got)
	}
	if got := (ProviderModelMapping{}).EffectiveContextSize(); got != DefaultContextSize {
		t.Fatalf("expected default context size %d, got %d", DefaultContextSize, got)
	}

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)
	if !(ProviderModelMapping{DeactivatedAt: &past}).Deactivated(now) {
		t.Fatalf("expected past deactivation to apply")
	}
	if (ProviderModelMapping{DeactivatedAt: &future}).Deactivated(now) {
		t.Fatalf("expected future deactivation not to apply")
	}
	if !(ProviderModelMapping{DeprecatedAt: &past}).Deprecated(now) {
		t.Fatalf("expected past deprecation to apply")
	}
}
