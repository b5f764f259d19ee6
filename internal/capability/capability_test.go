package capability

import (
	"errors"
	"strings"
	"testing"

	"github.com/modelgate/modelgate/internal/apierr"
	"github.com/modelgate/modelgate/internal/catalog"
	"github.com/modelgate/modelgate/internal/chat"
)

func reasoningDef() catalog.ModelDefinition {
	return catalog.ModelDefinition{
		ID: "gpt-test",
		Mappings: []catalog.ProviderModelMapping{
			{ProviderID: "acme", Capabilities: catalog.Capabilities{
				Reasoning:       true,
				ReasoningLevels: []string{"low"},
				Tools:           true,
				JSONOutput:      true,
			}},
			{ProviderID: "globex", Capabilities: catalog.Capabilities{
				Reasoning:       true,
				ReasoningLevels: []string{"medium"},
			}},
			{ProviderID: "initech", Capabilities: catalog.Capabilities{
				WebSearch: true,
			}},
		},
	}
}

func named(id string) catalog.RequestedModel {
	return catalog.ParseRequestedModel(id)
}

func TestValidateSkipsSentinels(t *testing.T) {
	features := Features{
		ResponseFormat:  chat.FormatJSONSchema,
		ReasoningEffort: "high",
		HasTools:        true,
	}
	if err := Validate(catalog.ModelDefinition{}, named("auto"), "", features); err != nil {
		t.Fatalf("expected auto sentinel to bypass validation, got %v", err)
	}
	if err := Validate(catalog.ModelDefinition{}, named("custom"), "acme", features); err != nil {
		t.Fatalf("expected custom sentinel to bypass validation, got %v", err)
	}
}

func TestValidateJSONOutput(t *testing.T) {
	def := reasoningDef()
	if err := Validate(def, named("gpt-test"), "", Features{ResponseFormat: chat.FormatJSONObject}); err != nil {
		t.Fatalf("expected json_object to pass via acme, got %v", err)
	}
	err := Validate(def, named("gpt-test"), "globex", Features{ResponseFormat: chat.FormatJSONObject})
	if err == nil {
		t.Fatalf("expected json_object failure on globex, got nil")
	}
	var clientErr *apierr.ClientError
	if !errors.As(err, &clientErr) {
		t.Fatalf("expected ClientError, got %T", err)
	}
}

func TestValidateJSONSchema(t *testing.T) {
	def := reasoningDef()
	if err := Validate(def, named("gpt-test"), "", Features{ResponseFormat: chat.FormatJSONSchema}); err == nil {
		t.Fatalf("expected json_schema failure, got nil")
	}
}

func TestValidateReasoningLevelUnion(t *testing.T) {
	def := reasoningDef()
	// Low comes from acme, medium from globex; either passes with no
	// provider pin.
	if err := Validate(def, named("gpt-test"), "", Features{ReasoningEffort: "low"}); err != nil {
		t.Fatalf("expected low to pass, got %v", err)
	}
	if err := Validate(def, named("gpt-test"), "", Features{ReasoningEffort: "medium"}); err != nil {
		t.Fatalf("expected medium to pass, got %v", err)
	}

	err := Validate(def, named("gpt-test"), "", Features{ReasoningEffort: "high"})
	if err == nil {
		t.Fatalf("expected high to fail, got nil")
	}
	if !strings.Contains(err.Error(), "supported levels: low, medium") {
		t.Fatalf("expected supported levels listed in order, got %q", err.Error())
	}
}

func TestValidateReasoningErrorsNameProviderWhenPinned(t *testing.T) {
	def := reasoningDef()

	errPinned := Validate(def, named("gpt-test"), "initech", Features{ReasoningEffort: "low"})
	if errPinned == nil {
		t.Fatalf("expected pinned reasoning failure, got nil")
	}
	if !strings.Contains(errPinned.Error(), "provider initech does not support reasoning") {
		t.Fatalf("expected provider-specific message, got %q", errPinned.Error())
	}

	noReasoning := catalog.ModelDefinition{
		ID:       "plain",
		Mappings: []catalog.ProviderModelMapping{{ProviderID: "acme"}},
	}
	errGlobal := Validate(noReasoning, named("plain"), "", Features{ReasoningEffort: "low"})
	if errGlobal == nil {
		t.Fatalf("expected global reasoning failure, got nil")
	}
	if !strings.Contains(errGlobal.Error(), "model plain does not support reasoning") {
		t.Fatalf("expected model-level message, got %q", errGlobal.Error())
	}
}

func TestValidateUnrestrictedReasoningAcceptsAnyLevel(t *testing.T) {
	def := catalog.ModelDefinition{
		ID: "open",
		Mappings: []catalog.ProviderModelMapping{
			{ProviderID: "acme", Capabilities: catalog.Capabilities{Reasoning: true}},
		},
	}
	if err := Validate(def, named("open"), "", Features{ReasoningEffort: "high"}); err != nil {
		t.Fatalf("expected unrestricted reasoning to accept high, got %v", err)
	}
}

func TestValidateWebSearch(t *testing.T) {
	def := reasoningDef()
	if err := Validate(def, named("gpt-test"), "", Features{WebSearch: true}); err != nil {
		t.Fatalf("expected web search to pass via initech, got %v", err)
	}
	if err := Validate(def, named("gpt-test"), "acme", Features{WebSearch: true}); err == nil {
		t.Fatalf("expected pinned web search failure, got nil")
	}
}

func TestValidateToolsWithWebSearchOnlyException(t *testing.T) {
	webOnly := catalog.ModelDefinition{
		ID: "searcher",
		Mappings: []catalog.ProviderModelMapping{
			{ProviderID: "initech", Capabilities: catalog.Capabilities{WebSearch: true}},
		},
	}

	// A tool_choice with no function tools passes when the only tool is
	// web search and the mapping supports web search.
	features := Features{HasToolChoice: true, WebSearch: true}
	if err := Validate(webOnly, named("searcher"), "", features); err != nil {
		t.Fatalf("expected web-search-only request to pass, got %v", err)
	}

	// Real function tools still require the tools capability.
	withTools := Features{HasTools: true, WebSearch: true}
	if err := Validate(webOnly, named("searcher"), "", withTools); err == nil {
		t.Fatalf("expected function tools to fail without tools capability, got nil")
	}
}

func TestFeaturesOf(t *testing.T) {
	off := false
	req := chat.Request{
		Model:           "gpt-test",
		Reasoning:       &off,
		ReasoningEffort: " High ",
		ToolChoice:      "auto",
		ResponseFormat:  &chat.ResponseFormat{Type: "JSON_OBJECT"},
		Tools: []chat.Tool{
			{Type: "web_search"},
			{Type: "function", Function: chat.ToolFunction{Name: "lookup"}},
		},
	}
	features := FeaturesOf(req)
	if !features.DisallowReasoning {
		t.Fatalf("expected DisallowReasoning for reasoning=false")
	}
	if features.ReasoningEffort != "high" {
		t.Fatalf("expected normalized effort high, got %q", features.ReasoningEffort)
	}
	if features.ResponseFormat != chat.FormatJSONObject {
		t.Fatalf("expected normalized response format, got %q", features.ResponseFormat)
	}
	if !features.HasTools || !features.WebSearch || !features.HasToolChoice {
		t.Fatalf("expected tools, web search, and tool choice flags: %+v", features)
	}
}
