package providers

import (
	"context"
	"errors"
	"testing"

	"github.com/modelgate/modelgate/internal/apierr"
	"gorm.io/gorm"
)

func stubLookup(providerIDs []string, err error) KeyLookupFunc {
	return func(_ context.Context, _ *gorm.DB, _ uint64) ([]string, error) {
		return providerIDs, err
	}
}

func stubEnv(providerIDs ...string) func() []string {
	return func() []string { return providerIDs }
}

func TestResolveCreditsUsesEnvOnly(t *testing.T) {
	resolver := NewResolverWithLookup(nil, stubEnv("acme", "globex"), stubLookup([]string{"initech"}, nil))

	got, err := resolver.Resolve(context.Background(), Project{OrganizationID: 1, Mode: ModeCredits})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(got) != 2 || got[0] != "acme" || got[1] != "globex" {
		t.Fatalf("expected [acme globex], got %v", got)
	}
}

func TestResolveAPIKeysUsesStoredKeysOnly(t *testing.T) {
	resolver := NewResolverWithLookup(nil, stubEnv("acme"), stubLookup([]string{"initech"}, nil))

	got, err := resolver.Resolve(context.Background(), Project{OrganizationID: 1, Mode: ModeAPIKeys})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(got) != 1 || got[0] != "initech" {
		t.Fatalf("expected [initech], got %v", got)
	}
}

func TestResolveHybridUnionStoredFirst(t *testing.T) {
	resolver := NewResolverWithLookup(nil, stubEnv("globex", "acme"), stubLookup([]string{"acme", "initech"}, nil))

	got, err := resolver.Resolve(context.Background(), Project{OrganizationID: 1, Mode: ModeHybrid})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	want := []string{"acme", "initech", "globex"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestResolveExcludesSelfProvider(t *testing.T) {
	resolver := NewResolverWithLookup(nil, stubEnv("self", "acme"), stubLookup([]string{"Self", "globex"}, nil))

	got, err := resolver.Resolve(context.Background(), Project{OrganizationID: 1, Mode: ModeHybrid})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	for _, provider := range got {
		if provider == SelfProvider {
			t.Fatalf("expected self provider excluded, got %v", got)
		}
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 providers, got %v", got)
	}
}

func TestResolveNormalizesAndDeduplicates(t *testing.T) {
	resolver := NewResolverWithLookup(nil, stubEnv(" ACME ", "acme", ""), stubLookup(nil, nil))

	got, err := resolver.Resolve(context.Background(), Project{OrganizationID: 1, Mode: ModeCredits})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(got) != 1 || got[0] != "acme" {
		t.Fatalf("expected deduplicated [acme], got %v", got)
	}
}

func TestResolveLookupTimeoutIsTransient(t *testing.T) {
	resolver := NewResolverWithLookup(nil, stubEnv("acme"), stubLookup(nil, context.DeadlineExceeded))

	_, err := resolver.Resolve(context.Background(), Project{OrganizationID: 1, Mode: ModeHybrid})
	if err == nil {
		t.Fatalf("expected error, got nil")
	}
	var transient *apierr.TransientError
	if !errors.As(err, &transient) {
		t.Fatalf("expected TransientError, got %T: %v", err, err)
	}
}
