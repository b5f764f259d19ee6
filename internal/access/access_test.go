package access

import (
	"errors"
	"testing"
	"time"
)

const testSecret = "test-secret"

func TestTokenRoundTrip(t *testing.T) {
	identity := Identity{UserID: 42, OrganizationID: 7, ProjectMode: "hybrid"}
	token, err := CreateToken(identity, testSecret, time.Hour)
	if err != nil {
		t.Fatalf("CreateToken: %v", err)
	}

	parsed, err := ParseToken(token, testSecret)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if parsed != identity {
		t.Fatalf("expected %+v, got %+v", identity, parsed)
	}
}

func TestParseTokenExpired(t *testing.T) {
	token, err := CreateToken(Identity{UserID: 1}, testSecret, -time.Minute)
	if err != nil {
		t.Fatalf("CreateToken: %v", err)
	}
	if _, err := ParseToken(token, testSecret); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestParseTokenWrongSecret(t *testing.T) {
	token, err := CreateToken(Identity{UserID: 1}, testSecret, time.Hour)
	if err != nil {
		t.Fatalf("CreateToken: %v", err)
	}
	if _, err := ParseToken(token, "other-secret"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestParseTokenZeroUserIDInvalid(t *testing.T) {
	token, err := CreateToken(Identity{}, testSecret, time.Hour)
	if err != nil {
		t.Fatalf("CreateToken: %v", err)
	}
	if _, err := ParseToken(token, testSecret); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for zero user id, got %v", err)
	}
}

func TestParseBearer(t *testing.T) {
	token, err := CreateToken(Identity{UserID: 5}, testSecret, time.Hour)
	if err != nil {
		t.Fatalf("CreateToken: %v", err)
	}

	parsed, err := ParseBearer("Bearer "+token, testSecret)
	if err != nil {
		t.Fatalf("ParseBearer: %v", err)
	}
	if parsed.UserID != 5 {
		t.Fatalf("expected user 5, got %d", parsed.UserID)
	}

	// Scheme-less headers parse too.
	if _, err := ParseBearer(token, testSecret); err != nil {
		t.Fatalf("ParseBearer without scheme: %v", err)
	}

	if _, err := ParseBearer("", testSecret); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for empty header, got %v", err)
	}
}

func TestIdentityKey(t *testing.T) {
	if got := (Identity{UserID: 42}).Key(); got != "u:42" {
		t.Fatalf("expected u:42, got %q", got)
	}
}
