// Package access authenticates inbound callers. Identities arrive as
// HS256 bearer tokens issued by the account service; the engine only
// needs the identity to key rate limits and to scope provider lookups.
package access

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrTokenExpired is returned when the token has expired.
	ErrTokenExpired = errors.New("token expired")
	// ErrInvalidToken is returned when the token is invalid for any reason.
	ErrInvalidToken = errors.New("invalid token")
)

// Claims is the JWT payload carried by caller tokens.
type Claims struct {
	jwt.RegisteredClaims
	UserID         uint64 `json:"user_id"`
	OrganizationID uint64 `json:"organization_id"`
	ProjectMode    string `json:"project_mode,omitempty"`
}

// Identity is the authenticated caller.
type Identity struct {
	UserID         uint64
	OrganizationID uint64
	ProjectMode    string
}

// Key returns the rate-limit identity key for the caller.
func (i Identity) Key() string {
	return "u:" + strconv.FormatUint(i.UserID, 10)
}

// CreateToken signs a caller token. Used by provisioning and tests.
func CreateToken(identity Identity, secret string, expiry time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		UserID:         identity.UserID,
		OrganizationID: identity.OrganizationID,
		ProjectMode:    identity.ProjectMode,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParseToken validates a bearer token and extracts the caller identity.
func ParseToken(tokenString, secret string) (Identity, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(_ *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Identity{}, ErrTokenExpired
		}
		return Identity{}, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == 0 {
		return Identity{}, ErrInvalidToken
	}
	return Identity{
		UserID:         claims.UserID,
		OrganizationID: claims.OrganizationID,
		ProjectMode:    strings.TrimSpace(claims.ProjectMode),
	}, nil
}

// ParseBearer strips the Bearer scheme and validates the token.
func ParseBearer(header, secret string) (Identity, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return Identity{}, ErrInvalidToken
	}
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		header = strings.TrimSpace(header[7:])
	}
	return ParseToken(header, secret)
}
