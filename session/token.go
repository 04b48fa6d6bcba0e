package session

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenPair is what the API issues on login, registration and refresh.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// Claims are the parts of a token the client cares about.
type Claims struct {
	Subject   string
	ExpiresAt time.Time
}

// ErrOpaqueToken is returned by Inspect for tokens that are not JWTs.
var ErrOpaqueToken = errors.New("session: token is not a JWT")

// Inspect reads the claims of a JWT without verifying its signature.
// The client never holds the signing key; the server remains the authority.
func Inspect(raw string) (Claims, error) {
	var rc jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(raw, &rc); err != nil {
		return Claims{}, errors.Join(ErrOpaqueToken, err)
	}
	c := Claims{Subject: rc.Subject}
	if rc.ExpiresAt != nil {
		c.ExpiresAt = rc.ExpiresAt.Time
	}
	return c, nil
}

// lifetime returns how long a token should be kept: the policy TTL, shortened to the
// token's own expiry when it carries one. A non-positive result means already expired.
func lifetime(raw string, policy time.Duration, now time.Time) time.Duration {
	claims, err := Inspect(raw)
	if err != nil || claims.ExpiresAt.IsZero() {
		return policy
	}
	if left := claims.ExpiresAt.Sub(now); left < policy {
		return left
	}
	return policy
}
