package client

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// unverifiedParser only reads claims, it never checks the signature.
// The client has no signing secret: local decode is used to estimate expiry,
// never to authorize anything. Authorization happens server-side.
var unverifiedParser = jwt.NewParser(jwt.WithoutClaimsValidation())

// decodeExpiry extracts the exp claim without verifying the signature.
// Returns zero time for malformed tokens or tokens without exp, which
// callers treat as already expired.
func decodeExpiry(token string) time.Time {
	claims := jwt.MapClaims{}
	if _, _, err := unverifiedParser.ParseUnverified(token, claims); err != nil {
		return time.Time{}
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}

// expired compares against wall clock, boundary counts as expired
func expired(expiresAt time.Time, now time.Time) bool {
	return expiresAt.IsZero() || !now.Before(expiresAt)
}
