package client

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenPair is the access/refresh token pair returned by the auth endpoints
type TokenPair struct {
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

// tokenValid reports whether the token carries an exp claim in the future.
// The signature is not verified here; the server is the authority on
// validity and this check only gates client-side session state. A missing
// or malformed token is simply invalid, never an error.
func tokenValid(tokenString string, now time.Time) bool {
	if tokenString == "" {
		return false
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, claims); err != nil {
		return false
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}

	return now.Before(exp.Time)
}
