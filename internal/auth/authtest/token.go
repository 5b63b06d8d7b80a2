// Package authtest mints clinic API tokens for tests.
package authtest

import (
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

// Secret signs every token minted by NewToken.
const Secret = "test-clinic-secret"

// NewToken signs an HS256 token with the given profile and expiry. Empty profile fields
// are left out of the claims.
func NewToken(tb testing.TB, id, name, email, role string, expiresAt time.Time) string {
	tb.Helper()
	claims := jwt.MapClaims{
		"exp": expiresAt.Unix(),
		"iat": time.Now().Unix(),
	}
	for key, value := range map[string]string{"id": id, "sub": id, "name": name, "email": email, "role": role} {
		if value != "" {
			claims[key] = value
		}
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(Secret))
	if err != nil {
		tb.Fatalf("sign test token: %v", err)
	}
	return token
}
