package auth

import (
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/petnice/clinic-dashboard/internal/domain"
)

const testSecret = "test-clinic-secret"

func signedToken(t *testing.T, id, name, email, role string, expiresAt time.Time) string {
	t.Helper()
	claims := &Claims{
		UserID: id,
		Name:   name,
		Email:  email,
		Role:   domain.Role(role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}
