package auth

import (
	"errors"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/petnice/clinic-dashboard/internal/domain"
)

var (
	// ErrMalformedToken is returned when a token cannot be decoded into claims.
	ErrMalformedToken = errors.New("malformed session token")
	// ErrMissingExpiry is returned for tokens without an exp claim.
	ErrMissingExpiry = errors.New("session token has no expiry")
)

// Claims describes the JWT payload issued by the clinic API.
type Claims struct {
	UserID   string      `json:"id,omitempty"`
	MongoID  string      `json:"_id,omitempty"`
	Name     string      `json:"name,omitempty"`
	FullName string      `json:"full_name,omitempty"`
	Email    string      `json:"email,omitempty"`
	Role     domain.Role `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// Expiry returns the exp claim, zero when absent.
func (c *Claims) Expiry() time.Time {
	if c == nil || c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}

// Identity projects the claims for display and the authenticated predicate.
func (c *Claims) Identity() *domain.Identity {
	id := c.UserID
	if id == "" {
		id = c.MongoID
	}
	if id == "" {
		id = c.Subject
	}
	name := c.Name
	if name == "" {
		name = c.FullName
	}
	return &domain.Identity{
		ID:        id,
		Name:      name,
		Email:     c.Email,
		Role:      domain.Role(strings.ToUpper(string(c.Role))),
		ExpiresAt: c.Expiry(),
	}
}

// TokenDecoder turns session tokens into claims. Expiry is not judged here.
type TokenDecoder struct {
	secret []byte
	parser *jwt.Parser
}

// NewTokenDecoder builds a decoder. With an empty secret the token is treated as
// opaque and its claims are read without signature verification.
func NewTokenDecoder(secret string) *TokenDecoder {
	return &TokenDecoder{
		secret: []byte(secret),
		parser: jwt.NewParser(jwt.WithoutClaimsValidation()),
	}
}

// Verifies reports whether signatures are checked.
func (d *TokenDecoder) Verifies() bool {
	return len(d.secret) > 0
}

// Decode validates the token structure and returns its claims.
func (d *TokenDecoder) Decode(tokenStr string) (*Claims, error) {
	tokenStr = strings.TrimSpace(tokenStr)
	if tokenStr == "" {
		return nil, ErrMalformedToken
	}

	claims := &Claims{}
	if d.Verifies() {
		parsed, err := d.parser.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
			if token.Method != jwt.SigningMethodHS256 {
				return nil, errors.New("unexpected signing method")
			}
			return d.secret, nil
		})
		if err != nil || !parsed.Valid {
			return nil, errors.Join(ErrMalformedToken, err)
		}
	} else {
		if _, _, err := d.parser.ParseUnverified(tokenStr, claims); err != nil {
			return nil, errors.Join(ErrMalformedToken, err)
		}
	}

	if claims.ExpiresAt == nil {
		return nil, ErrMissingExpiry
	}
	return claims, nil
}
