package auth

import (
	"context"
	"net/url"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/petnice/clinic-dashboard/internal/domain"
)

const principalKey = "auth_principal"

// Principal is the restored auth context of one request.
type Principal struct {
	SessionID string
	// Token is the stored clinic API token, empty when unauthenticated.
	Token string
	domain.AuthState
}

// Restorer rebuilds a principal from the session store.
type Restorer interface {
	Restore(ctx context.Context, sessionID string) *Principal
}

// SessionMiddleware restores the auth state before any guard runs.
type SessionMiddleware struct {
	restorer   Restorer
	cookieName string
}

// NewSessionMiddleware constructs middleware reading the session id from cookieName.
func NewSessionMiddleware(restorer Restorer, cookieName string) *SessionMiddleware {
	return &SessionMiddleware{restorer: restorer, cookieName: cookieName}
}

// Handle restores the principal and stores it in the request locals.
func (m *SessionMiddleware) Handle(c *fiber.Ctx) error {
	sid := c.Cookies(m.cookieName)
	principal := m.restorer.Restore(c.UserContext(), sid)
	if principal == nil {
		principal = &Principal{SessionID: sid}
	}
	c.Locals(principalKey, principal)
	return c.Next()
}

// RequireSession redirects unauthenticated requests to loginPath. For GET requests the
// requested path travels in `next`; form submissions have no page to return to. Any
// authenticated identity passes, whatever its role.
func RequireSession(loginPath string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if principal, ok := PrincipalFromContext(c); ok && principal.IsAuthenticated() {
			return c.Next()
		}
		target := loginPath
		if next := SafeNext(c.OriginalURL()); c.Method() == fiber.MethodGet && next != "" && next != loginPath {
			target += "?next=" + url.QueryEscape(next)
		}
		return c.Redirect(target, fiber.StatusSeeOther)
	}
}

// PrincipalFromContext retrieves the restored principal.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok && principal != nil
}

// SafeNext returns path when it is a local absolute path, otherwise "".
func SafeNext(path string) string {
	if !strings.HasPrefix(path, "/") || strings.HasPrefix(path, "//") || strings.HasPrefix(path, "/\\") {
		return ""
	}
	return path
}
