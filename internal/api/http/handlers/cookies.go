package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

// SessionCookie writes the browser cookie holding the session id. It has no expiry, so
// it lives as long as the browser session; the token behind it expires on its own.
type SessionCookie struct {
	Name   string
	Secure bool
}

// Set stores sid in the cookie.
func (s SessionCookie) Set(c *fiber.Ctx, sid string) {
	c.Cookie(&fiber.Cookie{
		Name:     s.Name,
		Value:    sid,
		Path:     "/",
		HTTPOnly: true,
		Secure:   s.Secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

// Clear expires the cookie.
func (s SessionCookie) Clear(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     s.Name,
		Value:    "",
		Path:     "/",
		HTTPOnly: true,
		Secure:   s.Secure,
		SameSite: fiber.CookieSameSiteLaxMode,
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
	})
}
