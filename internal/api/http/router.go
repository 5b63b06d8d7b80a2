package http

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/petnice/clinic-dashboard/internal/api/http/handlers"
	"github.com/petnice/clinic-dashboard/internal/auth"
	apperrors "github.com/petnice/clinic-dashboard/pkg/util"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Dashboard      *handlers.DashboardHandler
	Screens        *handlers.Screens
	Session        *auth.SessionMiddleware
	Metrics        http.Handler
	LoginPerMinute int
}

// RegisterRoutes wires HTTP routes. Probes and metrics skip the session restore; every
// other route sees a restored principal before the guard runs.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(cfg.Metrics))
	}

	app.Use(cfg.Session.Handle)

	app.Get(handlers.LoginPath, cfg.Auth.LoginPage)
	app.Post("/login", loginLimiter(cfg.LoginPerMinute), cfg.Auth.Login)
	app.Get("/register", cfg.Auth.RegisterPage)
	app.Post("/register", loginLimiter(cfg.LoginPerMinute), cfg.Auth.Register)
	app.Post("/logout", cfg.Auth.Logout)

	protected := app.Group("", auth.RequireSession(handlers.LoginPath))
	protected.Get(handlers.DashboardPath, cfg.Dashboard.Show)
	cfg.Screens.Register(protected)

	app.Use(notFound)
}

// loginLimiter throttles credential submissions per client address.
func loginLimiter(perMinute int) fiber.Handler {
	if perMinute <= 0 {
		return func(c *fiber.Ctx) error { return c.Next() }
	}
	return limiter.New(limiter.Config{
		Max:        perMinute,
		Expiration: time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP() + c.Path()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return apperrors.NewDomainError("RATE_LIMITED", "too many attempts, try again in a minute", fiber.StatusTooManyRequests, nil)
		},
	})
}
