package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/petnice/clinic-dashboard/internal/api/http/views"
	"github.com/petnice/clinic-dashboard/internal/auth"
)

// Card links the dashboard to a screen.
type Card struct {
	Name  string
	Title string
}

// DashboardHandler renders the landing page after sign-in.
type DashboardHandler struct {
	cards []Card
}

func NewDashboardHandler(cards []Card) *DashboardHandler {
	return &DashboardHandler{cards: cards}
}

// Show handles GET /dashboard.
func (h *DashboardHandler) Show(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromContext(c)
	return c.Render("dashboard", fiber.Map{
		"Title": "Dashboard",
		"User":  principal.Identity,
		"Cards": h.cards,
	}, views.Layout)
}
