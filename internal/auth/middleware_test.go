package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/petnice/clinic-dashboard/internal/domain"
)

type stubRestorer struct {
	identity *domain.Identity
	seen     []string
}

func (s *stubRestorer) Restore(_ context.Context, sid string) *Principal {
	s.seen = append(s.seen, sid)
	p := &Principal{SessionID: sid}
	if sid != "" && s.identity != nil {
		p.Token = "tok"
		p.Identity = s.identity
	}
	return p
}

func newGuardedApp(restorer Restorer) *fiber.App {
	app := fiber.New()
	app.Use(NewSessionMiddleware(restorer, "vet_session").Handle)
	app.Get("/", func(c *fiber.Ctx) error { return c.SendString("login") })
	app.Get("/owners", RequireSession("/"), func(c *fiber.Ctx) error {
		p, _ := PrincipalFromContext(c)
		return c.SendString("owners for " + p.Identity.DisplayName())
	})
	app.Post("/owners/:id", RequireSession("/"), func(c *fiber.Ctx) error {
		return c.SendString("updated")
	})
	return app
}

func TestRequireSession_RedirectsOnceToLogin(t *testing.T) {
	restorer := &stubRestorer{}
	app := newGuardedApp(restorer)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/owners?q=ana", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusSeeOther)
	}
	location := resp.Header.Get("Location")
	if location != "/?next=%2Fowners%3Fq%3Dana" {
		t.Errorf("Location = %q, want login with next", location)
	}

	// following the redirect lands on a public page, so there is no second hop
	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("login status = %d, want 200", resp.StatusCode)
	}
}

func TestRequireSession_AllowsAuthenticated(t *testing.T) {
	restorer := &stubRestorer{identity: &domain.Identity{ID: "u1", Name: "Vet", Role: domain.Role("RECEPTION")}}
	app := newGuardedApp(restorer)

	req := httptest.NewRequest(http.MethodGet, "/owners", nil)
	req.AddCookie(&http.Cookie{Name: "vet_session", Value: "sid-1"})
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200 regardless of role", resp.StatusCode)
	}
	if len(restorer.seen) != 1 || restorer.seen[0] != "sid-1" {
		t.Errorf("restored sessions = %v, want [sid-1]", restorer.seen)
	}
}

func TestRequireSession_WithoutRestore(t *testing.T) {
	app := fiber.New()
	app.Get("/secret", RequireSession("/"), func(c *fiber.Ctx) error { return c.SendString("secret") })

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/secret", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != http.StatusSeeOther {
		t.Errorf("status = %d, want redirect when no principal was restored", resp.StatusCode)
	}
}

func TestSafeNext(t *testing.T) {
	tests := map[string]string{
		"/owners":             "/owners",
		"/patients?edit=p1":   "/patients?edit=p1",
		"//evil.example.com":  "",
		"https://evil.com/x":  "",
		"/\\evil.example.com": "",
		"":                    "",
	}
	for in, want := range tests {
		if got := SafeNext(in); got != want {
			t.Errorf("SafeNext(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestRequireSession_FormSubmissionDropsNext(t *testing.T) {
	app := newGuardedApp(&stubRestorer{})

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/owners/o1", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusSeeOther)
	}
	if location := resp.Header.Get("Location"); location != "/" {
		t.Errorf("Location = %q, want plain login without next", location)
	}
}
