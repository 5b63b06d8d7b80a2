package http

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/petnice/clinic-dashboard/internal/api/http/handlers"
	"github.com/petnice/clinic-dashboard/internal/api/http/views"
	"github.com/petnice/clinic-dashboard/internal/auth"
	"github.com/petnice/clinic-dashboard/internal/auth/authtest"
	"github.com/petnice/clinic-dashboard/internal/clinicapi"
	"github.com/petnice/clinic-dashboard/internal/config"
	"github.com/petnice/clinic-dashboard/internal/events"
	"github.com/petnice/clinic-dashboard/internal/observability"
	"github.com/petnice/clinic-dashboard/internal/repository"
	"github.com/petnice/clinic-dashboard/internal/service"
	"github.com/petnice/clinic-dashboard/internal/session"
)

const testCookie = "vet_session"

// fakeClinic serves the login endpoint and the record collections.
type fakeClinic struct {
	mu          sync.Mutex
	token       string
	loginUser   map[string]any
	loginStatus int
	collections map[string][]map[string]any
	status      map[string]int
	delay       map[string]time.Duration
	calls       []string
	bodies      map[string]map[string]any
}

func (f *fakeClinic) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	call := r.Method + " " + r.URL.Path
	var body map[string]any
	_ = json.NewDecoder(r.Body).Decode(&body)

	f.mu.Lock()
	f.calls = append(f.calls, call)
	if body != nil {
		f.bodies[call] = body
	}
	delay := f.delay[r.URL.Path]
	status := f.status[r.URL.Path]
	f.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-r.Context().Done():
			return
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")

	if r.URL.Path == "/api/auth/login" {
		if f.loginStatus != 0 && f.loginStatus != http.StatusOK {
			w.WriteHeader(f.loginStatus)
			_ = json.NewEncoder(w).Encode(map[string]string{"msg": "invalid credentials"})
			return
		}
		response := map[string]any{"token": f.token}
		if f.loginUser != nil {
			response["user"] = f.loginUser
		}
		_ = json.NewEncoder(w).Encode(response)
		return
	}

	if status != 0 && status != http.StatusOK {
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(map[string]string{})
		return
	}
	if records, ok := f.collections[r.URL.Path]; ok && r.Method == http.MethodGet {
		_ = json.NewEncoder(w).Encode(records)
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]string{"msg": "ok"})
}

func (f *fakeClinic) set(fn func(f *fakeClinic)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f)
}

func (f *fakeClinic) called(call string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.calls {
		if c == call {
			return true
		}
	}
	return false
}

func (f *fakeClinic) body(call string) map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.bodies[call]
}

type harness struct {
	app    *fiber.App
	clinic *fakeClinic
	sid    string
}

func newHarness(t *testing.T, loginPerMinute int) *harness {
	return newHarnessWithTimeout(t, loginPerMinute, 0)
}

func newHarnessWithTimeout(t *testing.T, loginPerMinute int, requestTimeout time.Duration) *harness {
	t.Helper()
	clinic := &fakeClinic{
		token: authtest.NewToken(t, "u1", "Vet Ana", "vet@example.com", "STAFF", time.Now().Add(time.Hour)),
		collections: map[string][]map[string]any{
			repository.OwnersPath: {
				{"_id": "o1", "first_name": "Ana", "last_name": "Ruiz", "email": "ana@example.com"},
				{"_id": "o2", "first_name": "Bob", "last_name": "Stone"},
			},
			repository.PatientsPath: {
				{"_id": "p1", "name": "Luna", "species": "Cat", "owner": "o1"},
			},
		},
		status: map[string]int{},
		delay:  map[string]time.Duration{},
		bodies: map[string]map[string]any{},
	}
	server := httptest.NewServer(clinic)
	t.Cleanup(server.Close)

	logger := zap.NewNop()
	metrics := observability.NewMetrics()
	decoder := auth.NewTokenDecoder("")
	store := session.NewStore(session.NewMemoryBackend(), decoder, logger)
	dispatcher := events.NewInMemoryDispatcher()
	client := clinicapi.New(config.ClinicAPIConfig{BaseURL: server.URL}, metrics, logger)

	authService := service.NewAuthService(service.AuthDependencies{
		API:        client,
		Sessions:   store,
		Decoder:    decoder,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	cookie := handlers.SessionCookie{Name: testCookie}
	screens := handlers.NewScreens(handlers.ScreenServices{
		Owners:         service.NewRecordService(repository.NewOwnerRepository(client), dispatcher, logger),
		Patients:       service.NewRecordService(repository.NewPatientRepository(client), dispatcher, logger),
		Appointments:   service.NewRecordService(repository.NewAppointmentRepository(client), dispatcher, logger),
		MedicalRecords: service.NewRecordService(repository.NewMedicalRecordRepository(client), dispatcher, logger),
		Users:          service.NewRecordService(repository.NewUserRepository(client), dispatcher, logger),
	}, handlers.ScreenDeps{Auth: authService, Cookie: cookie, Logger: logger})

	app := fiber.New(fiber.Config{Views: views.NewEngine()})
	RegisterMiddlewares(app, logger, metrics, requestTimeout)
	RegisterRoutes(app, RouteConfig{
		Health:         handlers.NewHealthHandler("petnice-dashboard", "test", nil),
		Auth:           handlers.NewAuthHandler(authService, cookie),
		Dashboard:      handlers.NewDashboardHandler(screens.Cards()),
		Screens:        screens,
		Session:        auth.NewSessionMiddleware(authService, testCookie),
		Metrics:        metrics.Handler(),
		LoginPerMinute: loginPerMinute,
	})
	return &harness{app: app, clinic: clinic}
}

func (h *harness) do(t *testing.T, method, target string, form url.Values) (*http.Response, string) {
	t.Helper()
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if h.sid != "" {
		req.AddCookie(&http.Cookie{Name: testCookie, Value: h.sid})
	}
	resp, err := h.app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, target, err)
	}
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	return resp, string(body)
}

func (h *harness) login(t *testing.T) {
	t.Helper()
	resp, _ := h.do(t, http.MethodPost, "/login", url.Values{"email": {"vet@example.com"}, "password": {"secret"}})
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("login status = %d, want 303", resp.StatusCode)
	}
	for _, c := range resp.Cookies() {
		if c.Name == testCookie {
			h.sid = c.Value
		}
	}
	if h.sid == "" {
		t.Fatal("login did not set the session cookie")
	}
}

func TestGuard_RedirectsOnceToLogin(t *testing.T) {
	h := newHarness(t, 0)

	resp, _ := h.do(t, http.MethodGet, "/owners?q=ana", nil)
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303", resp.StatusCode)
	}
	location := resp.Header.Get("Location")
	if location != "/?next="+url.QueryEscape("/owners?q=ana") {
		t.Fatalf("Location = %q", location)
	}
	if h.clinic.called("GET " + repository.OwnersPath) {
		t.Error("protected screen fetched data before the guard redirect")
	}

	resp, body := h.do(t, http.MethodGet, location, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login page status = %d, want 200", resp.StatusCode)
	}
	if !strings.Contains(body, `value="/owners?q=ana"`) {
		t.Error("login form does not carry the requested path")
	}
}

func TestLogin_RedirectsToNextAndAuthenticates(t *testing.T) {
	h := newHarness(t, 0)

	resp, _ := h.do(t, http.MethodPost, "/login", url.Values{
		"email": {"vet@example.com"}, "password": {"secret"}, "next": {"/owners"},
	})
	if resp.StatusCode != http.StatusSeeOther || resp.Header.Get("Location") != "/owners" {
		t.Fatalf("got %d %q, want 303 /owners", resp.StatusCode, resp.Header.Get("Location"))
	}
	for _, c := range resp.Cookies() {
		if c.Name == testCookie {
			h.sid = c.Value
		}
	}

	resp, body := h.do(t, http.MethodGet, "/dashboard", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("dashboard status = %d, want 200", resp.StatusCode)
	}
	if !strings.Contains(body, "Welcome, Vet Ana") {
		t.Error("dashboard does not greet the signed-in user")
	}

	resp, _ = h.do(t, http.MethodGet, "/", nil)
	if resp.StatusCode != http.StatusSeeOther || resp.Header.Get("Location") != "/dashboard" {
		t.Errorf("login page while signed in: got %d %q", resp.StatusCode, resp.Header.Get("Location"))
	}
}

func TestLogin_ExternalNextIsIgnored(t *testing.T) {
	h := newHarness(t, 0)
	resp, _ := h.do(t, http.MethodPost, "/login", url.Values{
		"email": {"vet@example.com"}, "password": {"secret"}, "next": {"//evil.example.com"},
	})
	if resp.Header.Get("Location") != "/dashboard" {
		t.Errorf("Location = %q, want /dashboard", resp.Header.Get("Location"))
	}
}

func TestLogin_RejectedShowsServerMessage(t *testing.T) {
	h := newHarness(t, 0)
	h.clinic.set(func(f *fakeClinic) { f.loginStatus = http.StatusUnauthorized })

	resp, body := h.do(t, http.MethodPost, "/login", url.Values{"email": {"vet@example.com"}, "password": {"bad"}})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
	if !strings.Contains(body, "invalid credentials") {
		t.Error("server message not shown")
	}
	if len(resp.Cookies()) != 0 {
		t.Error("rejected login set a cookie")
	}
}

func TestLogout_ClearsSession(t *testing.T) {
	h := newHarness(t, 0)
	h.login(t)

	resp, _ := h.do(t, http.MethodPost, "/logout", nil)
	if resp.StatusCode != http.StatusSeeOther || resp.Header.Get("Location") != "/" {
		t.Fatalf("got %d %q, want 303 /", resp.StatusCode, resp.Header.Get("Location"))
	}

	resp, _ = h.do(t, http.MethodGet, "/dashboard", nil)
	if resp.StatusCode != http.StatusSeeOther {
		t.Errorf("dashboard after logout: status = %d, want 303", resp.StatusCode)
	}
}

func TestOwners_ListFiltersAndPrefillsEdit(t *testing.T) {
	h := newHarness(t, 0)
	h.login(t)

	resp, body := h.do(t, http.MethodGet, "/owners?q=RUIZ", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if !strings.Contains(body, "Ana Ruiz") || strings.Contains(body, "Bob Stone") {
		t.Error("filter did not narrow the list to Ana Ruiz")
	}

	_, body = h.do(t, http.MethodGet, "/owners?edit=o2", nil)
	if !strings.Contains(body, `value="Stone"`) || !strings.Contains(body, `action="/owners/o2"`) {
		t.Error("edit form not prefilled for o2")
	}
}

func TestOwners_CreateValidationKeepsInput(t *testing.T) {
	h := newHarness(t, 0)
	h.login(t)

	resp, body := h.do(t, http.MethodPost, "/owners", url.Values{"first_name": {""}, "last_name": {"Ruiz"}})
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", resp.StatusCode)
	}
	if !strings.Contains(body, `value="Ruiz"`) {
		t.Error("entered value lost on re-render")
	}
	if h.clinic.called("POST " + repository.OwnersPath) {
		t.Error("invalid form was sent to the clinic API")
	}
}

func TestOwners_CreateAndUpdate(t *testing.T) {
	h := newHarness(t, 0)
	h.login(t)

	resp, _ := h.do(t, http.MethodPost, "/owners", url.Values{"first_name": {"Eva"}, "last_name": {"Diaz"}})
	if resp.StatusCode != http.StatusSeeOther || resp.Header.Get("Location") != "/owners" {
		t.Fatalf("create: got %d %q", resp.StatusCode, resp.Header.Get("Location"))
	}
	if !h.clinic.called("POST " + repository.OwnersPath) {
		t.Fatal("create not sent")
	}

	resp, _ = h.do(t, http.MethodPost, "/owners/o1", url.Values{"first_name": {"Ana"}, "last_name": {"Ruiz Lopez"}})
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("update status = %d, want 303", resp.StatusCode)
	}
	if !h.clinic.called("PUT " + repository.OwnersPath + "/o1") {
		t.Error("update not sent to the item path")
	}
}

func TestOwners_DeleteNeedsConfirmation(t *testing.T) {
	h := newHarness(t, 0)
	h.login(t)
	h.do(t, http.MethodGet, "/owners", nil)

	resp, body := h.do(t, http.MethodGet, "/owners/o1/delete", nil)
	if resp.StatusCode != http.StatusOK || !strings.Contains(body, "Ana Ruiz") {
		t.Fatalf("confirmation page: status %d", resp.StatusCode)
	}

	resp, _ = h.do(t, http.MethodPost, "/owners/o1/delete", url.Values{})
	if resp.StatusCode != http.StatusSeeOther || resp.Header.Get("Location") != "/owners/o1/delete" {
		t.Fatalf("unconfirmed: got %d %q", resp.StatusCode, resp.Header.Get("Location"))
	}
	if h.clinic.called("DELETE " + repository.OwnersPath + "/o1") {
		t.Fatal("delete sent without confirmation")
	}

	resp, _ = h.do(t, http.MethodPost, "/owners/o1/delete", url.Values{"confirm": {"yes"}})
	if resp.StatusCode != http.StatusSeeOther || resp.Header.Get("Location") != "/owners" {
		t.Fatalf("confirmed: got %d %q", resp.StatusCode, resp.Header.Get("Location"))
	}
	if !h.clinic.called("DELETE " + repository.OwnersPath + "/o1") {
		t.Error("confirmed delete not sent")
	}
}

func TestOwners_FetchFailureKeepsLastList(t *testing.T) {
	h := newHarness(t, 0)
	h.login(t)
	h.do(t, http.MethodGet, "/owners", nil)

	h.clinic.set(func(f *fakeClinic) { f.status[repository.OwnersPath] = http.StatusInternalServerError })
	resp, body := h.do(t, http.MethodGet, "/owners", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if !strings.Contains(body, "the clinic service failed") {
		t.Error("error banner missing")
	}
	if !strings.Contains(body, "Ana Ruiz") {
		t.Error("last successful list not shown")
	}
}

func TestOwners_RejectedTokenEndsSession(t *testing.T) {
	h := newHarness(t, 0)
	h.login(t)
	h.clinic.set(func(f *fakeClinic) { f.status[repository.OwnersPath] = http.StatusUnauthorized })

	resp, _ := h.do(t, http.MethodGet, "/owners", nil)
	if resp.StatusCode != http.StatusSeeOther || !strings.HasPrefix(resp.Header.Get("Location"), "/?next=") {
		t.Fatalf("got %d %q, want redirect to login", resp.StatusCode, resp.Header.Get("Location"))
	}

	resp, _ = h.do(t, http.MethodGet, "/dashboard", nil)
	if resp.StatusCode != http.StatusSeeOther {
		t.Errorf("session still valid after rejection: status %d", resp.StatusCode)
	}
}

func TestUnknownRoute(t *testing.T) {
	h := newHarness(t, 0)
	h.login(t)

	resp, body := h.do(t, http.MethodGet, "/nope", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
	if !strings.Contains(body, "page not found") {
		t.Error("error page missing message")
	}
}

func TestLoginLimiter(t *testing.T) {
	h := newHarness(t, 2)
	h.clinic.set(func(f *fakeClinic) { f.loginStatus = http.StatusUnauthorized })

	form := url.Values{"email": {"vet@example.com"}, "password": {"bad"}}
	for i := 0; i < 2; i++ {
		if resp, _ := h.do(t, http.MethodPost, "/login", form); resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("attempt %d: status = %d, want 401", i+1, resp.StatusCode)
		}
	}
	if resp, _ := h.do(t, http.MethodPost, "/login", form); resp.StatusCode != http.StatusTooManyRequests {
		t.Errorf("status = %d, want 429", resp.StatusCode)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	h := newHarness(t, 0)

	if resp, _ := h.do(t, http.MethodGet, "/health/live", nil); resp.StatusCode != http.StatusOK {
		t.Errorf("live status = %d", resp.StatusCode)
	}
	if resp, _ := h.do(t, http.MethodGet, "/health/ready", nil); resp.StatusCode != http.StatusOK {
		t.Errorf("ready status = %d", resp.StatusCode)
	}
	resp, body := h.do(t, http.MethodGet, "/metrics", nil)
	if resp.StatusCode != http.StatusOK || !strings.Contains(body, "http_requests_total") {
		t.Errorf("metrics: status %d", resp.StatusCode)
	}
}

func TestDashboard_GreetsWithLoginProfileName(t *testing.T) {
	h := newHarness(t, 0)
	h.clinic.set(func(f *fakeClinic) {
		f.token = authtest.NewToken(t, "u1", "", "vet@example.com", "STAFF", time.Now().Add(time.Hour))
		f.loginUser = map[string]any{"name": "Vet"}
	})
	h.login(t)

	resp, body := h.do(t, http.MethodGet, "/dashboard", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if !strings.Contains(body, "Welcome, Vet</h1>") {
		t.Error("dashboard does not greet with the name from the login response")
	}
}

func TestOwners_LateResultsAreDiscarded(t *testing.T) {
	h := newHarnessWithTimeout(t, 0, 50*time.Millisecond)
	h.login(t)
	h.clinic.set(func(f *fakeClinic) { f.delay[repository.OwnersPath] = 500 * time.Millisecond })

	resp, body := h.do(t, http.MethodGet, "/owners", nil)
	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", resp.StatusCode)
	}
	if strings.Contains(body, "Ana Ruiz") {
		t.Error("late list rendered after the request ended")
	}

	// nothing was cached, so a failing fetch has no list to fall back to
	h.clinic.set(func(f *fakeClinic) {
		delete(f.delay, repository.OwnersPath)
		f.status[repository.OwnersPath] = http.StatusInternalServerError
	})
	_, body = h.do(t, http.MethodGet, "/owners", nil)
	if strings.Contains(body, "Ana Ruiz") || strings.Contains(body, "Showing the last list") {
		t.Error("list from the abandoned request was kept")
	}
}

func TestPatients_LookupFailureKeepsLastList(t *testing.T) {
	h := newHarness(t, 0)
	h.login(t)

	resp, body := h.do(t, http.MethodGet, "/patients", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if !strings.Contains(body, "Luna") || !strings.Contains(body, `<option value="o1"`) {
		t.Fatal("patients list or owner options missing")
	}
	if !strings.Contains(body, "<td>Ana Ruiz</td>") {
		t.Error("owner id not resolved through the lookup")
	}

	h.clinic.set(func(f *fakeClinic) { f.status[repository.OwnersPath] = http.StatusInternalServerError })
	resp, body = h.do(t, http.MethodGet, "/patients", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if !strings.Contains(body, "the clinic service failed") {
		t.Error("lookup failure did not raise the banner")
	}
	if !strings.Contains(body, "Luna") || !strings.Contains(body, "Showing the last list") {
		t.Error("last patients list not shown after the lookup failed")
	}
}

func TestPatients_CreatePayload(t *testing.T) {
	h := newHarness(t, 0)
	h.login(t)

	resp, _ := h.do(t, http.MethodPost, "/patients", url.Values{
		"name":       {"Milo"},
		"species":    {"Dog"},
		"sex":        {"M"},
		"birth_date": {"2020-05-01"},
		"weight_kg":  {"12.5"},
		"owner":      {"o2"},
	})
	if resp.StatusCode != http.StatusSeeOther || resp.Header.Get("Location") != "/patients" {
		t.Fatalf("got %d %q, want 303 /patients", resp.StatusCode, resp.Header.Get("Location"))
	}

	body := h.clinic.body("POST " + repository.PatientsPath)
	if body == nil {
		t.Fatal("create not sent")
	}
	if body["owner"] != "o2" {
		t.Errorf("owner = %v, want o2", body["owner"])
	}
	if body["weight_kg"] != 12.5 {
		t.Errorf("weight_kg = %#v, want number 12.5", body["weight_kg"])
	}
	if body["birth_date"] != "2020-05-01T00:00:00Z" {
		t.Errorf("birth_date = %v, want RFC 3339", body["birth_date"])
	}
	if body["sex"] != "M" {
		t.Errorf("sex = %v, want M", body["sex"])
	}
}

func TestPatients_CreateWithoutOwnerIsRejected(t *testing.T) {
	h := newHarness(t, 0)
	h.login(t)

	resp, body := h.do(t, http.MethodPost, "/patients", url.Values{"name": {"Milo"}, "species": {"Dog"}})
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", resp.StatusCode)
	}
	if !strings.Contains(body, `value="Milo"`) {
		t.Error("entered name lost on re-render")
	}
	if h.clinic.called("POST " + repository.PatientsPath) {
		t.Error("patient without owner was sent to the clinic API")
	}
}
