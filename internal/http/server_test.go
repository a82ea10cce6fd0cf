package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"finsight/internal/advisor"
	"finsight/internal/identity"
	"finsight/internal/middleware/ratelimit"
	"finsight/internal/services"
	"finsight/internal/store"
)

type fakeGenerator struct {
	response string
	err      error
	prompts  []string
}

func (g *fakeGenerator) Generate(_ context.Context, prompt string) (string, error) {
	g.prompts = append(g.prompts, prompt)
	if g.err != nil {
		return "", g.err
	}
	return g.response, nil
}

func newTestServer(t *testing.T, generator *fakeGenerator) *Server {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	if err := identity.RunMigrations(dbPath); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}
	users, err := identity.NewUserStore(dbPath)
	if err != nil {
		t.Fatalf("failed to open user store: %v", err)
	}
	t.Cleanup(func() { users.Close() })

	tokens := identity.NewTokenManager("0123456789abcdef0123456789abcdef", time.Hour)
	idsvc := identity.NewService(users, tokens, nil)

	finance := services.NewFinanceService(store.NewStateStore(t.TempDir(), nil), nil, nil)

	// A typed nil must not reach the server, or the nil checks on the
	// generator would pass while calls panic.
	var gen advisor.Generator
	if generator != nil {
		gen = generator
	}

	srv, err := NewServer(Config{Port: "0", RateLimit: ratelimit.Config{RequestsPerMinute: 1000}}, finance, idsvc, gen, nil)
	if err != nil {
		t.Fatalf("failed to build server: %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	})
	return srv
}

func postForm(t *testing.T, srv *Server, path string, form url.Values, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	srv.Server.Handler.ServeHTTP(rec, req)
	return rec
}

func get(t *testing.T, srv *Server, path string, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	srv.Server.Handler.ServeHTTP(rec, req)
	return rec
}

// registerUser creates an account and returns its session cookie.
func registerUser(t *testing.T, srv *Server) *http.Cookie {
	t.Helper()
	rec := postForm(t, srv, "/register", url.Values{
		"email":    {"user@example.com"},
		"password": {"password123"},
	}, nil)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("register returned status %d, want %d", rec.Code, http.StatusSeeOther)
	}
	for _, c := range rec.Result().Cookies() {
		if c.Name == sessionCookieName && c.Value != "" {
			return c
		}
	}
	t.Fatal("register did not set a session cookie")
	return nil
}

func TestAuthFlow(t *testing.T) {
	srv := newTestServer(t, nil)
	cookie := registerUser(t, srv)

	rec := get(t, srv, "/financial", cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("authenticated /financial returned %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Financial Management") {
		t.Error("financial page missing heading")
	}

	rec = postForm(t, srv, "/login", url.Values{
		"email":    {"user@example.com"},
		"password": {"password123"},
	}, nil)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("login returned %d, want 303", rec.Code)
	}

	rec = postForm(t, srv, "/login", url.Values{
		"email":    {"user@example.com"},
		"password": {"wrong-password"},
	}, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad login returned %d, want 401", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "invalid email or password") {
		t.Error("bad login response missing error message")
	}
}

func TestRegisterValidation(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := postForm(t, srv, "/register", url.Values{
		"email":    {"user@example.com"},
		"password": {"short"},
	}, nil)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("weak password returned %d, want 422", rec.Code)
	}

	registerUser(t, srv)
	rec = postForm(t, srv, "/register", url.Values{
		"email":    {"user@example.com"},
		"password": {"password123"},
	}, nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("duplicate email returned %d, want 409", rec.Code)
	}
}

func TestProtectedRoutesRedirectToLogin(t *testing.T) {
	srv := newTestServer(t, nil)

	for _, path := range []string{"/financial", "/advisory", "/fraud-detection"} {
		rec := get(t, srv, path, nil)
		if rec.Code != http.StatusSeeOther {
			t.Errorf("%s without session returned %d, want 303", path, rec.Code)
		}
		if loc := rec.Header().Get("Location"); loc != "/login" {
			t.Errorf("%s redirected to %q, want /login", path, loc)
		}
	}
}

func TestCatchAllRouting(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := get(t, srv, "/no-such-page", nil)
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/login" {
		t.Fatalf("unknown path returned %d -> %q, want 303 -> /login", rec.Code, rec.Header().Get("Location"))
	}

	cookie := registerUser(t, srv)
	rec = get(t, srv, "/no-such-page", cookie)
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/financial" {
		t.Fatalf("unknown path with session returned %d -> %q, want 303 -> /financial", rec.Code, rec.Header().Get("Location"))
	}
}

func TestExpenseLifecycle(t *testing.T) {
	srv := newTestServer(t, nil)
	cookie := registerUser(t, srv)

	rec := postForm(t, srv, "/financial/expenses", url.Values{
		"category": {"Groceries"},
		"amount":   {"250.50"},
	}, cookie)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("add expense returned %d, want 303", rec.Code)
	}

	rec = get(t, srv, "/financial", cookie)
	body := rec.Body.String()
	if !strings.Contains(body, "Groceries") || !strings.Contains(body, "250.5") {
		t.Error("financial page missing the added expense")
	}

	rec = postForm(t, srv, "/financial/expenses/delete", url.Values{
		"index": {"0"},
	}, cookie)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("delete expense returned %d, want 303", rec.Code)
	}

	rec = get(t, srv, "/financial", cookie)
	if strings.Contains(rec.Body.String(), "Groceries") {
		t.Error("deleted expense still rendered")
	}
}

func TestMutationValidationErrors(t *testing.T) {
	srv := newTestServer(t, nil)
	cookie := registerUser(t, srv)

	cases := []struct {
		name string
		path string
		form url.Values
	}{
		{"malformed amount", "/financial/expenses", url.Values{"category": {"Food"}, "amount": {"abc"}}},
		{"missing amount", "/financial/expenses", url.Values{"category": {"Food"}}},
		{"non-positive amount", "/financial/expenses", url.Values{"category": {"Food"}, "amount": {"0"}}},
		{"empty category", "/financial/expenses", url.Values{"category": {"  "}, "amount": {"10"}}},
		{"bad bill date", "/financial/bills", url.Values{"description": {"Rent"}, "amount": {"100"}, "dueDate": {"not-a-date"}}},
		{"delete out of range", "/financial/expenses/delete", url.Values{"index": {"5"}}},
		{"delete bad index", "/financial/expenses/delete", url.Values{"index": {"x"}}},
		{"negative income", "/financial/profile", url.Values{"monthlyIncome": {"-1"}, "goalAmount": {"0"}, "currentSavings": {"0"}}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := postForm(t, srv, tc.path, tc.form, cookie)
			if rec.Code != http.StatusUnprocessableEntity {
				t.Errorf("returned %d, want 422", rec.Code)
			}
		})
	}
}

func TestProfileAndDerivedFigures(t *testing.T) {
	srv := newTestServer(t, nil)
	cookie := registerUser(t, srv)

	rec := postForm(t, srv, "/financial/profile", url.Values{
		"monthlyIncome":  {"50000"},
		"goalAmount":     {"100000"},
		"currentSavings": {"10000"},
	}, cookie)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("update profile returned %d, want 303", rec.Code)
	}

	postForm(t, srv, "/financial/expenses", url.Values{"category": {"Food"}, "amount": {"5000"}}, cookie)
	postForm(t, srv, "/financial/expenses", url.Values{"category": {"Rent"}, "amount": {"20000"}}, cookie)

	rec = get(t, srv, "/financial", cookie)
	body := rec.Body.String()
	if !strings.Contains(body, "25000") {
		t.Error("page missing total expenses 25000")
	}
	if !strings.Contains(body, "15000") {
		t.Error("page missing remaining balance 15000")
	}
}

func TestAdvisory(t *testing.T) {
	gen := &fakeGenerator{response: "Spend less on rent."}
	srv := newTestServer(t, gen)
	cookie := registerUser(t, srv)

	postForm(t, srv, "/financial/profile", url.Values{
		"monthlyIncome":  {"50000"},
		"goalAmount":     {"0"},
		"currentSavings": {"0"},
	}, cookie)

	rec := postForm(t, srv, "/advisory", nil, cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("advisory returned %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Spend less on rent.") {
		t.Error("advisory page missing generated advice")
	}
	if len(gen.prompts) != 1 {
		t.Fatalf("generator called %d times, want 1", len(gen.prompts))
	}
	if !strings.Contains(gen.prompts[0], "₹50000") {
		t.Error("prompt missing the profile income")
	}
}

func TestAdvisoryUnavailable(t *testing.T) {
	srv := newTestServer(t, nil)
	cookie := registerUser(t, srv)

	rec := postForm(t, srv, "/advisory", nil, cookie)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("advisory without generator returned %d, want 503", rec.Code)
	}
}

func TestAdvisoryGenerationFailure(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("upstream timeout")}
	srv := newTestServer(t, gen)
	cookie := registerUser(t, srv)

	rec := postForm(t, srv, "/advisory", nil, cookie)
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("failed generation returned %d, want 502", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "could not generate advice") {
		t.Error("failure page missing the displayable error")
	}
}

func TestFraudAssessment(t *testing.T) {
	gen := &fakeGenerator{response: "This looks fraudulent."}
	srv := newTestServer(t, gen)
	cookie := registerUser(t, srv)

	rec := postForm(t, srv, "/fraud-detection", url.Values{
		"amount":             {"15000"},
		"location":           {"Unusual Location"},
		"deviceType":         {"New Phone"},
		"timestamp":          {"2026-08-29 14:30"},
		"ipAddress":          {"203.0.113.7"},
		"cardUsageFrequency": {"High"},
	}, cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("fraud assessment returned %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Risk: high") {
		t.Error("page missing high risk level")
	}
	if !strings.Contains(body, "90") {
		t.Error("page missing score 90")
	}
	if !strings.Contains(body, "This looks fraudulent.") {
		t.Error("page missing generated analysis")
	}
}

func TestFraudWithoutGenerator(t *testing.T) {
	srv := newTestServer(t, nil)
	cookie := registerUser(t, srv)

	rec := postForm(t, srv, "/fraud-detection", url.Values{
		"amount":             {"100"},
		"location":           {"Home"},
		"deviceType":         {"Trusted Device"},
		"cardUsageFrequency": {"Low"},
	}, cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("fraud assessment returned %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Risk: low") {
		t.Error("page missing low risk level")
	}
}

func TestFraudMalformedAmount(t *testing.T) {
	srv := newTestServer(t, nil)
	cookie := registerUser(t, srv)

	rec := postForm(t, srv, "/fraud-detection", url.Values{
		"amount":   {"lots"},
		"location": {"Home"},
	}, cookie)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("malformed amount returned %d, want 422", rec.Code)
	}
}

func TestSecurityHeaders(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := get(t, srv, "/login", nil)
	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q, want nosniff", got)
	}
	if rec.Header().Get("Content-Security-Policy") == "" {
		t.Error("missing Content-Security-Policy header")
	}
}

func TestRateLimitOnWrites(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	if err := identity.RunMigrations(dbPath); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}
	users, err := identity.NewUserStore(dbPath)
	if err != nil {
		t.Fatalf("failed to open user store: %v", err)
	}
	defer users.Close()

	idsvc := identity.NewService(users, identity.NewTokenManager("0123456789abcdef0123456789abcdef", time.Hour), nil)
	finance := services.NewFinanceService(store.NewStateStore(t.TempDir(), nil), nil, nil)

	srv, err := NewServer(Config{Port: "0", RateLimit: ratelimit.Config{RequestsPerMinute: 2}}, finance, idsvc, nil, nil)
	if err != nil {
		t.Fatalf("failed to build server: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	}()

	form := url.Values{"email": {"user@example.com"}, "password": {"bad"}}
	for i := 0; i < 2; i++ {
		postForm(t, srv, "/login", form, nil)
	}
	rec := postForm(t, srv, "/login", form, nil)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("third write returned %d, want 429", rec.Code)
	}

	// Reads are not throttled.
	if rec := get(t, srv, "/login", nil); rec.Code != http.StatusOK {
		t.Fatalf("read after limit returned %d, want 200", rec.Code)
	}
}

func TestHealthEndpoints(t *testing.T) {
	srv := newTestServer(t, nil)

	for _, path := range []string{"/healthz", "/readyz"} {
		rec := get(t, srv, path, nil)
		if rec.Code != http.StatusOK {
			t.Errorf("%s returned %d, want 200", path, rec.Code)
		}
		body, _ := io.ReadAll(rec.Body)
		if !strings.Contains(string(body), "status") {
			t.Errorf("%s body missing status field", path)
		}
	}
}
