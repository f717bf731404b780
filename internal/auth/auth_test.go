package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func sessionCookie(t *testing.T, p Principal) *http.Cookie {
	t.Helper()
	rec := httptest.NewRecorder()
	CreateSession(rec, p)
	for _, c := range rec.Result().Cookies() {
		if c.Name == "session" {
			return c
		}
	}
	t.Fatal("no session cookie set")
	return nil
}

func TestSessionRoundTrip(t *testing.T) {
	for _, p := range []Principal{
		{Kind: PrincipalStaff, ID: 3},
		{Kind: PrincipalCustomer, ID: 42},
	} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(sessionCookie(t, p))
		got, ok := ParseSession(req)
		if !ok {
			t.Fatalf("session for %v did not parse", p)
		}
		if got != p {
			t.Fatalf("parsed %v, want %v", got, p)
		}
	}
}

func TestTamperedSessionIsRejected(t *testing.T) {
	c := sessionCookie(t, Principal{Kind: PrincipalCustomer, ID: 7})

	// Upgrade attempt: rewrite the kind but keep the signature.
	forged := strings.Replace(c.Value, string(PrincipalCustomer), string(PrincipalStaff), 1)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "session", Value: forged})
	if _, ok := ParseSession(req); ok {
		t.Fatal("forged kind accepted")
	}

	// Id swap with the original signature.
	forged = strings.Replace(c.Value, "-7.", "-8.", 1)
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "session", Value: forged})
	if _, ok := ParseSession(req); ok {
		t.Fatal("forged id accepted")
	}

	// Garbage.
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "session", Value: "lixo"})
	if _, ok := ParseSession(req); ok {
		t.Fatal("garbage accepted")
	}
}

func TestRequireStaffRejectsCustomerSession(t *testing.T) {
	inner := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := Middleware(RequireStaff(inner))

	req := httptest.NewRequest(http.MethodGet, "/clientes", nil)
	req.Header.Set("Accept", "application/json")
	req.AddCookie(sessionCookie(t, Principal{Kind: PrincipalCustomer, ID: 5}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("customer on staff route: status %d, want 401", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/clientes", nil)
	req.AddCookie(sessionCookie(t, Principal{Kind: PrincipalStaff, ID: 1}))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("staff on staff route: status %d, want 200", rec.Code)
	}
}

func TestRequireCustomerRedirectsAnonymousToPortalLogin(t *testing.T) {
	inner := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := Middleware(RequireCustomer(inner))

	req := httptest.NewRequest(http.MethodGet, "/portal", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status %d, want 303", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/login-cliente" {
		t.Fatalf("redirect to %q, want /login-cliente", loc)
	}
}

func TestVerifierRejectsDeletedPrincipal(t *testing.T) {
	SetVerifier(func(_ context.Context, _ Principal) bool { return false })
	t.Cleanup(func() { SetVerifier(nil) })

	inner := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := Middleware(RequireStaff(inner))

	req := httptest.NewRequest(http.MethodGet, "/clientes", nil)
	req.Header.Set("Accept", "application/json")
	req.AddCookie(sessionCookie(t, Principal{Kind: PrincipalStaff, ID: 1}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status %d, want 401 when the account no longer exists", rec.Code)
	}
}
