package auth

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"
)

// The application has two disjoint principal kinds sharing one session
// mechanism: staff users and portal customers. The cookie payload carries
// the kind next to the id so a customer session can never be replayed
// against a staff route.

type PrincipalKind string

const (
	PrincipalStaff    PrincipalKind = "staff"
	PrincipalCustomer PrincipalKind = "cliente"
)

// Principal identifies the authenticated caller.
type Principal struct {
	Kind PrincipalKind
	ID   uint
}

func (p Principal) IsStaff() bool    { return p.Kind == PrincipalStaff }
func (p Principal) IsCustomer() bool { return p.Kind == PrincipalCustomer }

type ctxKey string

const (
	sessionCookieName = "session"
	principalCtxKey   = ctxKey("principal")
)

// Verifier is an optional callback to validate that a session's principal
// still exists. Set it during app bootstrap via SetVerifier. If nil, no
// extra verification is performed.
type Verifier func(ctx context.Context, p Principal) bool

var verifier Verifier

// SetVerifier configures the global verifier used by the Require* middlewares.
func SetVerifier(v Verifier) { verifier = v }

// Secret returns SESSION_SECRET or a default dev value.
func Secret() string {
	if s := os.Getenv("SESSION_SECRET"); s != "" {
		return s
	}
	return "devsessionsecret"
}

func payload(p Principal) string {
	return string(p.Kind) + "-" + strconv.FormatUint(uint64(p.ID), 10)
}

func sign(msg string) string {
	mac := hmac.New(sha256.New, []byte(Secret()))
	mac.Write([]byte(msg))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// CreateSession sets a signed cookie identifying the principal.
func CreateSession(w http.ResponseWriter, p Principal) {
	msg := payload(p)
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    msg + "." + sign(msg),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(14 * 24 * time.Hour),
	})
}

// ClearSession deletes the session cookie.
func ClearSession(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{Name: sessionCookieName, Value: "", Path: "/", Expires: time.Unix(0, 0), HttpOnly: true, SameSite: http.SameSiteLaxMode})
}

// ParseSession validates the cookie and returns the principal it names.
func ParseSession(r *http.Request) (Principal, bool) {
	c, err := r.Cookie(sessionCookieName)
	if err != nil || c.Value == "" {
		return Principal{}, false
	}
	dot := strings.LastIndex(c.Value, ".")
	if dot < 0 {
		return Principal{}, false
	}
	msg, sig := c.Value[:dot], c.Value[dot+1:]
	if !hmac.Equal([]byte(sig), []byte(sign(msg))) {
		return Principal{}, false
	}
	dash := strings.LastIndex(msg, "-")
	if dash < 0 {
		return Principal{}, false
	}
	id64, err := strconv.ParseUint(msg[dash+1:], 10, 64)
	if err != nil {
		return Principal{}, false
	}
	switch kind := PrincipalKind(msg[:dash]); kind {
	case PrincipalStaff, PrincipalCustomer:
		return Principal{Kind: kind, ID: uint(id64)}, true
	}
	return Principal{}, false
}

// WithPrincipal stores the principal in the context.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalCtxKey, p)
}

// PrincipalFromContext extracts the principal.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalCtxKey).(Principal)
	return p, ok
}

// Middleware attaches the principal to the request context if present.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if p, ok := ParseSession(r); ok {
			r = r.WithContext(WithPrincipal(r.Context(), p))
		}
		next.ServeHTTP(w, r)
	})
}

// RequireStaff admits only authenticated staff principals; others get a 401
// JSON error or a redirect to the staff login page.
func RequireStaff(next http.Handler) http.Handler {
	return require(next, PrincipalStaff, "/login")
}

// RequireCustomer admits only authenticated customer principals; others get
// a 401 JSON error or a redirect to the portal login page.
func RequireCustomer(next http.Handler) http.Handler {
	return require(next, PrincipalCustomer, "/login-cliente")
}

func require(next http.Handler, kind PrincipalKind, loginPath string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := PrincipalFromContext(r.Context())
		if !ok || p.Kind != kind {
			deny(w, r, loginPath)
			return
		}
		if verifier != nil && !verifier(r.Context(), p) {
			// Session refers to a deleted account: clear and treat as unauthorized.
			ClearSession(w)
			deny(w, r, loginPath)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func deny(w http.ResponseWriter, r *http.Request, loginPath string) {
	accept := r.Header.Get("Accept")
	if strings.Contains(accept, "application/json") && !strings.Contains(accept, "text/html") {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":"unauthorized"}`)
		return
	}
	http.Redirect(w, r, loginPath, http.StatusSeeOther)
}
