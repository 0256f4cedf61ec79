package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// SessionLookup is satisfied by *SessionStore.
type SessionLookup interface {
	Lookup(ctx context.Context, token string) (Identity, error)
}

// Guard resolves the request's session and gates admin routes.
type Guard struct {
	Sessions SessionLookup
	Cookie   string
	Secure   bool
	TTL      time.Duration
	OnError  func(r *http.Request, err error)
}

const LoginPath = "/admin/login"

// Token reads the session token from the cookie, falling back to a bearer header.
func (g *Guard) Token(r *http.Request) string {
	if c, err := r.Cookie(g.Cookie); err == nil && c.Value != "" {
		return c.Value
	}
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	return ""
}

func (g *Guard) Authenticate(r *http.Request) (Identity, error) {
	token := g.Token(r)
	if token == "" {
		return Identity{}, ErrNoSession
	}
	return g.Sessions.Lookup(r.Context(), token)
}

// RequireAPI answers 401 unless the request carries a live session.
func (g *Guard) RequireAPI(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := g.Authenticate(r)
		if err != nil {
			g.report(r, err)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "unauthorized"})
			return
		}
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
	})
}

// RequirePage redirects to the login page, remembering where the visitor was going.
func (g *Guard) RequirePage(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := g.Authenticate(r)
		if err != nil {
			g.report(r, err)
			http.Redirect(w, r, LoginPath+"?next="+url.QueryEscape(r.URL.RequestURI()), http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
	})
}

func (g *Guard) report(r *http.Request, err error) {
	if g.OnError != nil && !errors.Is(err, ErrNoSession) {
		g.OnError(r, err)
	}
}

func (g *Guard) SetCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     g.Cookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(g.TTL.Seconds()),
		HttpOnly: true,
		Secure:   g.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (g *Guard) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     g.Cookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   g.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// SafeNext keeps post-login redirects on this site's admin pages.
func SafeNext(next string) string {
	if strings.HasPrefix(next, "/admin") && !strings.HasPrefix(next, "//") && !strings.Contains(next, "\\") {
		return next
	}
	return "/admin"
}
