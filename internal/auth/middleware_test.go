package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLookup struct {
	ids map[string]Identity
	err error
}

func (f fakeLookup) Lookup(_ context.Context, token string) (Identity, error) {
	if f.err != nil {
		return Identity{}, f.err
	}
	id, ok := f.ids[token]
	if !ok {
		return Identity{}, ErrNoSession
	}
	return id, nil
}

func newGuard() *Guard {
	return &Guard{
		Sessions: fakeLookup{ids: map[string]Identity{"good": {ID: "a1", Email: "owner@petalandstem.example"}}},
		Cookie:   "admin_session",
		TTL:      time.Hour,
	}
}

func TestRequireAPI(t *testing.T) {
	g := newGuard()
	called := false
	h := g.RequireAPI(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		id, ok := FromContext(r.Context())
		require.True(t, ok)
		assert.Equal(t, "a1", id.ID)
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name   string
		setup  func(*http.Request)
		status int
		called bool
	}{
		{"no credentials", func(*http.Request) {}, http.StatusUnauthorized, false},
		{"unknown cookie", func(r *http.Request) { r.AddCookie(&http.Cookie{Name: "admin_session", Value: "stale"}) }, http.StatusUnauthorized, false},
		{"cookie", func(r *http.Request) { r.AddCookie(&http.Cookie{Name: "admin_session", Value: "good"}) }, http.StatusNoContent, true},
		{"bearer", func(r *http.Request) { r.Header.Set("Authorization", "Bearer good") }, http.StatusNoContent, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called = false
			req := httptest.NewRequest(http.MethodDelete, "/api/admin/coupons/x", nil)
			tt.setup(req)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.called, called)
			if tt.status == http.StatusUnauthorized {
				assert.JSONEq(t, `{"error":"unauthorized"}`, rec.Body.String())
			}
		})
	}
}

func TestRequirePageRedirects(t *testing.T) {
	g := newGuard()
	h := g.RequirePage(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/admin/products?page=2", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/admin/login?next=%2Fadmin%2Fproducts%3Fpage%3D2", rec.Header().Get("Location"))
}

func TestGuardReportsStoreErrors(t *testing.T) {
	var reported error
	g := &Guard{
		Sessions: fakeLookup{err: errors.New("redis down")},
		Cookie:   "admin_session",
		OnError:  func(_ *http.Request, err error) { reported = err },
	}
	req := httptest.NewRequest(http.MethodGet, "/api/admin/me", nil)
	req.AddCookie(&http.Cookie{Name: "admin_session", Value: "good"})
	rec := httptest.NewRecorder()
	g.RequireAPI(http.NotFoundHandler()).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.EqualError(t, reported, "redis down")
}

func TestCookies(t *testing.T) {
	g := newGuard()
	rec := httptest.NewRecorder()
	g.SetCookie(rec, "tok")
	c := rec.Result().Cookies()
	require.Len(t, c, 1)
	assert.Equal(t, "tok", c[0].Value)
	assert.True(t, c[0].HttpOnly)
	assert.Equal(t, 3600, c[0].MaxAge)

	rec = httptest.NewRecorder()
	g.ClearCookie(rec)
	c = rec.Result().Cookies()
	require.Len(t, c, 1)
	assert.Equal(t, -1, c[0].MaxAge)
}

func TestSafeNext(t *testing.T) {
	assert.Equal(t, "/admin/blog", SafeNext("/admin/blog"))
	assert.Equal(t, "/admin", SafeNext("https://evil.example"))
	assert.Equal(t, "/admin", SafeNext("//evil.example"))
	assert.Equal(t, "/admin", SafeNext(""))
}
