package httpx

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/petalandstem/storefront/internal/redisx"
	"github.com/petalandstem/storefront/internal/shop"
)

func TestPagesRedirectToLogin(t *testing.T) {
	h := newHarness(t)
	tests := []struct {
		path string
		want string
	}{
		{"/admin", "/admin/login?next=%2Fadmin"},
		{"/admin/products", "/admin/login?next=%2Fadmin%2Fproducts"},
		{"/admin/blog/new", "/admin/login?next=%2Fadmin%2Fblog%2Fnew"},
		{"/admin/banners/new", "/admin/login?next=%2Fadmin%2Fbanners%2Fnew"},
		{"/admin/orders?page=2", "/admin/login?next=%2Fadmin%2Forders%3Fpage%3D2"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := h.do(http.MethodGet, tt.path, "", "")
			assert.Equal(t, http.StatusSeeOther, rec.Code)
			assert.Equal(t, tt.want, rec.Header().Get("Location"))
		})
	}
	assert.Zero(t, h.spy.count(""))
}

func TestProductsPage(t *testing.T) {
	h := newHarness(t)
	rec := h.do(http.MethodGet, "/admin/products", "", h.session())
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))

	body := rec.Body.String()
	assert.Contains(t, body, "Blush Peonies")
	assert.Contains(t, body, "1499.00")
	assert.Contains(t, body, "peony, rose")
	assert.Contains(t, body, "2026-09-01T10:00:00Z")
	assert.Contains(t, body, `href="/admin/products/`+validID+`/edit"`)
	assert.Contains(t, body, "owner@petalandstem.example")
}

func TestOrdersPageHasNoDelete(t *testing.T) {
	h := newHarness(t)
	_, _, err := h.orders.Place(context.Background(), shop.PlaceOrderInput{ExternalID: "cart-9", Name: "Ravi"})
	require.NoError(t, err)

	rec := h.do(http.MethodGet, "/admin/orders", "", h.session())
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "cart-9")
	assert.NotContains(t, rec.Body.String(), `data-delete="/api/admin/orders`)
}

func TestListPagesCarryStatusSelect(t *testing.T) {
	h := newHarness(t)
	_, _, err := h.orders.Place(context.Background(), shop.PlaceOrderInput{ExternalID: "cart-9", Name: "Ravi"})
	require.NoError(t, err)
	h.inquiry.items = []shop.Inquiry{{ID: validID, Name: "Meera", Status: "contacted"}}
	token := h.session()

	t.Run("orders", func(t *testing.T) {
		rec := h.do(http.MethodGet, "/admin/orders", "", token)
		require.Equal(t, http.StatusOK, rec.Code)
		body := rec.Body.String()
		assert.Contains(t, body, `<select data-status="/api/admin/orders/`+orderID+`/status">`)
		assert.Contains(t, body, `<option value="pending" selected>pending</option>`)
		assert.Contains(t, body, `<option value="out-for-delivery">out-for-delivery</option>`)
		assert.NotContains(t, body, `href="/admin/orders/new"`)
	})
	t.Run("inquiries", func(t *testing.T) {
		rec := h.do(http.MethodGet, "/admin/inquiries", "", token)
		require.Equal(t, http.StatusOK, rec.Code)
		body := rec.Body.String()
		assert.Contains(t, body, `<select data-status="/api/admin/inquiries/`+validID+`">`)
		assert.Contains(t, body, `<option value="contacted" selected>contacted</option>`)
		assert.Contains(t, body, `href="/admin/inquiries/`+validID+`/edit"`)
		assert.NotContains(t, body, `href="/admin/inquiries/new"`)
	})
	t.Run("select patches the status endpoint", func(t *testing.T) {
		h.orders.statuses[orderID] = shop.StatusPending
		rec := h.do(http.MethodPatch, "/api/admin/orders/"+orderID+"/status", `{"status":"confirmed"}`, token)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, shop.StatusConfirmed, h.orders.statuses[orderID])
	})
}

func TestResourceForms(t *testing.T) {
	h := newHarness(t)
	token := h.session()

	t.Run("list links to new form", func(t *testing.T) {
		rec := h.do(http.MethodGet, "/admin/banners", "", token)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `href="/admin/banners/new"`)
	})
	t.Run("new banner posts to the collection", func(t *testing.T) {
		rec := h.do(http.MethodGet, "/admin/banners/new", "", token)
		require.Equal(t, http.StatusOK, rec.Code)
		body := rec.Body.String()
		assert.Contains(t, body, `data-api="/api/admin/banners" data-method="POST" data-next="/admin/banners"`)
		assert.Contains(t, body, `name="title"`)
		assert.Contains(t, body, `<input id="isActive" name="isActive" type="checkbox" checked>`)
		assert.Zero(t, h.spy.count("banners.Get"))
	})
	t.Run("edit coupon patches the record", func(t *testing.T) {
		until := time.Date(2026, 12, 31, 18, 30, 0, 0, time.UTC)
		h.coupons.one = shop.Coupon{
			ID: validID, Code: "WELCOME10", DiscountType: shop.DiscountPercentage,
			DiscountValue: decimal.RequireFromString("10"), ValidUntil: &until,
		}
		rec := h.do(http.MethodGet, "/admin/coupons/"+validID+"/edit", "", token)
		require.Equal(t, http.StatusOK, rec.Code)
		body := rec.Body.String()
		assert.Contains(t, body, "Edit WELCOME10")
		assert.Contains(t, body, `data-api="/api/admin/coupons/`+validID+`" data-method="PATCH"`)
		assert.NotContains(t, body, `name="code"`)
		assert.Contains(t, body, `<option value="percentage" selected>percentage</option>`)
		assert.NotContains(t, body, "(none)")
		assert.Contains(t, body, `value="2026-12-31T18:30" data-kind="time"`)
		assert.Equal(t, 1, h.spy.count("coupons.Get"))
	})
	t.Run("new coupon asks for a code", func(t *testing.T) {
		rec := h.do(http.MethodGet, "/admin/coupons/new", "", token)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `name="code"`)
	})
	t.Run("bad id", func(t *testing.T) {
		rec := h.do(http.MethodGet, "/admin/pincodes/not-a-uuid/edit", "", token)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Zero(t, h.spy.count("pincodes.Get"))
	})
	t.Run("missing record", func(t *testing.T) {
		h.inquiry.err = shop.ErrNotFound
		rec := h.do(http.MethodGet, "/admin/inquiries/"+validID+"/edit", "", token)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestProductFormBadID(t *testing.T) {
	h := newHarness(t)
	rec := h.do(http.MethodGet, "/admin/products/not-a-uuid/edit", "", h.session())
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Zero(t, h.spy.count("products.Get"))
}

func TestDashboardShowsActivity(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, redisx.PushFeed(context.Background(), h.rdb, redisx.Activity{
		EventID:    "e1",
		Kind:       "order.placed",
		Summary:    "Order cart-9 placed by Ravi",
		OccurredAt: time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC),
	}))

	rec := h.do(http.MethodGet, "/admin", "", h.session())
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Order cart-9 placed by Ravi")
	assert.Contains(t, rec.Body.String(), "2026-10-17T09:00:00Z")
}

func postForm(h *harness, path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)
	return rec
}

func TestLoginForm(t *testing.T) {
	h := newHarness(t)

	rec := h.do(http.MethodGet, "/admin/login?next=/admin/coupons", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `value="/admin/coupons"`)

	rec = postForm(h, "/admin/login", url.Values{"email": {"owner@petalandstem.example"}, "password": {"wrong"}, "next": {"/admin/coupons"}})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid email or password.")
	assert.Empty(t, rec.Result().Cookies())

	rec = postForm(h, "/admin/login", url.Values{"email": {"owner@petalandstem.example"}, "password": {"correct-horse"}, "next": {"https://evil.example"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/admin", rec.Header().Get("Location"))
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "admin_session", cookies[0].Name)
	assert.Equal(t, "tok-login", cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)
}

func TestLogoutForm(t *testing.T) {
	h := newHarness(t)
	rec := h.do(http.MethodPost, "/admin/logout", "", h.session())
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/admin/login", rec.Header().Get("Location"))
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, -1, cookies[0].MaxAge)
}
