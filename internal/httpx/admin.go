package httpx

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/petalandstem/storefront/internal/auth"
	"github.com/petalandstem/storefront/internal/redisx"
	"github.com/petalandstem/storefront/internal/shop"
)

func (s *Server) mountAdminAPI(r chi.Router) {
	r.Post("/login", s.login)
	r.Post("/logout", s.logout)

	r.Group(func(r chi.Router) {
		r.Use(s.Guard.RequireAPI)

		r.Get("/me", s.me)
		r.Post("/change-password", s.changePassword)
		r.Get("/activity", s.activity)

		mountCRUD[shop.Banner, shop.BannerInput, shop.BannerPatch](r, s, "/banners", s.Stores.Banners,
			crudOpts{invalidates: []string{cacheBanners}})
		mountCRUD[shop.BlogPost, shop.BlogInput, shop.BlogPatch](r, s, "/blog", s.Stores.Blog, crudOpts{})
		mountCRUD[shop.Collection, shop.CollectionInput, shop.CollectionPatch](r, s, "/categories", s.Stores.Categories,
			crudOpts{invalidates: []string{cacheCategories}})
		mountCRUD[shop.Coupon, shop.CouponInput, shop.CouponPatch](r, s, "/coupons", s.Stores.Coupons, crudOpts{})
		mountCRUD[shop.Inquiry, shop.InquiryInput, shop.InquiryPatch](r, s, "/inquiries", s.Stores.Inquiries,
			crudOpts{noCreate: true})
		mountCRUD[shop.Collection, shop.CollectionInput, shop.CollectionPatch](r, s, "/occasions", s.Stores.Occasions,
			crudOpts{invalidates: []string{cacheOccasions}})
		mountCRUD[shop.Pincode, shop.PincodeInput, shop.PincodePatch](r, s, "/pincodes", s.Stores.Pincodes, crudOpts{})
		mountCRUD[shop.Product, shop.ProductInput, shop.ProductPatch](r, s, "/products", s.Stores.Products, crudOpts{})
		mountCRUD[shop.Subscriber, shop.SubscriberInput, shop.SubscriberPatch](r, s, "/subscribers", s.Stores.Subscribers,
			crudOpts{noCreate: true})
		mountCRUD[shop.Testimonial, shop.TestimonialInput, shop.TestimonialPatch](r, s, "/testimonials", s.Stores.Testimonials,
			crudOpts{invalidates: []string{cacheTestimonials}})

		r.Get("/orders", s.listOrders)
		r.Get("/orders/{id}", s.getOrder)
		r.Patch("/orders/{id}/status", s.updateOrderStatus)
	})
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResp struct {
	Token string        `json:"token"`
	Admin auth.Identity `json:"admin"`
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req loginReq
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		writeMessage(w, http.StatusBadRequest, "email and password are required")
		return
	}
	ctx, cancel := storeCtx(r)
	defer cancel()

	token, id, err := s.Auth.Login(ctx, req.Email, req.Password)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.Guard.SetCookie(w, token)
	writeJSON(w, http.StatusOK, loginResp{Token: token, Admin: id})
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := storeCtx(r)
	defer cancel()

	if err := s.Auth.Logout(ctx, s.Guard.Token(r)); err != nil {
		s.fail(w, r, err)
		return
	}
	s.Guard.ClearCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())
	writeJSON(w, http.StatusOK, id)
}

type changePasswordReq struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

func (s *Server) changePassword(w http.ResponseWriter, r *http.Request) {
	var req changePasswordReq
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	if req.CurrentPassword == "" || req.NewPassword == "" {
		writeMessage(w, http.StatusBadRequest, "currentPassword and newPassword are required")
		return
	}
	id, ok := auth.FromContext(r.Context())
	if !ok {
		writeMessage(w, http.StatusNotFound, "not found")
		return
	}
	ctx, cancel := storeCtx(r)
	defer cancel()

	if err := s.Auth.ChangePassword(ctx, id.ID, req.CurrentPassword, req.NewPassword); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "password updated"})
}

func (s *Server) activity(w http.ResponseWriter, r *http.Request) {
	if s.Redis == nil {
		writeJSON(w, http.StatusOK, []redisx.Activity{})
		return
	}
	ctx, cancel := storeCtx(r)
	defer cancel()

	feed, err := redisx.ReadFeed(ctx, s.Redis, queryInt(r, "limit"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, feed)
}

func (s *Server) listOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := storeCtx(r)
	defer cancel()

	orders, err := s.Stores.Orders.List(ctx)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

func (s *Server) getOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeMessage(w, http.StatusNotFound, "not found")
		return
	}
	ctx, cancel := storeCtx(r)
	defer cancel()

	o, err := s.Stores.Orders.Get(ctx, id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

type statusReq struct {
	Status string `json:"status"`
}

type statusResp struct {
	ID       string      `json:"id"`
	Status   shop.Status `json:"status"`
	Previous shop.Status `json:"previous"`
}

// updateOrderStatus accepts any of the seven statuses from any other; only
// membership is checked.
func (s *Server) updateOrderStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		writeMessage(w, http.StatusNotFound, "not found")
		return
	}
	var req statusReq
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	next, err := shop.ParseStatus(req.Status)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	ctx, cancel := storeCtx(r)
	defer cancel()

	prev, err := s.Stores.Orders.UpdateStatus(ctx, id, string(next))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.Events.OrderStatusChanged(ctx, id, prev, next)
	writeJSON(w, http.StatusOK, statusResp{ID: id, Status: next, Previous: prev})
}
