package httpx

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/petalandstem/storefront/internal/redisx"
	"github.com/petalandstem/storefront/internal/shop"
)

// Public cache entries. Admin writes to the matching resource drop them.
const (
	cacheOccasions    = "occasions"
	cacheCategories   = "categories"
	cacheTestimonials = "testimonials"
	cacheBanners      = "banners"
)

func (s *Server) mountPublic(r chi.Router) {
	r.Get("/occasions", cachedList(s, cacheOccasions, s.Stores.Occasions.ListActive))
	r.Get("/categories", cachedList(s, cacheCategories, s.Stores.Categories.ListActive))
	r.Get("/testimonials", cachedList(s, cacheTestimonials, s.Stores.Testimonials.ListActive))
	r.Get("/banners", cachedList(s, cacheBanners, s.Stores.Banners.ListActive))

	r.Get("/products", s.listProducts)
	r.Get("/products/{slug}", s.getProduct)
	r.Get("/blog", s.listBlog)
	r.Get("/blog/{slug}", s.getBlogPost)
	r.Get("/pincodes/{code}", s.checkPincode)
}

func cachedList[T any](s *Server, resource string, load func(context.Context) ([]T, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := storeCtx(r)
		defer cancel()

		items, err := redisx.Remember(ctx, s.Cache, resource, load)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, items)
	}
}

func queryBool(r *http.Request, key string) bool {
	b, _ := strconv.ParseBool(r.URL.Query().Get(key))
	return b
}

// queryInt returns 0 for a missing or malformed value so the store default applies.
func queryInt(r *http.Request, key string) int {
	n, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil {
		return 0
	}
	return n
}

func (s *Server) listProducts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := storeCtx(r)
	defer cancel()

	q := r.URL.Query()
	items, err := s.Stores.Products.ListPublic(ctx, shop.ProductFilter{
		Category: q.Get("category"),
		Occasion: q.Get("occasion"),
		Featured: queryBool(r, "featured"),
		Limit:    queryInt(r, "limit"),
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) getProduct(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := storeCtx(r)
	defer cancel()

	p, err := s.Stores.Products.GetBySlug(ctx, chi.URLParam(r, "slug"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) listBlog(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := storeCtx(r)
	defer cancel()

	posts, err := s.Stores.Blog.ListPublished(ctx, shop.BlogFilter{
		Category: r.URL.Query().Get("category"),
		Featured: queryBool(r, "featured"),
		Limit:    queryInt(r, "limit"),
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, posts)
}

func (s *Server) getBlogPost(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := storeCtx(r)
	defer cancel()

	post, err := s.Stores.Blog.GetPublishedBySlug(ctx, chi.URLParam(r, "slug"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

type deliverability struct {
	Code        string           `json:"code"`
	Deliverable bool             `json:"deliverable"`
	City        string           `json:"city,omitempty"`
	DeliveryFee *decimal.Decimal `json:"deliveryFee,omitempty"`
}

func (s *Server) checkPincode(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := storeCtx(r)
	defer cancel()

	code := shop.NormalizePostal(chi.URLParam(r, "code"))
	p, err := s.Stores.Pincodes.Lookup(ctx, code)
	if errors.Is(err, shop.ErrNotFound) {
		writeJSON(w, http.StatusOK, deliverability{Code: code})
		return
	}
	if err != nil {
		s.fail(w, r, err)
		return
	}
	fee := p.DeliveryFee
	writeJSON(w, http.StatusOK, deliverability{Code: p.Code, Deliverable: true, City: p.City, DeliveryFee: &fee})
}
