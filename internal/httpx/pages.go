package httpx

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/petalandstem/storefront/internal/auth"
	"github.com/petalandstem/storefront/internal/redisx"
	"github.com/petalandstem/storefront/internal/shop"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageTemplates = map[string]*template.Template{
	"login":     mustPage("login.html"),
	"dashboard": mustPage("dashboard.html"),
	"table":     mustPage("table.html"),
	"form":      mustPage("form.html"),
}

func mustPage(name string) *template.Template {
	return template.Must(template.ParseFS(templateFS, "templates/layout.html", "templates/"+name))
}

type page struct {
	Title string
	Admin auth.Identity
}

type loginView struct {
	page
	Email string
	Next  string
	Error string
}

type activityRow struct {
	When    string
	Kind    string
	Summary string
}

type dashboardView struct {
	page
	Activity []activityRow
}

type tableRow struct {
	ID        string
	EditURL   string
	Cells     []string
	Status    string
	StatusURL string
}

type tableView struct {
	page
	API           string
	NewURL        string
	Deletable     bool
	Headers       []string
	Rows          []tableRow
	StatusOptions []string
}

type option struct{ Value, Label string }

type formField struct {
	Name     string
	Label    string
	Type     string // text, number, date, textarea, select, checkbox
	Kind     string // list, number or time for the client-side encoder
	Value    string
	Checked  bool
	Required bool // selects only: no empty option
	Options  []option
}

type formView struct {
	page
	API    string
	Method string
	Next   string
	Fields []formField
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, code int, name string, data any) {
	var buf bytes.Buffer
	if err := pageTemplates[name].ExecuteTemplate(&buf, "layout", data); err != nil {
		s.Log.Error("render page", zap.String("page", name), zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(code)
	_, _ = buf.WriteTo(w)
}

func (s *Server) pageError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, shop.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	s.Log.Error("page failed", zap.String("path", r.URL.Path), zap.Error(err))
	http.Error(w, "internal error", http.StatusInternalServerError)
}

func pageFor(r *http.Request, title string) page {
	id, _ := auth.FromContext(r.Context())
	return page{Title: title, Admin: id}
}

func (s *Server) mountPages(r chi.Router) {
	r.Get("/login", s.loginPage)
	r.Post("/login", s.loginSubmit)
	r.Post("/logout", s.logoutSubmit)

	r.Group(func(r chi.Router) {
		r.Use(s.Guard.RequirePage)

		r.Get("/", s.dashboard)
		r.Get("/banners", listPage(s, "Banners", "/api/admin/banners", "/admin/banners", s.Stores.Banners.List, bannerColumns))
		r.Get("/banners/new", formPage(s, bannerForm, s.Stores.Banners.Get))
		r.Get("/banners/{id}/edit", formPage(s, bannerForm, s.Stores.Banners.Get))
		r.Get("/blog", listPage(s, "Blog", "/api/admin/blog", "/admin/blog", s.Stores.Blog.List, blogColumns))
		r.Get("/blog/new", s.blogForm)
		r.Get("/blog/{id}/edit", s.blogForm)
		r.Get("/categories", listPage(s, "Categories", "/api/admin/categories", "/admin/categories", s.Stores.Categories.List, collectionColumns))
		r.Get("/categories/new", formPage(s, categoryForm, s.Stores.Categories.Get))
		r.Get("/categories/{id}/edit", formPage(s, categoryForm, s.Stores.Categories.Get))
		r.Get("/coupons", listPage(s, "Coupons", "/api/admin/coupons", "/admin/coupons", s.Stores.Coupons.List, couponColumns))
		r.Get("/coupons/new", formPage(s, couponForm, s.Stores.Coupons.Get))
		r.Get("/coupons/{id}/edit", formPage(s, couponForm, s.Stores.Coupons.Get))
		r.Get("/inquiries", listPage(s, "Inquiries", "/api/admin/inquiries", "/admin/inquiries", s.Stores.Inquiries.List, inquiryColumns))
		r.Get("/inquiries/{id}/edit", formPage(s, inquiryForm, s.Stores.Inquiries.Get))
		r.Get("/occasions", listPage(s, "Occasions", "/api/admin/occasions", "/admin/occasions", s.Stores.Occasions.List, collectionColumns))
		r.Get("/occasions/new", formPage(s, occasionForm, s.Stores.Occasions.Get))
		r.Get("/occasions/{id}/edit", formPage(s, occasionForm, s.Stores.Occasions.Get))
		r.Get("/orders", listPage(s, "Orders", "/api/admin/orders", "", s.Stores.Orders.List, orderColumns))
		r.Get("/pincodes", listPage(s, "Pincodes", "/api/admin/pincodes", "/admin/pincodes", s.Stores.Pincodes.List, pincodeColumns))
		r.Get("/pincodes/new", formPage(s, pincodeForm, s.Stores.Pincodes.Get))
		r.Get("/pincodes/{id}/edit", formPage(s, pincodeForm, s.Stores.Pincodes.Get))
		r.Get("/products", listPage(s, "Products", "/api/admin/products", "/admin/products", s.Stores.Products.List, productColumns))
		r.Get("/products/new", s.productForm)
		r.Get("/products/{id}/edit", s.productForm)
		r.Get("/subscribers", listPage(s, "Subscribers", "/api/admin/subscribers", "/admin/subscribers", s.Stores.Subscribers.List, subscriberColumns))
		r.Get("/subscribers/{id}/edit", formPage(s, subscriberForm, s.Stores.Subscribers.Get))
		r.Get("/testimonials", listPage(s, "Testimonials", "/api/admin/testimonials", "/admin/testimonials", s.Stores.Testimonials.List, testimonialColumns))
		r.Get("/testimonials/new", formPage(s, testimonialForm, s.Stores.Testimonials.Get))
		r.Get("/testimonials/{id}/edit", formPage(s, testimonialForm, s.Stores.Testimonials.Get))
	})
}

func (s *Server) loginPage(w http.ResponseWriter, r *http.Request) {
	if _, err := s.Guard.Authenticate(r); err == nil {
		http.Redirect(w, r, auth.SafeNext(r.URL.Query().Get("next")), http.StatusSeeOther)
		return
	}
	s.render(w, r, http.StatusOK, "login", loginView{
		page: page{Title: "Sign in"},
		Next: auth.SafeNext(r.URL.Query().Get("next")),
	})
}

func (s *Server) loginSubmit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	email := strings.TrimSpace(r.PostFormValue("email"))
	next := auth.SafeNext(r.PostFormValue("next"))

	ctx, cancel := storeCtx(r)
	defer cancel()

	token, _, err := s.Auth.Login(ctx, email, r.PostFormValue("password"))
	if err != nil {
		view := loginView{page: page{Title: "Sign in"}, Email: email, Next: next, Error: "Invalid email or password."}
		if !errors.Is(err, auth.ErrInvalidCredentials) {
			s.Log.Error("admin login failed", zap.Error(err))
			view.Error = "Sign in is unavailable right now."
			s.render(w, r, http.StatusInternalServerError, "login", view)
			return
		}
		s.render(w, r, http.StatusUnauthorized, "login", view)
		return
	}
	s.Guard.SetCookie(w, token)
	http.Redirect(w, r, next, http.StatusSeeOther)
}

func (s *Server) logoutSubmit(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := storeCtx(r)
	defer cancel()

	if err := s.Auth.Logout(ctx, s.Guard.Token(r)); err != nil {
		s.Log.Warn("admin logout failed", zap.Error(err))
	}
	s.Guard.ClearCookie(w)
	http.Redirect(w, r, auth.LoginPath, http.StatusSeeOther)
}

func (s *Server) dashboard(w http.ResponseWriter, r *http.Request) {
	view := dashboardView{page: pageFor(r, "Dashboard")}
	if s.Redis != nil {
		ctx, cancel := storeCtx(r)
		defer cancel()
		feed, err := redisx.ReadFeed(ctx, s.Redis, 50)
		if err != nil {
			s.Log.Warn("read activity feed", zap.Error(err))
		}
		for _, a := range feed {
			view.Activity = append(view.Activity, activityRow{When: ts(a.OccurredAt), Kind: a.Kind, Summary: a.Summary})
		}
	}
	s.render(w, r, http.StatusOK, "dashboard", view)
}

// column renders one cell of a list page. Rows reach the template as strings only.
type column[T any] struct {
	title string
	value func(T) string
}

// statusPicker renders an inline status select that PATCHes url(id).
type statusPicker[T any] struct {
	value   func(T) string
	url     func(id string) string
	options []string
}

type listLayout[T any] struct {
	id       func(T) string
	cols     []column[T]
	noDelete bool
	noCreate bool
	status   *statusPicker[T]
}

func listPage[T any](s *Server, title, api, editBase string, load func(context.Context) ([]T, error), layout listLayout[T]) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := storeCtx(r)
		defer cancel()

		items, err := load(ctx)
		if err != nil {
			s.pageError(w, r, err)
			return
		}
		view := tableView{
			page:      pageFor(r, title),
			API:       api,
			Deletable: !layout.noDelete,
			Rows:      make([]tableRow, 0, len(items)),
		}
		if editBase != "" && !layout.noCreate {
			view.NewURL = editBase + "/new"
		}
		for _, c := range layout.cols {
			view.Headers = append(view.Headers, c.title)
		}
		if layout.status != nil {
			view.Headers = append(view.Headers, "Status")
			view.StatusOptions = layout.status.options
		}
		for _, it := range items {
			row := tableRow{ID: layout.id(it)}
			if editBase != "" {
				row.EditURL = editBase + "/" + row.ID + "/edit"
			}
			for _, c := range layout.cols {
				row.Cells = append(row.Cells, c.value(it))
			}
			if layout.status != nil {
				row.Status = layout.status.value(it)
				row.StatusURL = layout.status.url(row.ID)
			}
			view.Rows = append(view.Rows, row)
		}
		s.render(w, r, http.StatusOK, "table", view)
	}
}

func ts(t time.Time) string { return t.UTC().Format(time.RFC3339) }

func tsPtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return ts(*t)
}

func money(d decimal.Decimal) string { return d.StringFixed(2) }

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func intPtr(n *int) string {
	if n == nil {
		return ""
	}
	return strconv.Itoa(*n)
}

var bannerColumns = listLayout[shop.Banner]{
	id: func(b shop.Banner) string { return b.ID },
	cols: []column[shop.Banner]{
		{"Title", func(b shop.Banner) string { return b.Title }},
		{"Image", func(b shop.Banner) string { return b.Image }},
		{"Link", func(b shop.Banner) string { return b.Link }},
		{"Order", func(b shop.Banner) string { return strconv.Itoa(b.Order) }},
		{"Active", func(b shop.Banner) string { return yesNo(b.IsActive) }},
		{"Created", func(b shop.Banner) string { return ts(b.CreatedAt) }},
	},
}

var blogColumns = listLayout[shop.BlogPost]{
	id: func(p shop.BlogPost) string { return p.ID },
	cols: []column[shop.BlogPost]{
		{"Title", func(p shop.BlogPost) string { return p.Title }},
		{"Category", func(p shop.BlogPost) string { return p.Category }},
		{"Author", func(p shop.BlogPost) string { return p.Author }},
		{"Published", func(p shop.BlogPost) string { return yesNo(p.Published) }},
		{"Published at", func(p shop.BlogPost) string { return tsPtr(p.PublishedAt) }},
		{"Featured", func(p shop.BlogPost) string { return yesNo(p.Featured) }},
	},
}

var collectionColumns = listLayout[shop.Collection]{
	id: func(c shop.Collection) string { return c.ID },
	cols: []column[shop.Collection]{
		{"Name", func(c shop.Collection) string { return c.Name }},
		{"Slug", func(c shop.Collection) string { return c.Slug }},
		{"Order", func(c shop.Collection) string { return strconv.Itoa(c.Order) }},
		{"Active", func(c shop.Collection) string { return yesNo(c.IsActive) }},
		{"Updated", func(c shop.Collection) string { return ts(c.UpdatedAt) }},
	},
}

var couponColumns = listLayout[shop.Coupon]{
	id: func(c shop.Coupon) string { return c.ID },
	cols: []column[shop.Coupon]{
		{"Code", func(c shop.Coupon) string { return c.Code }},
		{"Type", func(c shop.Coupon) string { return string(c.DiscountType) }},
		{"Value", func(c shop.Coupon) string { return money(c.DiscountValue) }},
		{"Min order", func(c shop.Coupon) string { return money(c.MinOrderValue) }},
		{"Valid until", func(c shop.Coupon) string { return tsPtr(c.ValidUntil) }},
		{"Used", func(c shop.Coupon) string {
			if c.UsageLimit == nil {
				return strconv.Itoa(c.UsedCount)
			}
			return fmt.Sprintf("%d / %d", c.UsedCount, *c.UsageLimit)
		}},
		{"Active", func(c shop.Coupon) string { return yesNo(c.IsActive) }},
	},
}

var inquiryColumns = listLayout[shop.Inquiry]{
	id: func(i shop.Inquiry) string { return i.ID },
	cols: []column[shop.Inquiry]{
		{"Received", func(i shop.Inquiry) string { return ts(i.CreatedAt) }},
		{"Name", func(i shop.Inquiry) string { return i.Name }},
		{"Email", func(i shop.Inquiry) string { return i.Email }},
		{"Phone", func(i shop.Inquiry) string { return i.Phone }},
		{"Type", func(i shop.Inquiry) string { return i.Type }},
		{"Event date", func(i shop.Inquiry) string { return tsPtr(i.EventDate) }},
		{"Guests", func(i shop.Inquiry) string { return intPtr(i.Guests) }},
		{"Message", func(i shop.Inquiry) string { return i.Message }},
	},
	noCreate: true,
	status: &statusPicker[shop.Inquiry]{
		value:   func(i shop.Inquiry) string { return i.Status },
		url:     func(id string) string { return "/api/admin/inquiries/" + id },
		options: shop.InquiryStatuses(),
	},
}

var orderColumns = listLayout[shop.Order]{
	id:       func(o shop.Order) string { return o.ID },
	noDelete: true,
	cols: []column[shop.Order]{
		{"Placed", func(o shop.Order) string { return ts(o.CreatedAt) }},
		{"Reference", func(o shop.Order) string { return o.ExternalID }},
		{"Customer", func(o shop.Order) string { return o.CustomerName }},
		{"Pincode", func(o shop.Order) string { return o.Pincode }},
		{"Delivery date", func(o shop.Order) string { return tsPtr(o.DeliveryDate) }},
		{"Total", func(o shop.Order) string { return money(o.Total) }},
	},
	status: &statusPicker[shop.Order]{
		value:   func(o shop.Order) string { return string(o.Status) },
		url:     func(id string) string { return "/api/admin/orders/" + id + "/status" },
		options: orderStatuses(),
	},
}

func orderStatuses() []string {
	var out []string
	for _, st := range shop.Statuses() {
		out = append(out, string(st))
	}
	return out
}

var pincodeColumns = listLayout[shop.Pincode]{
	id: func(p shop.Pincode) string { return p.ID },
	cols: []column[shop.Pincode]{
		{"Code", func(p shop.Pincode) string { return p.Code }},
		{"City", func(p shop.Pincode) string { return p.City }},
		{"Delivery fee", func(p shop.Pincode) string { return money(p.DeliveryFee) }},
		{"Active", func(p shop.Pincode) string { return yesNo(p.IsActive) }},
	},
}

var productColumns = listLayout[shop.Product]{
	id: func(p shop.Product) string { return p.ID },
	cols: []column[shop.Product]{
		{"Name", func(p shop.Product) string { return p.Name }},
		{"Slug", func(p shop.Product) string { return p.Slug }},
		{"Price", func(p shop.Product) string { return money(p.Price) }},
		{"Flowers", func(p shop.Product) string { return strings.Join(p.Flowers, ", ") }},
		{"Featured", func(p shop.Product) string { return yesNo(p.Featured) }},
		{"In stock", func(p shop.Product) string { return yesNo(p.InStock) }},
		{"Updated", func(p shop.Product) string { return ts(p.UpdatedAt) }},
	},
}

var subscriberColumns = listLayout[shop.Subscriber]{
	id:       func(s shop.Subscriber) string { return s.ID },
	noCreate: true,
	cols: []column[shop.Subscriber]{
		{"Email", func(s shop.Subscriber) string { return s.Email }},
		{"Name", func(s shop.Subscriber) string { return s.Name }},
		{"Source", func(s shop.Subscriber) string { return s.Source }},
		{"Subscribed", func(s shop.Subscriber) string { return yesNo(s.Subscribed) }},
		{"Since", func(s shop.Subscriber) string { return ts(s.CreatedAt) }},
	},
}

var testimonialColumns = listLayout[shop.Testimonial]{
	id: func(t shop.Testimonial) string { return t.ID },
	cols: []column[shop.Testimonial]{
		{"Name", func(t shop.Testimonial) string { return t.Name }},
		{"Title", func(t shop.Testimonial) string { return t.Title }},
		{"Rating", func(t shop.Testimonial) string { return strconv.Itoa(t.Rating) }},
		{"Featured", func(t shop.Testimonial) string { return yesNo(t.Featured) }},
		{"Order", func(t shop.Testimonial) string { return strconv.Itoa(t.Order) }},
		{"Active", func(t shop.Testimonial) string { return yesNo(t.IsActive) }},
	},
}

// editTarget resolves the API endpoint and method for a new/edit form.
func editTarget(r *http.Request, api string) (id, target, method string) {
	id = chi.URLParam(r, "id")
	if id == "" {
		return "", api, http.MethodPost
	}
	return id, api + "/" + id, http.MethodPatch
}

func (s *Server) productForm(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := storeCtx(r)
	defer cancel()

	id, target, method := editTarget(r, "/api/admin/products")
	var p shop.Product
	title := "New product"
	if id != "" {
		if _, ok := idParam(r); !ok {
			http.NotFound(w, r)
			return
		}
		var err error
		if p, err = s.Stores.Products.Get(ctx, id); err != nil {
			s.pageError(w, r, err)
			return
		}
		title = "Edit " + p.Name
	}

	categories, err := s.Stores.Categories.List(ctx)
	if err != nil {
		s.pageError(w, r, err)
		return
	}
	occasions, err := s.Stores.Occasions.List(ctx)
	if err != nil {
		s.pageError(w, r, err)
		return
	}

	price := ""
	if id != "" {
		price = p.Price.String()
	}
	rating := ""
	if p.Rating != nil {
		rating = strconv.FormatFloat(*p.Rating, 'f', -1, 64)
	}
	deliveryInfo := ""
	if p.DeliveryInfo != nil {
		deliveryInfo = *p.DeliveryInfo
	}
	s.render(w, r, http.StatusOK, "form", formView{
		page:   pageFor(r, title),
		API:    target,
		Method: method,
		Next:   "/admin/products",
		Fields: []formField{
			{Name: "name", Label: "Name", Type: "text", Value: p.Name},
			{Name: "slug", Label: "Slug", Type: "text", Value: p.Slug},
			{Name: "price", Label: "Price", Type: "text", Value: price},
			{Name: "description", Label: "Description", Type: "textarea", Value: p.Description},
			{Name: "story", Label: "Story", Type: "textarea", Value: p.Story},
			{Name: "flowers", Label: "Flowers (comma separated)", Type: "text", Kind: "list", Value: strings.Join(p.Flowers, ", ")},
			{Name: "images", Label: "Image URLs (comma separated)", Type: "text", Kind: "list", Value: strings.Join(p.Images, ", ")},
			{Name: "categoryId", Label: "Category", Type: "select", Value: deref(p.CategoryID), Options: collectionOptions(categories)},
			{Name: "occasionId", Label: "Occasion", Type: "select", Value: deref(p.OccasionID), Options: collectionOptions(occasions)},
			{Name: "season", Label: "Season", Type: "text", Value: p.Season},
			{Name: "rating", Label: "Rating", Type: "text", Kind: "number", Value: rating},
			{Name: "reviewCount", Label: "Review count", Type: "text", Kind: "number", Value: intPtr(p.ReviewCount)},
			{Name: "deliveryInfo", Label: "Delivery info", Type: "text", Value: deliveryInfo},
			{Name: "featured", Label: "Featured", Type: "checkbox", Checked: p.Featured},
			{Name: "inStock", Label: "In stock", Type: "checkbox", Checked: id == "" || p.InStock},
		},
	})
}

func (s *Server) blogForm(w http.ResponseWriter, r *http.Request) {
	id, target, method := editTarget(r, "/api/admin/blog")
	var post shop.BlogPost
	title := "New post"
	if id != "" {
		if _, ok := idParam(r); !ok {
			http.NotFound(w, r)
			return
		}
		ctx, cancel := storeCtx(r)
		defer cancel()
		var err error
		if post, err = s.Stores.Blog.Get(ctx, id); err != nil {
			s.pageError(w, r, err)
			return
		}
		title = "Edit " + post.Title
	}
	s.render(w, r, http.StatusOK, "form", formView{
		page:   pageFor(r, title),
		API:    target,
		Method: method,
		Next:   "/admin/blog",
		Fields: []formField{
			{Name: "title", Label: "Title", Type: "text", Value: post.Title},
			{Name: "slug", Label: "Slug", Type: "text", Value: post.Slug},
			{Name: "excerpt", Label: "Excerpt", Type: "textarea", Value: post.Excerpt},
			{Name: "content", Label: "Content", Type: "textarea", Value: post.Content},
			{Name: "category", Label: "Category", Type: "text", Value: post.Category},
			{Name: "author", Label: "Author", Type: "text", Value: post.Author},
			{Name: "coverImage", Label: "Cover image URL", Type: "text", Value: post.CoverImage},
			{Name: "featured", Label: "Featured", Type: "checkbox", Checked: post.Featured},
			{Name: "published", Label: "Published", Type: "checkbox", Checked: post.Published},
		},
	})
}

func collectionOptions(cs []shop.Collection) []option {
	out := make([]option, 0, len(cs))
	for _, c := range cs {
		out = append(out, option{Value: c.ID, Label: c.Name})
	}
	return out
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
