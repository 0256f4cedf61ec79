package httpx

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/petalandstem/storefront/internal/shop"
)

// formLayout describes the new/edit form of one resource. fields gets the
// zero value on the new form.
type formLayout[T any] struct {
	noun   string
	api    string
	next   string
	label  func(T) string
	fields func(rec T, editing bool) []formField
}

func formPage[T any](s *Server, f formLayout[T], get func(context.Context, string) (T, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, target, method := editTarget(r, f.api)
		var rec T
		title := "New " + f.noun
		if id != "" {
			if _, ok := idParam(r); !ok {
				http.NotFound(w, r)
				return
			}
			ctx, cancel := storeCtx(r)
			defer cancel()
			var err error
			if rec, err = get(ctx, id); err != nil {
				s.pageError(w, r, err)
				return
			}
			title = "Edit " + f.label(rec)
		}
		s.render(w, r, http.StatusOK, "form", formView{
			page:   pageFor(r, title),
			API:    target,
			Method: method,
			Next:   f.next,
			Fields: f.fields(rec, id != ""),
		})
	}
}

// datetime-local inputs carry no zone; the client sends them back as UTC.
const datetimeLocal = "2006-01-02T15:04"

func textField(name, label, value string) formField {
	return formField{Name: name, Label: label, Type: "text", Value: value}
}

func areaField(name, label, value string) formField {
	return formField{Name: name, Label: label, Type: "textarea", Value: value}
}

func checkField(name, label string, checked bool) formField {
	return formField{Name: name, Label: label, Type: "checkbox", Checked: checked}
}

func intField(name, label string, v int, editing bool) formField {
	f := formField{Name: name, Label: label, Type: "text", Kind: "number"}
	if editing {
		f.Value = strconv.Itoa(v)
	}
	return f
}

func moneyField(name, label string, d *decimal.Decimal) formField {
	f := textField(name, label, "")
	if d != nil {
		f.Value = d.String()
	}
	return f
}

func timeField(name, label string, t *time.Time) formField {
	f := formField{Name: name, Label: label, Type: "datetime-local", Kind: "time"}
	if t != nil {
		f.Value = t.UTC().Format(datetimeLocal)
	}
	return f
}

func choiceField(name, label, value string, values []string) formField {
	f := formField{Name: name, Label: label, Type: "select", Value: value, Required: true}
	for _, v := range values {
		f.Options = append(f.Options, option{Value: v, Label: v})
	}
	return f
}

// moneyOf returns nil on the new form so the input starts empty.
func moneyOf(d decimal.Decimal, editing bool) *decimal.Decimal {
	if !editing {
		return nil
	}
	return &d
}

var bannerForm = formLayout[shop.Banner]{
	noun:  "banner",
	api:   "/api/admin/banners",
	next:  "/admin/banners",
	label: func(b shop.Banner) string { return b.Title },
	fields: func(b shop.Banner, editing bool) []formField {
		return []formField{
			textField("title", "Title", b.Title),
			textField("image", "Image URL", b.Image),
			textField("link", "Link", b.Link),
			intField("order", "Order", b.Order, editing),
			checkField("isActive", "Active", !editing || b.IsActive),
		}
	},
}

var (
	categoryForm = collectionForm("category", "categories")
	occasionForm = collectionForm("occasion", "occasions")
)

func collectionForm(noun, plural string) formLayout[shop.Collection] {
	return formLayout[shop.Collection]{
		noun:  noun,
		api:   "/api/admin/" + plural,
		next:  "/admin/" + plural,
		label: func(c shop.Collection) string { return c.Name },
		fields: func(c shop.Collection, editing bool) []formField {
			return []formField{
				textField("name", "Name", c.Name),
				textField("slug", "Slug", c.Slug),
				areaField("description", "Description", c.Description),
				textField("image", "Image URL", c.Image),
				intField("order", "Order", c.Order, editing),
				checkField("isActive", "Active", !editing || c.IsActive),
			}
		},
	}
}

var couponForm = formLayout[shop.Coupon]{
	noun:  "coupon",
	api:   "/api/admin/coupons",
	next:  "/admin/coupons",
	label: func(c shop.Coupon) string { return c.Code },
	fields: func(c shop.Coupon, editing bool) []formField {
		var fields []formField
		// codes are fixed once issued
		if !editing {
			fields = append(fields, textField("code", "Code", ""))
		}
		usage := formField{Name: "usageLimit", Label: "Usage limit", Type: "text", Kind: "number", Value: intPtr(c.UsageLimit)}
		return append(fields,
			textField("description", "Description", c.Description),
			choiceField("discountType", "Discount type", string(c.DiscountType),
				[]string{string(shop.DiscountPercentage), string(shop.DiscountFixed)}),
			moneyField("discountValue", "Discount value", moneyOf(c.DiscountValue, editing)),
			moneyField("minOrderValue", "Minimum order", moneyOf(c.MinOrderValue, editing)),
			moneyField("maxDiscount", "Maximum discount", c.MaxDiscount),
			timeField("validFrom", "Valid from (UTC)", c.ValidFrom),
			timeField("validUntil", "Valid until (UTC)", c.ValidUntil),
			usage,
			checkField("isActive", "Active", !editing || c.IsActive),
		)
	},
}

var pincodeForm = formLayout[shop.Pincode]{
	noun:  "pincode",
	api:   "/api/admin/pincodes",
	next:  "/admin/pincodes",
	label: func(p shop.Pincode) string { return p.Code },
	fields: func(p shop.Pincode, editing bool) []formField {
		return []formField{
			textField("code", "Code", p.Code),
			textField("city", "City", p.City),
			moneyField("deliveryFee", "Delivery fee", moneyOf(p.DeliveryFee, editing)),
			checkField("isActive", "Active", !editing || p.IsActive),
		}
	},
}

var testimonialForm = formLayout[shop.Testimonial]{
	noun:  "testimonial",
	api:   "/api/admin/testimonials",
	next:  "/admin/testimonials",
	label: func(t shop.Testimonial) string { return t.Name },
	fields: func(t shop.Testimonial, editing bool) []formField {
		return []formField{
			textField("name", "Name", t.Name),
			textField("title", "Title", t.Title),
			areaField("content", "Content", t.Content),
			intField("rating", "Rating (1-5)", t.Rating, editing),
			textField("image", "Image URL", t.Image),
			intField("order", "Order", t.Order, editing),
			checkField("featured", "Featured", t.Featured),
			checkField("isActive", "Active", !editing || t.IsActive),
		}
	},
}

var inquiryForm = formLayout[shop.Inquiry]{
	noun:  "inquiry",
	api:   "/api/admin/inquiries",
	next:  "/admin/inquiries",
	label: func(i shop.Inquiry) string { return "inquiry from " + i.Name },
	fields: func(i shop.Inquiry, _ bool) []formField {
		return []formField{
			choiceField("status", "Status", i.Status, shop.InquiryStatuses()),
			areaField("adminNotes", "Notes", i.AdminNotes),
		}
	},
}

var subscriberForm = formLayout[shop.Subscriber]{
	noun:  "subscriber",
	api:   "/api/admin/subscribers",
	next:  "/admin/subscribers",
	label: func(s shop.Subscriber) string { return s.Email },
	fields: func(s shop.Subscriber, _ bool) []formField {
		return []formField{
			textField("name", "Name", s.Name),
			checkField("subscribed", "Subscribed", s.Subscribed),
		}
	},
}
