package httpx

import (
	"context"

	"github.com/petalandstem/storefront/internal/postgres"
	"github.com/petalandstem/storefront/internal/shop"
)

type validator interface{ Validate() error }

// Resource is the admin CRUD surface every shop repository exposes.
type Resource[T any, C, P validator] interface {
	List(ctx context.Context) ([]T, error)
	Get(ctx context.Context, id string) (T, error)
	Create(ctx context.Context, in C) (T, error)
	Update(ctx context.Context, id string, p P) (T, error)
	Delete(ctx context.Context, id string) error
}

// ActiveResource adds the storefront's active-only listing.
type ActiveResource[T any, C, P validator] interface {
	Resource[T, C, P]
	ListActive(ctx context.Context) ([]T, error)
}

type ProductStore interface {
	Resource[shop.Product, shop.ProductInput, shop.ProductPatch]
	ListPublic(ctx context.Context, f shop.ProductFilter) ([]shop.ProductView, error)
	GetBySlug(ctx context.Context, slug string) (shop.ProductView, error)
}

type BlogStore interface {
	Resource[shop.BlogPost, shop.BlogInput, shop.BlogPatch]
	ListPublished(ctx context.Context, f shop.BlogFilter) ([]shop.BlogPost, error)
	GetPublishedBySlug(ctx context.Context, slug string) (shop.BlogPost, error)
}

type PincodeStore interface {
	Resource[shop.Pincode, shop.PincodeInput, shop.PincodePatch]
	Lookup(ctx context.Context, code string) (shop.Pincode, error)
}

type SubscriberStore interface {
	Resource[shop.Subscriber, shop.SubscriberInput, shop.SubscriberPatch]
	Subscribe(ctx context.Context, in shop.SubscriberInput) (shop.Subscriber, shop.SubscribeOutcome, error)
	Unsubscribe(ctx context.Context, email string) error
}

type OrderStore interface {
	List(ctx context.Context) ([]shop.Order, error)
	Get(ctx context.Context, id string) (shop.Order, error)
	UpdateStatus(ctx context.Context, id, status string) (shop.Status, error)
	Place(ctx context.Context, in shop.PlaceOrderInput) (shop.Order, bool, error)
}

type Stores struct {
	Banners      ActiveResource[shop.Banner, shop.BannerInput, shop.BannerPatch]
	Blog         BlogStore
	Categories   ActiveResource[shop.Collection, shop.CollectionInput, shop.CollectionPatch]
	Coupons      Resource[shop.Coupon, shop.CouponInput, shop.CouponPatch]
	Inquiries    Resource[shop.Inquiry, shop.InquiryInput, shop.InquiryPatch]
	Occasions    ActiveResource[shop.Collection, shop.CollectionInput, shop.CollectionPatch]
	Orders       OrderStore
	Pincodes     PincodeStore
	Products     ProductStore
	Subscribers  SubscriberStore
	Testimonials ActiveResource[shop.Testimonial, shop.TestimonialInput, shop.TestimonialPatch]
}

func NewStores(db postgres.DB) Stores {
	return Stores{
		Banners:      &shop.BannerRepo{DB: db},
		Blog:         &shop.BlogRepo{DB: db},
		Categories:   shop.NewCategoryRepo(db),
		Coupons:      &shop.CouponRepo{DB: db},
		Inquiries:    &shop.InquiryRepo{DB: db},
		Occasions:    shop.NewOccasionRepo(db),
		Orders:       &shop.OrderRepo{DB: db},
		Pincodes:     &shop.PincodeRepo{DB: db},
		Products:     &shop.ProductRepo{DB: db},
		Subscribers:  &shop.SubscriberRepo{DB: db},
		Testimonials: &shop.TestimonialRepo{DB: db},
	}
}
