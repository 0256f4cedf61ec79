package httpx

import (
	"context"
	"sync"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/petalandstem/storefront/internal/auth"
	"github.com/petalandstem/storefront/internal/shop"
)

// storeSpy counts every store call made by any fake sharing it.
type storeSpy struct {
	mu    sync.Mutex
	calls []string
}

func (s *storeSpy) hit(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, name)
}

func (s *storeSpy) count(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.calls {
		if name == "" || c == name {
			n++
		}
	}
	return n
}

type fakeResource[T any, C, P validator] struct {
	spy   *storeSpy
	name  string
	items []T
	one   T
	err   error
}

func (f *fakeResource[T, C, P]) List(context.Context) ([]T, error) {
	f.spy.hit(f.name + ".List")
	return f.items, f.err
}

func (f *fakeResource[T, C, P]) ListActive(context.Context) ([]T, error) {
	f.spy.hit(f.name + ".ListActive")
	return f.items, f.err
}

func (f *fakeResource[T, C, P]) Get(context.Context, string) (T, error) {
	f.spy.hit(f.name + ".Get")
	return f.one, f.err
}

func (f *fakeResource[T, C, P]) Create(context.Context, C) (T, error) {
	f.spy.hit(f.name + ".Create")
	return f.one, f.err
}

func (f *fakeResource[T, C, P]) Update(context.Context, string, P) (T, error) {
	f.spy.hit(f.name + ".Update")
	return f.one, f.err
}

func (f *fakeResource[T, C, P]) Delete(context.Context, string) error {
	f.spy.hit(f.name + ".Delete")
	return f.err
}

type fakeProducts struct {
	fakeResource[shop.Product, shop.ProductInput, shop.ProductPatch]
	view shop.ProductView
}

func (f *fakeProducts) ListPublic(context.Context, shop.ProductFilter) ([]shop.ProductView, error) {
	f.spy.hit("products.ListPublic")
	return []shop.ProductView{f.view}, f.err
}

func (f *fakeProducts) GetBySlug(context.Context, string) (shop.ProductView, error) {
	f.spy.hit("products.GetBySlug")
	return f.view, f.err
}

type fakeBlog struct {
	fakeResource[shop.BlogPost, shop.BlogInput, shop.BlogPatch]
	lastFilter shop.BlogFilter
}

func (f *fakeBlog) ListPublished(_ context.Context, filter shop.BlogFilter) ([]shop.BlogPost, error) {
	f.spy.hit("blog.ListPublished")
	f.lastFilter = filter
	return f.items, f.err
}

func (f *fakeBlog) GetPublishedBySlug(context.Context, string) (shop.BlogPost, error) {
	f.spy.hit("blog.GetPublishedBySlug")
	return f.one, f.err
}

type fakePincodes struct {
	fakeResource[shop.Pincode, shop.PincodeInput, shop.PincodePatch]
	known map[string]shop.Pincode
}

func (f *fakePincodes) Lookup(_ context.Context, code string) (shop.Pincode, error) {
	f.spy.hit("pincodes.Lookup")
	p, ok := f.known[code]
	if !ok {
		return shop.Pincode{}, shop.ErrNotFound
	}
	return p, nil
}

type fakeSubscribers struct {
	fakeResource[shop.Subscriber, shop.SubscriberInput, shop.SubscriberPatch]
	outcomes map[string]shop.SubscribeOutcome
}

func (f *fakeSubscribers) Subscribe(_ context.Context, in shop.SubscriberInput) (shop.Subscriber, shop.SubscribeOutcome, error) {
	f.spy.hit("subscribers.Subscribe")
	return shop.Subscriber{ID: "s-" + in.Email, Email: in.Email}, f.outcomes[in.Email], f.err
}

func (f *fakeSubscribers) Unsubscribe(context.Context, string) error {
	f.spy.hit("subscribers.Unsubscribe")
	return f.err
}

type fakeOrders struct {
	spy      *storeSpy
	orders   map[string]shop.Order
	byExt    map[string]string
	statuses map[string]shop.Status
}

func newFakeOrders(spy *storeSpy) *fakeOrders {
	return &fakeOrders{spy: spy, orders: map[string]shop.Order{}, byExt: map[string]string{}, statuses: map[string]shop.Status{}}
}

func (f *fakeOrders) List(context.Context) ([]shop.Order, error) {
	f.spy.hit("orders.List")
	out := []shop.Order{}
	for _, o := range f.orders {
		out = append(out, o)
	}
	return out, nil
}

func (f *fakeOrders) Get(_ context.Context, id string) (shop.Order, error) {
	f.spy.hit("orders.Get")
	o, ok := f.orders[id]
	if !ok {
		return shop.Order{}, shop.ErrNotFound
	}
	return o, nil
}

func (f *fakeOrders) UpdateStatus(_ context.Context, id, status string) (shop.Status, error) {
	f.spy.hit("orders.UpdateStatus")
	next, err := shop.ParseStatus(status)
	if err != nil {
		return "", err
	}
	prev, ok := f.statuses[id]
	if !ok {
		return "", shop.ErrNotFound
	}
	f.statuses[id] = next
	return prev, nil
}

func (f *fakeOrders) Place(_ context.Context, in shop.PlaceOrderInput) (shop.Order, bool, error) {
	f.spy.hit("orders.Place")
	if id, ok := f.byExt[in.ExternalID]; ok {
		return f.orders[id], true, nil
	}
	o := shop.Order{ID: "8d0f7a52-5d0e-4c3b-9a57-1b2c3d4e5f60", ExternalID: in.ExternalID, CustomerName: in.Name, Status: shop.StatusPending}
	f.orders[o.ID] = o
	f.byExt[in.ExternalID] = o.ID
	return o, false, nil
}

type fakeAuth struct {
	changeErr error
	changed   []string
}

func (f *fakeAuth) Login(_ context.Context, email, password string) (string, auth.Identity, error) {
	if password != "correct-horse" {
		return "", auth.Identity{}, auth.ErrInvalidCredentials
	}
	return "tok-login", auth.Identity{ID: "a1", Email: email}, nil
}

func (f *fakeAuth) Logout(context.Context, string) error { return nil }

func (f *fakeAuth) ChangePassword(_ context.Context, adminID, _, _ string) error {
	if f.changeErr != nil {
		return f.changeErr
	}
	f.changed = append(f.changed, adminID)
	return nil
}

type fakePublisher struct {
	mu     sync.Mutex
	topics []string
}

func (f *fakePublisher) Publish(topic string, _, _ []byte, _ ...kafkago.Header) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.topics = append(f.topics, topic)
	return true
}
