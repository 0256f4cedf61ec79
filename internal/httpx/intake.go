package httpx

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/petalandstem/storefront/internal/redisx"
	"github.com/petalandstem/storefront/internal/shop"
)

func (s *Server) mountIntake(r chi.Router) {
	r.Post("/inquiries", s.createInquiry)
	r.Post("/newsletter", s.subscribe)
	r.Post("/newsletter/unsubscribe", s.unsubscribe)
	r.Post("/orders", s.placeOrder)
}

func (s *Server) createInquiry(w http.ResponseWriter, r *http.Request) {
	var in shop.InquiryInput
	if err := decodeJSON(w, r, &in); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := in.Validate(); err != nil {
		s.fail(w, r, err)
		return
	}
	ctx, cancel := storeCtx(r)
	defer cancel()

	inq, err := s.Stores.Inquiries.Create(ctx, in)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.Events.InquiryCreated(ctx, inq)
	writeJSON(w, http.StatusCreated, map[string]string{"id": inq.ID})
}

type subscribeResp struct {
	Status  shop.SubscribeOutcome `json:"status"`
	Message string                `json:"message"`
}

var subscribeMessages = map[shop.SubscribeOutcome]string{
	shop.SubscribeCreated:      "Thanks for subscribing!",
	shop.SubscribeResubscribed: "Welcome back! You have been resubscribed.",
	shop.SubscribeAlready:      "You are already subscribed.",
}

func (s *Server) subscribe(w http.ResponseWriter, r *http.Request) {
	var in shop.SubscriberInput
	if err := decodeJSON(w, r, &in); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := in.Validate(); err != nil {
		s.fail(w, r, err)
		return
	}
	ctx, cancel := storeCtx(r)
	defer cancel()

	sub, outcome, err := s.Stores.Subscribers.Subscribe(ctx, in)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.Events.NewsletterSubscribed(ctx, sub, outcome)

	code := http.StatusOK
	if outcome == shop.SubscribeCreated {
		code = http.StatusCreated
	}
	writeJSON(w, code, subscribeResp{Status: outcome, Message: subscribeMessages[outcome]})
}

func (s *Server) unsubscribe(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email string `json:"email"`
	}
	if err := decodeJSON(w, r, &in); err != nil {
		s.fail(w, r, err)
		return
	}
	if strings.TrimSpace(in.Email) == "" {
		writeMessage(w, http.StatusBadRequest, "email is required")
		return
	}
	ctx, cancel := storeCtx(r)
	defer cancel()

	if err := s.Stores.Subscribers.Unsubscribe(ctx, in.Email); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "unsubscribed"})
}

// placeOrder is idempotent on externalId. Redis holds a shortcut to the
// order id; the orders table stays the source of truth.
func (s *Server) placeOrder(w http.ResponseWriter, r *http.Request) {
	var in shop.PlaceOrderInput
	if err := decodeJSON(w, r, &in); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := in.Validate(); err != nil {
		s.fail(w, r, err)
		return
	}
	ctx, cancel := storeCtx(r)
	defer cancel()

	idemKey := redisx.IdemOrderKey(strings.TrimSpace(in.ExternalID))
	if s.Redis != nil {
		if orderID, err := s.Redis.Get(ctx, idemKey).Result(); err == nil && orderID != "" {
			if o, err := s.Stores.Orders.Get(ctx, orderID); err == nil {
				writeJSON(w, http.StatusOK, o)
				return
			}
		} else if err != nil && !errors.Is(err, redis.Nil) {
			s.Log.Warn("idempotency lookup failed", zap.Error(err))
		}
	}

	o, existed, err := s.Stores.Orders.Place(ctx, in)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if s.Redis != nil {
		_ = s.Redis.Set(ctx, idemKey, o.ID, redisx.TTLIdempotency).Err()
	}
	if existed {
		writeJSON(w, http.StatusOK, o)
		return
	}
	s.Events.OrderPlaced(ctx, o)
	writeJSON(w, http.StatusCreated, o)
}
