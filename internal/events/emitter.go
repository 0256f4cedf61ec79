package events

import (
	"context"
	"strconv"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/petalandstem/storefront/internal/shop"
)

// Publisher is satisfied by kafka.Producer.
type Publisher interface {
	Publish(topic string, key, value []byte, headers ...kafkago.Header) bool
}

// Emitter turns shop changes into envelopes on the bus. A nil Emitter drops
// everything, which keeps handlers usable without Kafka.
type Emitter struct {
	Pub      Publisher
	Producer string
	Log      *zap.Logger
}

func (e *Emitter) InquiryCreated(ctx context.Context, in shop.Inquiry) {
	p := InquiryCreatedPayload{InquiryID: in.ID, Name: in.Name, Email: in.Email, Type: in.Type}
	if in.EventDate != nil {
		p.EventDate = in.EventDate.Format(time.DateOnly)
	}
	e.emit(ctx, EventInquiryCreated, in.ID, p)
}

func (e *Emitter) NewsletterSubscribed(ctx context.Context, s shop.Subscriber, outcome shop.SubscribeOutcome) {
	if outcome == shop.SubscribeAlready {
		return
	}
	e.emit(ctx, EventNewsletterSubscribed, s.ID, NewsletterSubscribedPayload{
		SubscriberID: s.ID, Email: s.Email, Source: s.Source, Outcome: string(outcome),
	})
}

func (e *Emitter) OrderPlaced(ctx context.Context, o shop.Order) {
	count := 0
	for _, it := range o.Items {
		count += it.Qty
	}
	e.emit(ctx, EventOrderPlaced, o.ID, OrderPlacedPayload{
		OrderID: o.ID, ExternalID: o.ExternalID, CustomerName: o.CustomerName,
		Pincode: o.Pincode, ItemCount: count, Total: o.Total,
	})
}

func (e *Emitter) OrderStatusChanged(ctx context.Context, orderID string, from, to shop.Status) {
	if from == to {
		return
	}
	e.emit(ctx, EventOrderStatusChanged, orderID, OrderStatusChangedPayload{
		OrderID: orderID, From: string(from), To: string(to),
	})
}

func (e *Emitter) emit(_ context.Context, eventType, id string, payload any) {
	if e == nil || e.Pub == nil {
		return
	}
	log := e.Log
	if log == nil {
		log = zap.NewNop()
	}
	env, err := NewEnvelope(eventType, e.Producer, id, payload)
	if err != nil {
		log.Error("build event", zap.String("event_type", eventType), zap.Error(err))
		return
	}
	b, err := encode(env)
	if err != nil {
		log.Error("encode event", zap.String("event_type", eventType), zap.Error(err))
		return
	}
	if !e.Pub.Publish(TopicFor(eventType), PartitionKey(id), b,
		kafkago.Header{Key: "x-event-type", Value: []byte(eventType)},
		kafkago.Header{Key: "x-event-version", Value: []byte(strconv.Itoa(Version))},
	) {
		log.Warn("event dropped", zap.String("event_type", eventType), zap.String("correlation_id", id))
	}
}
