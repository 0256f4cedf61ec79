package notify

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/petalandstem/storefront/internal/events"
	"github.com/petalandstem/storefront/internal/redisx"
)

// Service turns storefront events into lines on the admin activity feed.
type Service struct {
	Redis       redis.Cmdable
	ServiceName string
	Log         *zap.Logger
}

// Handle is installed as the consumer handler. Malformed messages are logged
// and acknowledged so they do not block the partition.
func (s *Service) Handle(ctx context.Context, m kafkago.Message) error {
	env, err := events.Decode(m.Value)
	if err != nil {
		s.Log.Warn("skip malformed event", zap.String("topic", m.Topic), zap.Int64("offset", m.Offset), zap.Error(err))
		return nil
	}

	summary, ok, err := Summarize(env)
	if err != nil {
		s.Log.Warn("skip undecodable payload", zap.String("event_id", env.EventID), zap.Error(err))
		return nil
	}
	if !ok {
		return nil
	}

	dkey := redisx.DedupKey(s.ServiceName, env.EventID)
	won, err := redisx.Claim(ctx, s.Redis, dkey, redisx.TTLDedup)
	if err != nil {
		return fmt.Errorf("claim %s: %w", env.EventID, err)
	}
	if !won {
		s.Log.Debug("duplicate event", zap.String("event_id", env.EventID))
		return nil
	}

	err = redisx.PushFeed(ctx, s.Redis, redisx.Activity{
		EventID:    env.EventID,
		Kind:       env.EventType,
		Summary:    summary,
		OccurredAt: env.OccurredAt,
	})
	if err != nil {
		// release the claim so redelivery can retry
		_ = s.Redis.Del(ctx, dkey).Err()
		return fmt.Errorf("push feed: %w", err)
	}
	s.Log.Info("activity recorded", zap.String("event_type", env.EventType), zap.String("event_id", env.EventID))
	return nil
}

// Summarize renders the one-line dashboard text for an event. ok is false for
// event types the feed does not show.
func Summarize(env events.Envelope) (string, bool, error) {
	switch env.EventType {
	case events.EventInquiryCreated:
		p, err := events.PayloadOf[events.InquiryCreatedPayload](env)
		if err != nil {
			return "", false, err
		}
		line := fmt.Sprintf("New %s inquiry from %s <%s>", p.Type, p.Name, p.Email)
		if p.EventDate != "" {
			line += " for " + p.EventDate
		}
		return line, true, nil

	case events.EventNewsletterSubscribed:
		p, err := events.PayloadOf[events.NewsletterSubscribedPayload](env)
		if err != nil {
			return "", false, err
		}
		verb := "subscribed"
		if p.Outcome == "resubscribed" {
			verb = "resubscribed"
		}
		return fmt.Sprintf("%s %s to the newsletter via %s", p.Email, verb, p.Source), true, nil

	case events.EventOrderPlaced:
		p, err := events.PayloadOf[events.OrderPlacedPayload](env)
		if err != nil {
			return "", false, err
		}
		return fmt.Sprintf("Order %s placed by %s: %d item(s), total %s, delivering to %s",
			p.ExternalID, p.CustomerName, p.ItemCount, p.Total.StringFixed(2), p.Pincode), true, nil

	case events.EventOrderStatusChanged:
		p, err := events.PayloadOf[events.OrderStatusChangedPayload](env)
		if err != nil {
			return "", false, err
		}
		return fmt.Sprintf("Order %s moved from %s to %s", p.OrderID, p.From, p.To), true, nil
	}
	return "", false, nil
}
