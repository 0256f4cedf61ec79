package notify

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/petalandstem/storefront/internal/events"
	"github.com/petalandstem/storefront/internal/redisx"
)

func newService(t *testing.T) (*Service, *miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return &Service{Redis: rdb, ServiceName: "notifier", Log: zap.NewNop()}, mr, rdb
}

func message(t *testing.T, eventType string, payload any) (kafkago.Message, events.Envelope) {
	t.Helper()
	env, err := events.NewEnvelope(eventType, "storefront-api", "id-1", payload)
	require.NoError(t, err)
	b, err := json.Marshal(env)
	require.NoError(t, err)
	return kafkago.Message{Topic: events.TopicFor(eventType), Value: b}, env
}

func TestHandleDedupsByEventID(t *testing.T) {
	svc, mr, rdb := newService(t)
	ctx := context.Background()
	m, env := message(t, events.EventOrderPlaced, events.OrderPlacedPayload{
		OrderID: "o1", ExternalID: "cart-9", CustomerName: "Meera", Pincode: "560001",
		ItemCount: 2, Total: decimal.RequireFromString("1299.5"),
	})

	require.NoError(t, svc.Handle(ctx, m))
	require.NoError(t, svc.Handle(ctx, m))

	feed, err := redisx.ReadFeed(ctx, rdb, 10)
	require.NoError(t, err)
	require.Len(t, feed, 1)
	assert.Equal(t, env.EventID, feed[0].EventID)
	assert.Equal(t, "Order cart-9 placed by Meera: 2 item(s), total 1299.50, delivering to 560001", feed[0].Summary)
	assert.True(t, mr.Exists(redisx.DedupKey("notifier", env.EventID)))
}

func TestHandleSkipsMalformed(t *testing.T) {
	svc, _, rdb := newService(t)
	ctx := context.Background()

	require.NoError(t, svc.Handle(ctx, kafkago.Message{Value: []byte("{")}))

	feed, err := redisx.ReadFeed(ctx, rdb, 10)
	require.NoError(t, err)
	assert.Empty(t, feed)
}

func TestHandleRedisDown(t *testing.T) {
	svc, mr, _ := newService(t)
	m, _ := message(t, events.EventInquiryCreated, events.InquiryCreatedPayload{Name: "A", Email: "a@b.co", Type: "general"})
	mr.Close()
	assert.Error(t, svc.Handle(context.Background(), m))
}

func TestSummarize(t *testing.T) {
	tests := []struct {
		name      string
		eventType string
		payload   any
		want      string
		ok        bool
	}{
		{
			name:      "inquiry with date",
			eventType: events.EventInquiryCreated,
			payload:   events.InquiryCreatedPayload{Name: "Asha", Email: "asha@example.com", Type: "wedding", EventDate: "2026-12-01"},
			want:      "New wedding inquiry from Asha <asha@example.com> for 2026-12-01",
			ok:        true,
		},
		{
			name:      "resubscribe",
			eventType: events.EventNewsletterSubscribed,
			payload:   events.NewsletterSubscribedPayload{Email: "x@y.co", Source: "footer", Outcome: "resubscribed"},
			want:      "x@y.co resubscribed to the newsletter via footer",
			ok:        true,
		},
		{
			name:      "status change",
			eventType: events.EventOrderStatusChanged,
			payload:   events.OrderStatusChangedPayload{OrderID: "o1", From: "pending", To: "shipped"},
			want:      "Order o1 moved from pending to shipped",
			ok:        true,
		},
		{
			name:      "unknown",
			eventType: "catalog.reindexed",
			payload:   map[string]string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env, err := events.NewEnvelope(tt.eventType, "api", "", tt.payload)
			require.NoError(t, err)
			got, ok, err := Summarize(env)
			require.NoError(t, err)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
