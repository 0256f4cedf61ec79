package kafka

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	mu     sync.Mutex
	msgs   []kafka.Message
	closed bool
	fail   bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("broker unavailable")
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeWriter) written() []kafka.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]kafka.Message(nil), f.msgs...)
}

func TestProducerFlushesOnShutdown(t *testing.T) {
	w := &fakeWriter{}
	p := newProducerWithWriter(w, 8)

	require.True(t, p.Publish("storefront.orders", []byte("o1"), []byte(`{}`),
		kafka.Header{Key: "x-event-type", Value: []byte("order.placed")}))
	require.True(t, p.Publish("storefront.inquiries", []byte("i1"), []byte(`{}`)))

	ctx, cancel := context.WithCancel(context.Background())
	p.Start(ctx)
	cancel()
	p.WaitClosed()

	got := w.written()
	require.Len(t, got, 2)
	assert.Equal(t, "storefront.orders", got[0].Topic)
	assert.Equal(t, "order.placed", HeaderValue(got[0], "x-event-type"))
	assert.Equal(t, "", HeaderValue(got[1], "x-event-type"))
	assert.True(t, w.closed)
}

func TestProducerDropsWhenInboxFull(t *testing.T) {
	p := newProducerWithWriter(&fakeWriter{}, 1)
	assert.True(t, p.Publish("t", nil, []byte("a")))
	assert.False(t, p.Publish("t", nil, []byte("b")))
}

func TestProducerSurvivesWriteErrors(t *testing.T) {
	w := &fakeWriter{fail: true}
	p := newProducerWithWriter(w, 4)
	ctx, cancel := context.WithCancel(context.Background())
	p.Start(ctx)

	assert.True(t, p.Publish("t", nil, []byte("a")))
	assert.Eventually(t, func() bool { return len(p.inbox) == 0 }, time.Second, 5*time.Millisecond)

	cancel()
	p.WaitClosed()
	assert.Empty(t, w.written())
}
