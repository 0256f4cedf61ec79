package kafka

import (
	"context"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Producer publishes fire-and-forget. Messages queue in an inbox drained by
// one goroutine; when the inbox is full the message is dropped and logged.
type Producer struct {
	w       messageWriter
	inbox   chan kafka.Message
	closeCh chan struct{}
	log     *zap.Logger
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

func NewProducer(brokers []string, buf int, log *zap.Logger) *Producer {
	if log == nil {
		log = zap.NewNop()
	}
	p := &Producer{
		inbox:   make(chan kafka.Message, buf),
		closeCh: make(chan struct{}),
		log:     log,
	}
	p.w = &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
		Async:                  true,
		Completion: func(msgs []kafka.Message, err error) {
			if err != nil {
				log.Error("kafka write failed", zap.Int("messages", len(msgs)), zap.Error(err))
			}
		},
	}
	return p
}

func newProducerWithWriter(w messageWriter, buf int) *Producer {
	return &Producer{w: w, inbox: make(chan kafka.Message, buf), closeCh: make(chan struct{}), log: zap.NewNop()}
}

// Start drains the inbox until ctx is done, then flushes what is left and
// closes the writer.
func (p *Producer) Start(ctx context.Context) {
	go func() {
		defer close(p.closeCh)
		w := p.w
		for {
			select {
			case <-ctx.Done():
				p.flush(w)
				return
			case m := <-p.inbox:
				p.write(w, m)
			}
		}
	}()
}

func (p *Producer) flush(w messageWriter) {
	for {
		select {
		case m := <-p.inbox:
			p.write(w, m)
		default:
			_ = w.Close()
			return
		}
	}
}

func (p *Producer) write(w messageWriter, m kafka.Message) {
	if err := w.WriteMessages(context.Background(), m); err != nil {
		p.log.Error("kafka publish failed", zap.String("topic", m.Topic), zap.Error(err))
	}
}

// Publish enqueues a message without blocking. It reports false when the
// inbox is full and the message was dropped.
func (p *Producer) Publish(topic string, key, value []byte, headers ...kafka.Header) bool {
	m := kafka.Message{
		Topic:   topic,
		Key:     key,
		Value:   value,
		Time:    time.Now(),
		Headers: headers,
	}
	select {
	case p.inbox <- m:
		return true
	default:
		p.log.Warn("kafka inbox full, dropping message", zap.String("topic", topic))
		return false
	}
}

// WaitClosed blocks until the drain goroutine has flushed and exited.
func (p *Producer) WaitClosed() { <-p.closeCh }
