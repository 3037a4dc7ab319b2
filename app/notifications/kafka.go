package notifications

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
)

// KafkaBus publishes events to a single topic for an out-of-process delivery
// worker. Messages are keyed by recipient so one address keeps its ordering.
// Same lifecycle as ChannelBus: the inbox is closed only by Close, so Publish
// stays safe while the HTTP server drains.
type KafkaBus struct {
	w     *kafka.Writer
	inbox chan kafka.Message
	done  chan struct{}

	mu     sync.Mutex
	closed bool
}

func NewKafkaBus(brokers []string, topic string, buf int) *KafkaBus {
	return &KafkaBus{
		w: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			Async:        true,
		},
		inbox: make(chan kafka.Message, buf),
		done:  make(chan struct{}),
	}
}

func (b *KafkaBus) Start() {
	go func() {
		for m := range b.inbox {
			if err := b.w.WriteMessages(context.Background(), m); err != nil {
				log.Printf("notifications: kafka write failed: %v", err)
			}
		}
		_ = b.w.Close()
		close(b.done)
	}()
}

func (b *KafkaBus) Publish(event Event) {
	value, err := json.Marshal(event)
	if err != nil {
		log.Printf("notifications: failed to marshal %s: %v", event.Type, err)
		return
	}
	m := kafka.Message{
		Key:   []byte(event.Recipient),
		Value: value,
		Time:  time.Now(),
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		log.Printf("notifications: bus closed, dropping %s for %s", event.Type, event.Recipient)
		return
	}
	select {
	case b.inbox <- m:
	default:
		log.Printf("notifications: kafka queue full, dropping %s for %s", event.Type, event.Recipient)
	}
}

// Close stops accepting events, flushes pending messages and closes the
// writer. Safe to call more than once.
func (b *KafkaBus) Close() {
	b.mu.Lock()
	if !b.closed {
		b.closed = true
		close(b.inbox)
	}
	b.mu.Unlock()
	<-b.done
}
