package notifications

import (
	"log"
	"sync"
)

// Bus accepts events fire-and-forget: Publish must never block or panic in
// the caller, whatever the delivery channel is doing.
type Bus interface {
	Publish(event Event)
}

// Sink is one delivery channel behind a ChannelBus worker.
type Sink interface {
	Deliver(event Event) error
}

// ChannelBus queues events on a bounded channel drained by a single worker
// goroutine. When the queue is full the event is dropped with a log line;
// order and catalog mutation never wait on delivery. The inbox is closed
// only by Close, never by the worker, so Publish stays safe through the
// whole shutdown window.
type ChannelBus struct {
	sink  Sink
	inbox chan Event
	done  chan struct{}

	mu     sync.Mutex
	closed bool
}

func NewChannelBus(sink Sink, buf int) *ChannelBus {
	return &ChannelBus{
		sink:  sink,
		inbox: make(chan Event, buf),
		done:  make(chan struct{}),
	}
}

func (b *ChannelBus) Start() {
	go func() {
		for event := range b.inbox {
			b.deliver(event)
		}
		close(b.done)
	}()
}

func (b *ChannelBus) deliver(event Event) {
	if err := b.sink.Deliver(event); err != nil {
		log.Printf("notifications: failed to deliver %s to %s: %v", event.Type, event.Recipient, err)
	}
}

func (b *ChannelBus) Publish(event Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		log.Printf("notifications: bus closed, dropping %s for %s", event.Type, event.Recipient)
		return
	}
	select {
	case b.inbox <- event:
	default:
		log.Printf("notifications: queue full, dropping %s for %s", event.Type, event.Recipient)
	}
}

// Close stops accepting events and blocks until the worker has delivered
// everything already queued. Safe to call more than once.
func (b *ChannelBus) Close() {
	b.mu.Lock()
	if !b.closed {
		b.closed = true
		close(b.inbox)
	}
	b.mu.Unlock()
	<-b.done
}

// LogSink prints events instead of delivering them. Dev default.
type LogSink struct{}

func (LogSink) Deliver(event Event) error {
	log.Printf("notifications: %s -> %s %s", event.Type, event.Recipient, string(event.Payload))
	return nil
}
