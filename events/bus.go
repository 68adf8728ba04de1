package events

import (
	"context"
	"sync"

	log "github.com/sirupsen/logrus"
)

// Publisher accepts events for delivery
type Publisher interface {
	Publish(event Event) error
}

// Handler is a function that handles events
type Handler func(ctx context.Context, event Event)

type subscription struct {
	id      uint64
	pattern string
	handler Handler
}

// Bus delivers events in-process to handlers subscribed by subject pattern
type Bus struct {
	mu     sync.RWMutex
	nextID uint64
	subs   []subscription
}

// NewBus creates a new event bus
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers handler for subjects matching pattern and returns a
// function that removes it. The returned function is safe to call twice.
func (b *Bus) Subscribe(pattern string, handler Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.subs = append(b.subs, subscription{id: id, pattern: pattern, handler: handler})

	log.WithFields(log.Fields{
		"pattern":      pattern,
		"handlerCount": len(b.subs),
	}).Debug("Subscribed handler on event bus")

	return func() { b.unsubscribe(id) }
}

func (b *Bus) unsubscribe(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, s := range b.subs {
		if s.id == id {
			b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
			return
		}
	}
}

// Publish implements Publisher by emitting with a background context
func (b *Bus) Publish(event Event) error {
	b.Emit(context.Background(), event)
	return nil
}

// Emit delivers an event to all matching handlers, each on its own goroutine
func (b *Bus) Emit(ctx context.Context, event Event) {
	subject := event.Subject()

	b.mu.RLock()
	var handlers []Handler
	for _, s := range b.subs {
		if MatchSubject(s.pattern, subject) {
			handlers = append(handlers, s.handler)
		}
	}
	b.mu.RUnlock()

	log.WithFields(log.Fields{
		"eventType":    event.Type(),
		"subject":      subject,
		"handlerCount": len(handlers),
	}).Debug("Emitting event on event bus")

	for i, handler := range handlers {
		go func(h Handler, handlerIndex int) {
			defer func() {
				if r := recover(); r != nil {
					log.WithFields(log.Fields{
						"eventType":    event.Type(),
						"handlerIndex": handlerIndex,
						"panic":        r,
					}).Error("Event handler panicked")
				}
			}()
			h(ctx, event)
		}(handler, i)
	}
}

// TransactionalBus holds events raised inside a unit of work until the
// transaction commits. Rolled back work publishes nothing.
type TransactionalBus struct {
	real    Publisher
	pending []Event
}

// NewTransactionalBus wraps the publisher that receives flushed events
func NewTransactionalBus(real Publisher) *TransactionalBus {
	return &TransactionalBus{real: real}
}

// Publish queues an event until Flush
func (b *TransactionalBus) Publish(e Event) error {
	log.WithFields(log.Fields{
		"eventType":    e.Type(),
		"pendingCount": len(b.pending),
	}).Debug("Queued event on transactional bus")
	b.pending = append(b.pending, e)
	return nil
}

// Pending returns the number of queued events
func (b *TransactionalBus) Pending() int {
	return len(b.pending)
}

// Flush publishes queued events; call it after a successful commit.
// A failing event is logged and does not stop the rest.
func (b *TransactionalBus) Flush(ctx context.Context) error {
	for _, ev := range b.pending {
		if err := b.real.Publish(ev); err != nil {
			log.WithFields(log.Fields{
				"eventType": ev.Type(),
				"subject":   ev.Subject(),
				"error":     err,
			}).Error("Failed to publish event during flush")
		}
	}
	log.WithField("flushed", len(b.pending)).Debug("Flushed transactional bus")
	b.pending = nil
	return nil
}

// Discard drops queued events; call it after a rollback
func (b *TransactionalBus) Discard() {
	if len(b.pending) > 0 {
		log.WithField("discarded", len(b.pending)).Debug("Discarded transactional bus events")
	}
	b.pending = nil
}
