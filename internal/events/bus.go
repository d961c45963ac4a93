package events

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const subscriberBuffer = 64

type subscriber struct {
	ch    chan Event
	types map[EventType]bool
}

// Bus fans emitted events out to subscribers. Delivery is non-blocking: a
// subscriber whose buffer is full misses the event.
type Bus struct {
	mu     sync.RWMutex
	subs   map[int]*subscriber
	nextID int
	now    func() time.Time
	log    zerolog.Logger
}

// NewBus creates a new event bus
func NewBus(log zerolog.Logger) *Bus {
	return &Bus{
		subs: make(map[int]*subscriber),
		now:  time.Now,
		log:  log.With().Str("service", "events").Logger(),
	}
}

// Subscribe registers a listener for the given types, or for every type when
// none are given. The returned func unsubscribes and closes the channel.
func (b *Bus) Subscribe(types ...EventType) (<-chan Event, func()) {
	sub := &subscriber{ch: make(chan Event, subscriberBuffer)}
	if len(types) > 0 {
		sub.types = make(map[EventType]bool, len(types))
		for _, t := range types {
			sub.types[t] = true
		}
	}

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = sub
	b.mu.Unlock()

	var once sync.Once
	return sub.ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
			close(sub.ch)
		})
	}
}

// Subscribers returns the number of active subscriptions.
func (b *Bus) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Emit publishes an event to every matching subscriber.
func (b *Bus) Emit(event string, data any) {
	b.Publish(EventType(event), data)
}

// Publish is Emit with a typed event name.
func (b *Bus) Publish(eventType EventType, data any) {
	ev := Event{Type: eventType, Timestamp: b.now(), Data: data}

	b.mu.RLock()
	defer b.mu.RUnlock()

	delivered := 0
	for _, sub := range b.subs {
		if sub.types != nil && !sub.types[eventType] {
			continue
		}
		select {
		case sub.ch <- ev:
			delivered++
		default:
			b.log.Warn().Str("event_type", string(eventType)).Msg("Subscriber buffer full, dropping event")
		}
	}

	b.log.Debug().
		Str("event_type", string(eventType)).
		Int("delivered", delivered).
		Msg("Event emitted")
}

// EmitError publishes an ErrorOccurred event.
func (b *Bus) EmitError(source string, err error, context map[string]any) {
	b.Publish(ErrorOccurred, NewErrorData(source, err, context))
}
