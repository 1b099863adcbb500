// Package broadcast fans outbound events out to every registered listener.
package broadcast

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/BarkinBalci/dataset-ingestion-service/internal/protocol"
)

// Subscription is one listener's view of the event stream. Events arrive in
// publish order. The events channel is never closed; use Done to learn that
// the subscription has ended, either by Close or by eviction.
type Subscription struct {
	id     uint64
	events chan protocol.Event
	done   chan struct{}
	once   sync.Once
	owner  *Broadcaster
}

// Events returns the channel events are delivered on
func (s *Subscription) Events() <-chan protocol.Event {
	return s.events
}

// Done is closed once the subscription is closed
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

// Close detaches the subscription.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.owner.remove(s.id)
		close(s.done)
	})
}

// Broadcaster delivers every published event to every open subscription
type Broadcaster struct {
	mu     sync.RWMutex
	subs   map[uint64]*Subscription
	nextID uint64
	log    *zap.Logger
}

// New creates a broadcaster with no subscribers
func New(log *zap.Logger) *Broadcaster {
	return &Broadcaster{
		subs: make(map[uint64]*Subscription),
		log:  log,
	}
}

// Subscribe registers a listener whose channel holds up to buffer pending
// events. A buffer below one is raised to one.
func (b *Broadcaster) Subscribe(buffer int) *Subscription {
	if buffer < 1 {
		buffer = 1
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	sub := &Subscription{
		id:     b.nextID,
		events: make(chan protocol.Event, buffer),
		done:   make(chan struct{}),
		owner:  b,
	}
	b.subs[sub.id] = sub

	b.log.Debug("Subscriber registered",
		zap.Uint64("subscriber_id", sub.id),
		zap.Int("subscriber_count", len(b.subs)))

	return sub
}

// Publish hands event to every subscription without waiting. A subscriber
// whose buffer is full is evicted: its subscription is closed and it sees
// Done.
func (b *Broadcaster) Publish(_ context.Context, event protocol.Event) {
	for _, sub := range b.snapshot() {
		select {
		case <-sub.done:
			continue
		default:
		}

		select {
		case sub.events <- event:
		default:
			b.log.Warn("Subscriber fell behind, evicting",
				zap.Uint64("subscriber_id", sub.id),
				zap.Int("buffer", cap(sub.events)),
				zap.String("type", event.EventType()),
				zap.String("request_id", event.EventRequestID()))
			sub.Close()
		}
	}
}

// Subscribers returns the number of open subscriptions
func (b *Broadcaster) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

func (b *Broadcaster) snapshot() []*Subscription {
	b.mu.RLock()
	defer b.mu.RUnlock()

	subs := make([]*Subscription, 0, len(b.subs))
	for _, sub := range b.subs {
		subs = append(subs, sub)
	}
	return subs
}

func (b *Broadcaster) remove(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.subs, id)
	b.log.Debug("Subscriber removed",
		zap.Uint64("subscriber_id", id),
		zap.Int("subscriber_count", len(b.subs)))
}
