// Package events broadcasts widget lifecycle events to in-process listeners.
package events

import (
	"context"
	"log/slog"
	"sync"

	"genie-dashboard/internal/domain"
)

var _ domain.WidgetEventPublisher = (*Broker)(nil)

const subscriberBuffer = 16

// Broker fans widget events out to subscribers. Publish never blocks: a
// subscriber whose buffer is full misses the event.
type Broker struct {
	mu     sync.RWMutex
	subs   map[chan domain.WidgetEvent]struct{}
	logger *slog.Logger
}

// NewBroker creates a Broker.
func NewBroker(logger *slog.Logger) *Broker {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Broker{
		subs:   make(map[chan domain.WidgetEvent]struct{}),
		logger: logger.With("component", "events"),
	}
}

// Subscribe registers a listener. The returned channel is closed once ctx
// is done.
func (b *Broker) Subscribe(ctx context.Context) <-chan domain.WidgetEvent {
	ch := make(chan domain.WidgetEvent, subscriberBuffer)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		delete(b.subs, ch)
		b.mu.Unlock()
		close(ch)
	}()
	return ch
}

// Publish delivers ev to every subscriber with buffer space.
func (b *Broker) Publish(ev domain.WidgetEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for ch := range b.subs {
		select {
		case ch <- ev:
		default:
			b.logger.Debug("dropping widget event for slow subscriber",
				"type", ev.Type, "widget_id", ev.WidgetID)
		}
	}
}

// Subscribers returns the number of active subscribers.
func (b *Broker) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
