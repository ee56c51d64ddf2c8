package order

import (
	"context"
	"sync"
	"time"
)

// EventType identifies what happened to an order
type EventType string

const (
	EventCreated       EventType = "order.created"
	EventStatusChanged EventType = "order.status_changed"
	EventCanceled      EventType = "order.canceled"
	EventDeleted       EventType = "order.deleted"
)

// Event is published after the change it describes has been committed.
// GuestToken and Email are only set for guest order creation.
type Event struct {
	Type       EventType `json:"type"`
	OrderID    uint      `json:"order_id"`
	Status     Status    `json:"status,omitempty"`
	Order      *Order    `json:"order,omitempty"`
	GuestToken string    `json:"-"`
	Email      string    `json:"-"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Listener receives order events. HandleOrderEvent must not block for long.
type Listener interface {
	HandleOrderEvent(ctx context.Context, event Event)
}

// ListenerFunc adapts a function to Listener
type ListenerFunc func(ctx context.Context, event Event)

func (f ListenerFunc) HandleOrderEvent(ctx context.Context, event Event) {
	f(ctx, event)
}

type publisher struct {
	mu        sync.RWMutex
	listeners []Listener
}

func (p *publisher) subscribe(l Listener) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.listeners = append(p.listeners, l)
}

func (p *publisher) publish(ctx context.Context, event Event) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	p.mu.RLock()
	listeners := make([]Listener, len(p.listeners))
	copy(listeners, p.listeners)
	p.mu.RUnlock()

	for _, l := range listeners {
		l.HandleOrderEvent(ctx, event)
	}
}
