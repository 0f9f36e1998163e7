package event

import (
	"sync"
	"sync/atomic"
)

type (
	// Bus delivers events synchronously to the handlers subscribed to their type.
	Bus struct {
		mu            sync.RWMutex
		subscriptions map[string][]Handler
	}

	Handler func(event Queueable)

	Queueable interface {
		Process()
		IsProcessed() bool
		Drop()
		IsDropped() bool
		Type() string
	}

	// Base implements Queueable and is meant to be embedded into concrete events.
	Base struct {
		processed atomic.Bool
		dropped   atomic.Bool
		eventType string
	}
)

func CreateBase(eventType string) *Base {
	return &Base{eventType: eventType}
}

// Process marks the event as handled by a subscriber.
func (b *Base) Process() {
	b.processed.Store(true)
}

func (b *Base) IsProcessed() bool {
	return b.processed.Load()
}

// Drop stops delivery to the remaining subscribers.
func (b *Base) Drop() {
	b.dropped.Store(true)
}

func (b *Base) IsDropped() bool {
	return b.dropped.Load()
}

func (b *Base) Type() string {
	return b.eventType
}

func NewBus() *Bus {
	return &Bus{subscriptions: map[string][]Handler{}}
}

func (b *Bus) Subscribe(eventType string, handler Handler) {
	if handler == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscriptions[eventType] = append(b.subscriptions[eventType], handler)
}

func (b *Bus) HasSubscribers(eventType string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscriptions[eventType]) > 0
}

// Publish runs the subscribers in subscription order and reports whether any of them processed the event.
func (b *Bus) Publish(event Queueable) bool {
	if event == nil {
		return false
	}
	b.mu.RLock()
	subscribers := append([]Handler(nil), b.subscriptions[event.Type()]...)
	b.mu.RUnlock()

	for _, sub := range subscribers {
		sub(event)
		if event.IsDropped() {
			break
		}
	}
	return event.IsProcessed()
}
