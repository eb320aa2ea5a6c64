package events

import (
	"context"
	"errors"
	"sync"
)

// ErrSubscriberFull is returned when a slow subscriber's buffer overflowed
// and the event was dropped for it.
var ErrSubscriberFull = errors.New("subscriber buffer full")

const defaultBuffer = 16

// Bus is an in-memory publisher with per-request subscriptions.
type Bus struct {
	mu     sync.RWMutex
	nextID int
	subs   map[string]map[int]chan Event
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[string]map[int]chan Event)}
}

// Subscribe returns a channel receiving events for requestID. The channel is
// closed after the terminal event or when cancel is called.
func (b *Bus) Subscribe(requestID string) (<-chan Event, func()) {
	ch := make(chan Event, defaultBuffer)

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	if b.subs[requestID] == nil {
		b.subs[requestID] = make(map[int]chan Event)
	}
	b.subs[requestID][id] = ch
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() { b.remove(requestID, id) })
	}
}

func (b *Bus) remove(requestID string, id int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	subs := b.subs[requestID]
	ch, ok := subs[id]
	if !ok {
		return
	}
	delete(subs, id)
	close(ch)
	if len(subs) == 0 {
		delete(b.subs, requestID)
	}
}

// Publish never blocks; subscribers that fall behind miss events.
func (b *Bus) Publish(_ context.Context, e Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.subs[e.RequestID]
	var dropped bool
	for _, ch := range subs {
		select {
		case ch <- e:
		default:
			dropped = true
		}
	}
	if e.Terminal() {
		for _, ch := range subs {
			close(ch)
		}
		delete(b.subs, e.RequestID)
	}
	if dropped {
		return ErrSubscriberFull
	}
	return nil
}

// Subscribers reports the number of live subscriptions for requestID.
func (b *Bus) Subscribers(requestID string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[requestID])
}
