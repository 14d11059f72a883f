package pubsub

import (
	"context"
	"sync"
)

const bufferSize = 64

// Broker fans events out to subscribers. Slow subscribers miss events rather
// than stalling publishers.
type Broker[T any] struct {
	subs map[chan Event[T]]struct{}
	mu   sync.RWMutex
	done chan struct{}
}

var (
	_ Subscriber[any] = (*Broker[any])(nil)
	_ Publisher[any]  = (*Broker[any])(nil)
)

func NewBroker[T any]() *Broker[T] {
	return &Broker[T]{
		subs: make(map[chan Event[T]]struct{}),
		done: make(chan struct{}),
	}
}

// Shutdown closes every subscriber channel. Publishing afterwards is a no-op.
func (b *Broker[T]) Shutdown() {
	b.mu.Lock()
	defer b.mu.Unlock()

	select {
	case <-b.done:
		return
	default:
		close(b.done)
	}

	for ch := range b.subs {
		delete(b.subs, ch)
		close(ch)
	}
}

// Subscribe returns a channel of events that is closed when ctx is done or
// the broker shuts down.
func (b *Broker[T]) Subscribe(ctx context.Context) <-chan Event[T] {
	b.mu.Lock()
	defer b.mu.Unlock()

	select {
	case <-b.done:
		ch := make(chan Event[T])
		close(ch)
		return ch
	default:
	}

	sub := make(chan Event[T], bufferSize)
	b.subs[sub] = struct{}{}

	go func() {
		select {
		case <-ctx.Done():
		case <-b.done:
			return
		}

		b.mu.Lock()
		defer b.mu.Unlock()
		if _, ok := b.subs[sub]; ok {
			delete(b.subs, sub)
			close(sub)
		}
	}()

	return sub
}

func (b *Broker[T]) GetSubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

func (b *Broker[T]) Publish(t EventType, payload T) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	select {
	case <-b.done:
		return
	default:
	}

	event := Event[T]{Type: t, Payload: payload}
	for sub := range b.subs {
		select {
		case sub <- event:
		default:
			// Channel is full, subscriber is slow; skip the event.
		}
	}
}
