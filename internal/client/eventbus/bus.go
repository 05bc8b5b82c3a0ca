// Package eventbus is a typed, in-process publish/subscribe channel.
package eventbus

import (
	"context"
	"sync"

	"bazaar/internal/errors"
)

// Handler consumes one event.
type Handler[T any] func(ctx context.Context, event T) error

type subscription[T any] struct {
	id      uint64
	handler Handler[T]
}

// Bus delivers each published event to every subscriber in subscription order.
// Delivery is synchronous so publishers observe ordering and errors.
type Bus[T any] struct {
	mu     sync.RWMutex
	nextID uint64
	subs   []subscription[T]
}

func New[T any]() *Bus[T] {
	return &Bus[T]{}
}

// Subscribe registers handler and returns a function that removes it.
// The returned function is safe to call more than once.
func (b *Bus[T]) Subscribe(handler Handler[T]) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.subs = append(b.subs, subscription[T]{id: id, handler: handler})

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()

		for i, sub := range b.subs {
			if sub.id == id {
				b.subs = append(b.subs[:i:i], b.subs[i+1:]...)

				return
			}
		}
	}
}

// Publish calls every subscriber even when an earlier one fails and joins their errors.
func (b *Bus[T]) Publish(ctx context.Context, event T) error {
	b.mu.RLock()
	subs := make([]subscription[T], len(b.subs))
	copy(subs, b.subs)
	b.mu.RUnlock()

	var errs []error
	for _, sub := range subs {
		if err := sub.handler(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// Len reports the number of active subscribers.
func (b *Bus[T]) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return len(b.subs)
}
