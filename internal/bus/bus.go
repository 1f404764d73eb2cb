// Package bus serializes work from many producers into one ordered stream.
package bus

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"
)

// DefaultPollInterval is how often Run drains the queue when no period is given.
const DefaultPollInterval = 50 * time.Millisecond

// ErrClosed is returned by Run when the bus was closed.
var ErrClosed = errors.New("bus closed")

// Bus is an unbounded multi-producer, single-consumer FIFO queue.
//
// Send may be called from any goroutine, including OS callback contexts, and never
// blocks. Exactly one goroutine should call Run.
type Bus[T any] struct {
	mu     sync.Mutex
	items  []T
	closed bool
	done   chan struct{}
}

// New creates an open, empty bus.
func New[T any]() *Bus[T] {
	return &Bus[T]{done: make(chan struct{})}
}

// Send enqueues v. It returns false once the bus is closed.
func (b *Bus[T]) Send(v T) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return false
	}
	b.items = append(b.items, v)
	return true
}

// Len returns the number of items waiting for the next drain.
func (b *Bus[T]) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.items)
}

// Close stops accepting items. Items already queued are still handled by the
// final drain of Run.
func (b *Bus[T]) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	close(b.done)
}

// Run drains the queue every period and passes each item to handle in FIFO order.
// A handler error or panic is logged and the drain continues with the next item.
// Run returns ctx.Err() when ctx is cancelled and ErrClosed after Close, in both
// cases once the current drain has finished.
func (b *Bus[T]) Run(ctx context.Context, period time.Duration, handle func(T) error) error {
	if period <= 0 {
		period = DefaultPollInterval
	}
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-b.done:
			b.Drain(handle)
			return ErrClosed
		case <-ticker.C:
			b.Drain(handle)
		}
	}
}

// Drain handles everything queued right now and returns how many items it took.
// Items sent while draining wait for the next call.
func (b *Bus[T]) Drain(handle func(T) error) int {
	b.mu.Lock()
	items := b.items
	b.items = nil
	b.mu.Unlock()

	for _, item := range items {
		if err := safeHandle(handle, item); err != nil {
			log.Printf("Bus: handler failed for %T: %v", item, err)
		}
	}
	return len(items)
}

func safeHandle[T any](handle func(T) error, item T) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return handle(item)
}
