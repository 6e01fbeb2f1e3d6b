// Package observe provides a value holder that notifies subscribers on change.
package observe

import (
	"slices"
	"sync"
)

// Value holds the current state and a set of listeners. A new subscriber is
// immediately called with the current state.
type Value[T any] struct {
	mu        sync.Mutex
	cur       T
	next      uint64
	listeners map[uint64]func(T)
}

// NewValue returns a Value holding initial.
func NewValue[T any](initial T) *Value[T] {
	return &Value[T]{cur: initial, listeners: map[uint64]func(T){}}
}

// Get returns the current state.
func (v *Value[T]) Get() T {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.cur
}

// Set replaces the state and notifies every listener.
func (v *Value[T]) Set(next T) {
	v.mu.Lock()
	v.cur = next
	fns := v.snapshot()
	v.mu.Unlock()

	for _, fn := range fns {
		fn(next)
	}
}

// Update applies fn to the current state and notifies with the result.
func (v *Value[T]) Update(fn func(T) T) T {
	v.mu.Lock()
	v.cur = fn(v.cur)
	cur := v.cur
	fns := v.snapshot()
	v.mu.Unlock()

	for _, l := range fns {
		l(cur)
	}
	return cur
}

// Subscribe registers fn, replays the current state to it, and returns a
// cancel func. After cancel returns fn receives no further notifications
// started after that point.
func (v *Value[T]) Subscribe(fn func(T)) (cancel func()) {
	v.mu.Lock()
	id := v.next
	v.next++
	v.listeners[id] = fn
	cur := v.cur
	v.mu.Unlock()

	fn(cur)

	var once sync.Once
	return func() {
		once.Do(func() {
			v.mu.Lock()
			delete(v.listeners, id)
			v.mu.Unlock()
		})
	}
}

// Len returns the number of active subscribers.
func (v *Value[T]) Len() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.listeners)
}

// snapshot must be called with mu held. Listeners run in registration order.
func (v *Value[T]) snapshot() []func(T) {
	ids := make([]uint64, 0, len(v.listeners))
	for id := range v.listeners {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	fns := make([]func(T), len(ids))
	for i, id := range ids {
		fns[i] = v.listeners[id]
	}
	return fns
}
