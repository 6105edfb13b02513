// Package dedup collapses concurrent same-key operations into one
// in-flight execution and debounces rapid repeated triggers.
package dedup

import (
	"context"
	"sync"
	"time"
)

// State tags the operation in flight for a key.
type State string

const (
	StateIdle     State = "idle"
	StateFetching State = "fetching"
	StateCreating State = "creating"
	StateError    State = "error"
)

type call[T any] struct {
	done chan struct{}
	val  T
	err  error
}

// Group serializes operations per key. While a key has a call in
// flight, later callers join it and receive the same result instead
// of hitting the backend again. The error state is retained so the
// next caller is allowed to retry; it never locks the key.
type Group[T any] struct {
	mu     sync.Mutex
	calls  map[string]*call[T]
	states map[string]State
	timers map[string]*time.Timer
}

func NewGroup[T any]() *Group[T] {
	return &Group[T]{
		calls:  make(map[string]*call[T]),
		states: make(map[string]State),
		timers: make(map[string]*time.Timer),
	}
}

// Do executes op under key's lock with the given running state
// (StateFetching or StateCreating). Concurrent callers for the same
// key share the first caller's result, including its error.
func (g *Group[T]) Do(ctx context.Context, key string, running State, op func(context.Context) (T, error)) (T, error) {
	g.mu.Lock()
	if existing, ok := g.calls[key]; ok {
		g.mu.Unlock()
		select {
		case <-existing.done:
			return existing.val, existing.err
		case <-ctx.Done():
			var zero T
			return zero, ctx.Err()
		}
	}

	c := &call[T]{done: make(chan struct{})}
	g.calls[key] = c
	g.states[key] = running
	g.mu.Unlock()

	c.val, c.err = op(ctx)

	g.mu.Lock()
	delete(g.calls, key)
	if c.err != nil {
		g.states[key] = StateError
	} else {
		delete(g.states, key)
	}
	g.mu.Unlock()

	close(c.done)
	return c.val, c.err
}

// State returns the key's current tag, StateIdle when unknown.
func (g *Group[T]) State(key string) State {
	g.mu.Lock()
	defer g.mu.Unlock()
	if s, ok := g.states[key]; ok {
		return s
	}
	return StateIdle
}

// Debounce schedules fn to run after window. A repeated call for the
// same key before the window elapses resets the timer, so only the
// last trigger fires.
func (g *Group[T]) Debounce(key string, window time.Duration, fn func()) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if timer, ok := g.timers[key]; ok {
		timer.Stop()
	}
	g.timers[key] = time.AfterFunc(window, func() {
		g.mu.Lock()
		delete(g.timers, key)
		g.mu.Unlock()
		fn()
	})
}

// Stop cancels all pending debounce timers. Call on teardown so
// nothing fires after the owner is gone.
func (g *Group[T]) Stop() {
	g.mu.Lock()
	defer g.mu.Unlock()
	for key, timer := range g.timers {
		timer.Stop()
		delete(g.timers, key)
	}
}
