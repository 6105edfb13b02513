// Package offline tracks provider reachability and replays queued
// operations once connectivity returns.
package offline

import (
	"context"
	"sync"
	"time"

	"portal/authgate/internal/model"
)

// Action is a deferred retry closure.
type Action func(ctx context.Context) error

// Manager owns the online flag, the retry queue, and the waiters
// blocked on reconnection. Transitions come from explicit SetOnline
// calls (event-driven) and from the health-check poll in Run, which
// covers environments where passive events are unreliable.
type Manager struct {
	health   func(ctx context.Context) error
	interval time.Duration

	mu         sync.Mutex
	online     bool
	lastOnline time.Time
	queue      []Action
	waiters    []chan struct{}
}

func NewManager(health func(ctx context.Context) error, interval time.Duration) *Manager {
	return &Manager{
		health:     health,
		interval:   interval,
		online:     true,
		lastOnline: time.Now().UTC(),
	}
}

// Run polls the health check until ctx is cancelled.
func (m *Manager) Run(ctx context.Context) {
	if m.health == nil || m.interval <= 0 {
		return
	}
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.SetOnline(ctx, m.health(ctx) == nil)
		}
	}
}

// SetOnline records a connectivity transition. Going from offline to
// online wakes WaitForConnection callers and drains the retry queue.
func (m *Manager) SetOnline(ctx context.Context, online bool) {
	m.mu.Lock()
	wasOnline := m.online
	m.online = online
	if online {
		m.lastOnline = time.Now().UTC()
	}
	var waiters []chan struct{}
	if online && !wasOnline {
		waiters = m.waiters
		m.waiters = nil
	}
	m.mu.Unlock()

	for _, w := range waiters {
		close(w)
	}
	if online && !wasOnline {
		m.drain(ctx)
	}
}

// Online reports current reachability.
func (m *Manager) Online() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

// LastOnline returns the time of the most recent online transition or
// successful health check.
func (m *Manager) LastOnline() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastOnline
}

// QueueRetry appends action to the ordered replay queue.
func (m *Manager) QueueRetry(action Action) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = append(m.queue, action)
}

// QueueLen reports the number of pending actions.
func (m *Manager) QueueLen() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queue)
}

// WaitForConnection blocks until the manager goes online or timeout
// elapses. The waiter is unregistered on timeout so nothing leaks.
func (m *Manager) WaitForConnection(ctx context.Context, timeout time.Duration) bool {
	m.mu.Lock()
	if m.online {
		m.mu.Unlock()
		return true
	}
	waiter := make(chan struct{})
	m.waiters = append(m.waiters, waiter)
	m.mu.Unlock()

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-waiter:
		return true
	case <-timer.C:
		m.removeWaiter(waiter)
		return false
	case <-ctx.Done():
		m.removeWaiter(waiter)
		return false
	}
}

func (m *Manager) removeWaiter(waiter chan struct{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, w := range m.waiters {
		if w == waiter {
			m.waiters = append(m.waiters[:i], m.waiters[i+1:]...)
			return
		}
	}
}

// drain replays the queue front-to-back. A network-classified failure
// pushes the action back to the front and stops draining so a
// still-bad connection is not hot-looped; other failures are dropped
// after their one attempt.
func (m *Manager) drain(ctx context.Context) {
	for {
		m.mu.Lock()
		if !m.online || len(m.queue) == 0 {
			m.mu.Unlock()
			return
		}
		action := m.queue[0]
		m.queue = m.queue[1:]
		m.mu.Unlock()

		err := action(ctx)
		if err != nil && model.IsTransient(err) {
			m.mu.Lock()
			m.queue = append([]Action{action}, m.queue...)
			m.online = false
			m.mu.Unlock()
			return
		}
	}
}
