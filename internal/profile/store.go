// Package profile owns the application-level profile record and its
// resolution against route requirements.
package profile

import (
	"context"
	"errors"
	"sync"

	"portal/authgate/internal/model"
)

// ErrNotFound marks an absent profile. Check with errors.Is.
var ErrNotFound = errors.New("profile not found")

// Store is the consumed profile-store surface. Implementations:
// Postgres (prod), in-memory (tests, offline fallback).
type Store interface {
	GetByUserID(ctx context.Context, userID string) (model.Profile, error)
	Insert(ctx context.Context, p model.Profile) error
}

// Memory is a mutex-guarded in-memory Store.
type Memory struct {
	mu       sync.RWMutex
	profiles map[string]model.Profile
}

func NewMemory() *Memory {
	return &Memory{profiles: make(map[string]model.Profile)}
}

func (m *Memory) GetByUserID(_ context.Context, userID string) (model.Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if p, ok := m.profiles[userID]; ok {
		return p, nil
	}
	return model.Profile{}, ErrNotFound
}

func (m *Memory) Insert(_ context.Context, p model.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profiles[p.UserID] = p
	return nil
}
