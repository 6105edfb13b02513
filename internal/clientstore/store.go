// Package clientstore is the client-side source of truth for
// {user, session, profile, loading}. It populates lazily through the
// operation deduplicator and TTL cache, listens to provider
// auth-state-change events, and leans on the offline manager when the
// provider is unreachable.
package clientstore

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"portal/authgate/internal/cache"
	"portal/authgate/internal/dedup"
	"portal/authgate/internal/identity"
	"portal/authgate/internal/model"
	"portal/authgate/internal/offline"
	"portal/authgate/internal/profile"
	"portal/authgate/internal/session"
)

// Snapshot is what consumers observe. It is always settled: the store
// surfaces errors as state, never as panics past its boundary.
type Snapshot struct {
	UserID  string
	Session *model.Session
	Profile *model.Profile
	Loading bool
	Err     error
}

// Options wires the store's collaborators. Locks, timers, and cache
// are owned per instance, never process-wide, so isolated instances
// (tests included) cannot cross-contaminate.
type Options struct {
	Provider    identity.Provider
	Profiles    profile.Store
	Cache       cache.Store[model.Profile]
	Offline     *offline.Manager
	Credentials identity.Credentials

	MaxRetries     int
	RetryDelay     time.Duration
	SessionGrace   time.Duration
	CacheTTL       time.Duration
	DebounceWindow time.Duration
}

type Store struct {
	provider identity.Provider
	profiles profile.Store
	cache    cache.Store[model.Profile]
	group    *dedup.Group[model.Profile]
	offline  *offline.Manager
	creds    identity.Credentials

	validator      session.Validator
	cacheTTL       time.Duration
	debounceWindow time.Duration

	mu          sync.Mutex
	snapshot    Snapshot
	subs        map[string]func(Snapshot)
	unsubscribe func()
	initialized bool
}

func New(opts Options) *Store {
	if opts.Cache == nil {
		opts.Cache = cache.NewMemory[model.Profile]("profiles")
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 2
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = 100 * time.Millisecond
	}
	if opts.SessionGrace <= 0 {
		opts.SessionGrace = 120 * time.Second
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = cache.DefaultTTL
	}
	if opts.DebounceWindow <= 0 {
		opts.DebounceWindow = 300 * time.Millisecond
	}
	return &Store{
		provider: opts.Provider,
		profiles: opts.Profiles,
		cache:    opts.Cache,
		group:    dedup.NewGroup[model.Profile](),
		offline:  opts.Offline,
		creds:    opts.Credentials,
		validator: session.Validator{
			Provider:   opts.Provider,
			MaxRetries: opts.MaxRetries,
			RetryDelay: opts.RetryDelay,
			Grace:      opts.SessionGrace,
		},
		cacheTTL:       opts.CacheTTL,
		debounceWindow: opts.DebounceWindow,
		subs:           make(map[string]func(Snapshot)),
	}
}

// Initialize loads the current session and profile and subscribes to
// auth-state-change events. Idempotent: repeated calls on a mounted
// store are no-ops, so mounting the store from several components
// never multiplies backend calls.
func (s *Store) Initialize(ctx context.Context) {
	s.mu.Lock()
	if s.initialized {
		s.mu.Unlock()
		return
	}
	s.initialized = true
	s.snapshot.Loading = true
	s.mu.Unlock()
	s.publish()

	result := s.validator.Validate(ctx, s.creds)

	s.mu.Lock()
	s.snapshot.Session = result.Session
	if result.Session != nil {
		s.snapshot.UserID = result.Session.UserID
	}
	s.snapshot.Err = result.Err
	s.mu.Unlock()

	if result.IsValid() && result.Session != nil {
		s.resolveProfile(ctx, result.Session.UserID)
	}

	unsubscribe := s.provider.Subscribe(func(event identity.Event) {
		s.handleAuthEvent(event)
	})
	s.mu.Lock()
	s.unsubscribe = unsubscribe
	s.snapshot.Loading = false
	s.mu.Unlock()
	s.publish()
}

// Snapshot returns the current settled state.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot
}

// Subscribe registers a listener for snapshot changes and returns its
// cancel function.
func (s *Store) Subscribe(fn func(Snapshot)) func() {
	id := uuid.NewString()
	s.mu.Lock()
	s.subs[id] = fn
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// Teardown unsubscribes from the provider, cancels pending debounce
// timers, and drops listeners. The store may be initialized again
// afterwards (a fresh mount).
func (s *Store) Teardown() {
	s.mu.Lock()
	unsubscribe := s.unsubscribe
	s.unsubscribe = nil
	s.initialized = false
	s.subs = make(map[string]func(Snapshot))
	s.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	s.group.Stop()
}

// RefreshProfile re-resolves the profile for the current session,
// going through the cache and the deduplicator. Safe to call from any
// number of consumers.
func (s *Store) RefreshProfile(ctx context.Context) {
	s.mu.Lock()
	sess := s.snapshot.Session
	s.mu.Unlock()
	if sess == nil {
		return
	}
	s.resolveProfile(ctx, sess.UserID)
}

// CreateProfile schedules profile creation, collapsing rapid repeated
// triggers within the debounce window into one execution. Multiple UI
// effects firing on mount therefore cannot race duplicate inserts.
func (s *Store) CreateProfile(ctx context.Context, p model.Profile) {
	s.group.Debounce("create:"+p.UserID, s.debounceWindow, func() {
		_, err := s.group.Do(ctx, p.UserID, dedup.StateCreating, func(ctx context.Context) (model.Profile, error) {
			if err := s.profiles.Insert(ctx, p); err != nil {
				return model.Profile{}, err
			}
			return p, nil
		})
		if err != nil {
			s.recordError(err)
			s.queueRetry(err, func(ctx context.Context) error {
				return s.profiles.Insert(ctx, p)
			})
			return
		}
		_ = s.cache.Set(ctx, p.UserID, p, s.cacheTTL)
		s.setProfile(p)
	})
}

// Invalidate drops the cached profile for the current user so the
// next resolution hits the store again.
func (s *Store) Invalidate(ctx context.Context) {
	s.mu.Lock()
	userID := s.snapshot.UserID
	s.mu.Unlock()
	if userID != "" {
		_ = s.cache.Invalidate(ctx, userID)
	}
}

func (s *Store) resolveProfile(ctx context.Context, userID string) {
	if err := s.fetchProfile(ctx, userID); err != nil {
		s.queueRetry(err, func(ctx context.Context) error {
			return s.fetchProfile(ctx, userID)
		})
	}
}

// fetchProfile loads the profile through the cache and deduplicator.
// Absence is a state, not an error; the returned error is the fetch
// failure, so a queued replay that fails again reports it to the
// offline manager's re-queue logic.
func (s *Store) fetchProfile(ctx context.Context, userID string) error {
	if cached, ok, _ := s.cache.Get(ctx, userID); ok {
		s.setProfile(cached)
		return nil
	}

	p, err := s.group.Do(ctx, userID, dedup.StateFetching, func(ctx context.Context) (model.Profile, error) {
		return s.profiles.GetByUserID(ctx, userID)
	})
	if err != nil {
		if errors.Is(err, profile.ErrNotFound) || model.IsNotFound(err) {
			// Absence is a state: the UI drives creation.
			s.setProfile(model.Profile{})
			return nil
		}
		s.recordError(err)
		return err
	}

	_ = s.cache.Set(ctx, userID, p, s.cacheTTL)
	s.setProfile(p)
	return nil
}

func (s *Store) handleAuthEvent(event identity.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	switch event.Type {
	case identity.EventSignedIn:
		s.mu.Lock()
		s.snapshot.Session = event.Session
		if event.Session != nil {
			s.snapshot.UserID = event.Session.UserID
		}
		s.snapshot.Err = nil
		s.mu.Unlock()
		if event.Session != nil {
			s.resolveProfile(ctx, event.Session.UserID)
		}
		s.publish()
	case identity.EventSignedOut:
		// Purge the whole cache namespace; no enumeration of user
		// ids is needed.
		_ = s.cache.Invalidate(ctx)
		s.mu.Lock()
		s.snapshot = Snapshot{}
		s.mu.Unlock()
		s.publish()
	}
}

func (s *Store) setProfile(p model.Profile) {
	s.mu.Lock()
	if p.UserID == "" {
		s.snapshot.Profile = nil
	} else {
		copied := p
		s.snapshot.Profile = &copied
	}
	s.snapshot.Err = nil
	s.mu.Unlock()
	s.publish()
}

func (s *Store) recordError(err error) {
	s.mu.Lock()
	s.snapshot.Err = err
	s.mu.Unlock()
	s.publish()
}

func (s *Store) queueRetry(err error, action offline.Action) {
	if s.offline == nil || !model.IsTransient(err) {
		return
	}
	s.offline.QueueRetry(action)
	// A transient failure is itself evidence connectivity is lost,
	// even when the last health probe passed. Marking the manager
	// offline guarantees the next successful probe replays the queue.
	s.offline.SetOnline(context.Background(), false)
}

func (s *Store) publish() {
	s.mu.Lock()
	snapshot := s.snapshot
	fns := make([]func(Snapshot), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.Unlock()
	for _, fn := range fns {
		fn(snapshot)
	}
}
