package profile

import (
	"context"
	"errors"
	"time"

	"portal/authgate/internal/cache"
	"portal/authgate/internal/model"
)

// Resolution is the single result shape for profile resolution.
// NeedsCreation and NeedsCompletion are states, not errors; Err is
// set only for backend failures the caller must decide on.
type Resolution struct {
	Profile         model.Profile
	NeedsCreation   bool
	NeedsCompletion bool
	Err             error
}

// Resolver fetches and authorizes profiles. Cache is optional; when
// set, complete profiles are served from it for TTL between store
// reads.
type Resolver struct {
	Store Store
	Cache cache.Store[model.Profile]
	TTL   time.Duration
}

// Resolve fetches the profile for userID. Not-found means the profile
// still has to be created; any other store error is reported as-is
// with NeedsCreation false so the caller chooses fail-open or
// fail-closed.
func (r Resolver) Resolve(ctx context.Context, userID string) Resolution {
	if r.Cache != nil {
		if p, ok, _ := r.Cache.Get(ctx, userID); ok {
			return Resolution{Profile: p}
		}
	}

	p, err := r.Store.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) || model.IsNotFound(err) {
			return Resolution{NeedsCreation: true}
		}
		return Resolution{Err: err}
	}
	if !p.Complete() {
		// Incomplete profiles are not cached; completion should be
		// visible on the next request.
		return Resolution{Profile: p, NeedsCompletion: true}
	}
	if r.Cache != nil {
		_ = r.Cache.Set(ctx, userID, p, r.TTL)
	}
	return Resolution{Profile: p}
}

// HasRequiredRole authorizes a profile against a route category.
// Role-gated categories demand an exact role match; generic protected
// categories accept any authenticated profile.
func HasRequiredRole(p model.Profile, category model.RouteCategory) bool {
	required, ok := category.RequiredRole()
	if !ok {
		return true
	}
	return p.Role == required
}
