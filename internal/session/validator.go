// Package session validates provider sessions with bounded retries.
// The edge gate and the client state store share this logic.
package session

import (
	"context"
	"time"

	"portal/authgate/internal/identity"
	"portal/authgate/internal/model"
)

// Status classifies a validation outcome.
type Status string

const (
	// StatusValid covers both a healthy session and the deliberate
	// "no session at all" case; absence is not a failure.
	StatusValid   Status = "valid"
	StatusExpired Status = "expired"
	StatusInvalid Status = "invalid"
	StatusError   Status = "error"
)

// Result is the single shape every validation branch returns, so
// callers never special-case transport failures against business
// rejections.
type Result struct {
	Session *model.Session
	Status  Status
	Err     error
}

// IsValid reports whether the gate may trust the outcome.
func (r Result) IsValid() bool { return r.Status == StatusValid }

// Validator fetches the current session from the provider, retrying
// transient faults with a fixed delay.
type Validator struct {
	Provider   identity.Provider
	MaxRetries int
	RetryDelay time.Duration
	Grace      time.Duration

	// Now is overridable in tests; defaults to time.Now.
	Now func() time.Time
}

// Validate performs at most MaxRetries+1 provider calls. Terminal
// faults never retry; a session handed back alongside a terminal
// fault is trusted rather than discarded, so a flaky provider does
// not lock out an otherwise-good session.
func (v Validator) Validate(ctx context.Context, creds identity.Credentials) Result {
	var session *model.Session
	var err error

	for attempt := 0; ; attempt++ {
		session, err = v.Provider.CurrentSession(ctx, creds)
		if err == nil {
			break
		}
		if model.IsTransient(err) {
			if attempt < v.MaxRetries {
				if sleepErr := sleep(ctx, v.RetryDelay); sleepErr != nil {
					return Result{Status: StatusError, Err: sleepErr}
				}
				continue
			}
			return Result{Status: StatusError, Err: err}
		}
		if session != nil {
			break
		}
		switch model.KindOf(err) {
		case model.FaultExpired:
			return Result{Status: StatusExpired, Err: err}
		case model.FaultInvalid:
			return Result{Status: StatusInvalid, Err: err}
		default:
			return Result{Status: StatusError, Err: err}
		}
	}

	if session == nil {
		return Result{Status: StatusValid}
	}

	now := time.Now().UTC()
	if v.Now != nil {
		now = v.Now().UTC()
	}
	if session.ExpiresAt.Sub(now) < v.Grace {
		return Result{Session: session, Status: StatusExpired}
	}
	if session.UserID == "" {
		return Result{Session: session, Status: StatusInvalid}
	}
	return Result{Session: session, Status: StatusValid}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
