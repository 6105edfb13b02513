// Package identity adapts the external identity provider. The rest of
// the system talks to the Provider interface and switches on tagged
// faults, never on provider wire details.
package identity

import (
	"context"
	"net/http"

	"portal/authgate/internal/model"
)

// Credentials carry whatever proof of authentication the caller has:
// a bearer token, provider cookies, or both.
type Credentials struct {
	AccessToken string
	Cookies     []*http.Cookie
}

// EventType enumerates auth-state-change events.
type EventType string

const (
	EventSignedIn  EventType = "SIGNED_IN"
	EventSignedOut EventType = "SIGNED_OUT"
)

// Event is delivered to auth-state-change subscribers.
type Event struct {
	Type    EventType
	Session *model.Session
}

// Provider is the consumed surface of the identity provider.
//
// CurrentSession returns (nil, nil) when the caller simply has no
// session; absence is not an error. Errors are tagged model.Fault
// values.
type Provider interface {
	CurrentSession(ctx context.Context, creds Credentials) (*model.Session, error)
	SignOut(ctx context.Context, creds Credentials) error
	Subscribe(fn func(Event)) (unsubscribe func())
	HealthCheck(ctx context.Context) error
}
