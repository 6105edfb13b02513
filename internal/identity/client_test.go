package identity

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"portal/authgate/internal/model"
)

func TestCurrentSessionAbsentIsNotAnError(t *testing.T) {
	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer provider.Close()

	client := NewClient(ClientOptions{BaseURL: provider.URL})
	session, err := client.CurrentSession(context.Background(), Credentials{})
	if err != nil {
		t.Fatalf("expected no error for absent session, got %v", err)
	}
	if session != nil {
		t.Fatalf("expected nil session, got %+v", session)
	}
}

func TestCurrentSessionFillsFieldsFromToken(t *testing.T) {
	token, err := NewSessionToken("secret", "issuer", "user-1", time.Hour)
	if err != nil {
		t.Fatalf("token error: %v", err)
	}

	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"access_token": token})
	}))
	defer provider.Close()

	client := NewClient(ClientOptions{BaseURL: provider.URL, JWTSecret: "secret", JWTIssuer: "issuer"})
	session, err := client.CurrentSession(context.Background(), Credentials{})
	if err != nil {
		t.Fatalf("session error: %v", err)
	}
	if session == nil || session.UserID != "user-1" {
		t.Fatalf("expected session for user-1, got %+v", session)
	}
	if session.ExpiresAt.IsZero() {
		t.Fatal("expected expiry from token claims")
	}
}

func TestCurrentSessionTransportFaultIsTransient(t *testing.T) {
	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	provider.Close() // connection refused from here on

	client := NewClient(ClientOptions{BaseURL: provider.URL})
	_, err := client.CurrentSession(context.Background(), Credentials{})
	if err == nil {
		t.Fatal("expected error")
	}
	if !model.IsTransient(err) {
		t.Fatalf("expected transient fault, got %v (kind %s)", err, model.KindOf(err))
	}
}

func TestCurrentSessionServerErrorIsBackend(t *testing.T) {
	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer provider.Close()

	client := NewClient(ClientOptions{BaseURL: provider.URL})
	_, err := client.CurrentSession(context.Background(), Credentials{})
	if model.KindOf(err) != model.FaultBackend {
		t.Fatalf("expected backend fault, got %v", err)
	}
}

func TestSignOutPublishesSignedOut(t *testing.T) {
	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer provider.Close()

	client := NewClient(ClientOptions{BaseURL: provider.URL})

	events := make(chan Event, 1)
	unsubscribe := client.Subscribe(func(e Event) { events <- e })
	defer unsubscribe()

	if err := client.SignOut(context.Background(), Credentials{}); err != nil {
		t.Fatalf("signout error: %v", err)
	}

	select {
	case event := <-events:
		if event.Type != EventSignedOut {
			t.Fatalf("expected SIGNED_OUT, got %s", event.Type)
		}
	case <-time.After(time.Second):
		t.Fatal("expected an auth event")
	}
}

func TestUnsubscribeStopsEvents(t *testing.T) {
	client := NewClient(ClientOptions{BaseURL: "http://127.0.0.1:0"})

	calls := 0
	unsubscribe := client.Subscribe(func(Event) { calls++ })
	unsubscribe()
	client.publish(Event{Type: EventSignedIn})

	if calls != 0 {
		t.Fatalf("expected no calls after unsubscribe, got %d", calls)
	}
}

func TestSessionTokenRoundTrip(t *testing.T) {
	token, err := NewSessionToken("secret", "issuer", "user-9", 30*time.Minute)
	if err != nil {
		t.Fatalf("token error: %v", err)
	}

	session, err := SessionFromToken("secret", "issuer", token)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if session.UserID != "user-9" {
		t.Fatalf("unexpected user id %q", session.UserID)
	}
	if session.ExpiresAt.Before(time.Now().Add(25 * time.Minute)) {
		t.Fatalf("unexpected expiry %s", session.ExpiresAt)
	}

	if _, err := SessionFromToken("wrong-secret", "issuer", token); model.KindOf(err) != model.FaultInvalid {
		t.Fatalf("expected invalid fault for bad secret, got %v", err)
	}
	if _, err := SessionFromToken("secret", "other-issuer", token); model.KindOf(err) != model.FaultInvalid {
		t.Fatalf("expected invalid fault for issuer mismatch, got %v", err)
	}
}
