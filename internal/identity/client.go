package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"portal/authgate/internal/model"
)

// Client talks to the hosted identity provider over HTTP and fans
// auth-state-change events out to subscribers.
type Client struct {
	baseURL   string
	anonKey   string
	jwtSecret string
	jwtIssuer string
	http      *http.Client

	mu   sync.Mutex
	subs map[string]func(Event)
}

type ClientOptions struct {
	BaseURL   string
	AnonKey   string
	JWTSecret string
	JWTIssuer string
	Timeout   time.Duration
}

func NewClient(opts ClientOptions) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		baseURL:   strings.TrimRight(opts.BaseURL, "/"),
		anonKey:   opts.AnonKey,
		jwtSecret: opts.JWTSecret,
		jwtIssuer: opts.JWTIssuer,
		http:      &http.Client{Timeout: timeout},
		subs:      make(map[string]func(Event)),
	}
}

type sessionPayload struct {
	AccessToken string `json:"access_token"`
	ExpiresAt   int64  `json:"expires_at"`
	IssuedAt    int64  `json:"issued_at"`
	User        struct {
		ID string `json:"id"`
	} `json:"user"`
}

// CurrentSession asks the provider for the session matching the given
// credentials. A 401/404 answer means "no session" and is not an
// error. When the provider omits session fields the access token's
// own claims fill them in.
func (c *Client) CurrentSession(ctx context.Context, creds Credentials) (*model.Session, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/auth/v1/session", creds)
	if err != nil {
		return nil, model.NewFault(model.FaultBackend, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, model.NewFault(model.FaultTransient, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusNotFound:
		return nil, nil
	case resp.StatusCode >= 500:
		return nil, model.NewFault(model.FaultBackend, fmt.Errorf("provider status %d", resp.StatusCode))
	case resp.StatusCode != http.StatusOK:
		return nil, model.NewFault(model.FaultInvalid, fmt.Errorf("provider status %d", resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, model.NewFault(model.FaultTransient, err)
	}

	var payload sessionPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, model.NewFault(model.FaultBackend, err)
	}
	if payload.AccessToken == "" {
		return nil, nil
	}

	session := &model.Session{
		UserID:      payload.User.ID,
		AccessToken: payload.AccessToken,
	}
	if payload.IssuedAt > 0 {
		session.IssuedAt = time.Unix(payload.IssuedAt, 0).UTC()
	}
	if payload.ExpiresAt > 0 {
		session.ExpiresAt = time.Unix(payload.ExpiresAt, 0).UTC()
	}

	if session.UserID == "" || session.ExpiresAt.IsZero() {
		if fromToken, tokenErr := SessionFromToken(c.jwtSecret, c.jwtIssuer, payload.AccessToken); tokenErr == nil {
			if session.UserID == "" {
				session.UserID = fromToken.UserID
			}
			if session.IssuedAt.IsZero() {
				session.IssuedAt = fromToken.IssuedAt
			}
			if session.ExpiresAt.IsZero() {
				session.ExpiresAt = fromToken.ExpiresAt
			}
		}
	}

	return session, nil
}

// SignOut revokes the session at the provider and notifies
// subscribers. A provider answer of 401 is treated as already signed
// out.
func (c *Client) SignOut(ctx context.Context, creds Credentials) error {
	req, err := c.newRequest(ctx, http.MethodPost, "/auth/v1/logout", creds)
	if err != nil {
		return model.NewFault(model.FaultBackend, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return model.NewFault(model.FaultTransient, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return model.NewFault(model.FaultBackend, fmt.Errorf("provider status %d", resp.StatusCode))
	}

	c.publish(Event{Type: EventSignedOut})
	return nil
}

// Subscribe registers fn for auth-state-change events. The returned
// function removes the subscription.
func (c *Client) Subscribe(fn func(Event)) func() {
	id := uuid.NewString()
	c.mu.Lock()
	c.subs[id] = fn
	c.mu.Unlock()
	return func() {
		c.mu.Lock()
		delete(c.subs, id)
		c.mu.Unlock()
	}
}

// HealthCheck probes provider reachability.
func (c *Client) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/auth/v1/health", nil)
	if err != nil {
		return model.NewFault(model.FaultBackend, err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return model.NewFault(model.FaultTransient, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 500 {
		return model.NewFault(model.FaultBackend, errors.New("provider unhealthy"))
	}
	return nil
}

func (c *Client) publish(event Event) {
	c.mu.Lock()
	fns := make([]func(Event), 0, len(c.subs))
	for _, fn := range c.subs {
		fns = append(fns, fn)
	}
	c.mu.Unlock()
	for _, fn := range fns {
		fn(event)
	}
}

func (c *Client) newRequest(ctx context.Context, method, path string, creds Credentials) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	if c.anonKey != "" {
		req.Header.Set("apikey", c.anonKey)
	}
	if creds.AccessToken != "" {
		req.Header.Set("Authorization", "Bearer "+creds.AccessToken)
	}
	for _, cookie := range creds.Cookies {
		req.AddCookie(cookie)
	}
	return req, nil
}
