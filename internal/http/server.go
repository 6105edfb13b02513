// Package http fronts the portal upstream. Every request passes the
// gate middleware; allowed traffic is reverse-proxied, redirects and
// denials are answered at the edge.
package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"portal/authgate/internal/cache"
	"portal/authgate/internal/config"
	"portal/authgate/internal/gate"
	"portal/authgate/internal/identity"
	"portal/authgate/internal/model"
	"portal/authgate/internal/offline"
)

type Server struct {
	cfg      config.Config
	gate     *gate.Gate
	provider identity.Provider
	cache    cache.Store[model.Profile]
	offline  *offline.Manager
	upstream http.Handler
}

func NewServer(cfg config.Config, g *gate.Gate, provider identity.Provider, profileCache cache.Store[model.Profile], manager *offline.Manager) (*Server, error) {
	target, err := url.Parse(cfg.UpstreamURL)
	if err != nil {
		return nil, fmt.Errorf("parse upstream url: %w", err)
	}
	return &Server{
		cfg:      cfg,
		gate:     g,
		provider: provider,
		cache:    profileCache,
		offline:  manager,
		upstream: httputil.NewSingleHostReverseProxy(target),
	}, nil
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())
	r.Post("/auth/signout", s.handleSignOut)

	r.With(s.gateMiddleware).Handle("/*", s.upstream)

	return r
}

// gateMiddleware applies the per-request decision. Allow falls through
// to the upstream, Redirect is a 307 so the method survives, Deny is
// answered as JSON.
func (s *Server) gateMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		decision := s.gate.Decide(r.Context(), r)
		switch decision.Kind {
		case model.DecisionRedirect:
			http.Redirect(w, r, decision.Target, http.StatusTemporaryRedirect)
		case model.DecisionDeny:
			writeError(w, decision.Status, decision.Reason)
		default:
			next.ServeHTTP(w, r)
		}
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	payload := map[string]any{"status": "ok"}
	if s.offline != nil {
		payload["online"] = s.offline.Online()
		payload["queuedRetries"] = s.offline.QueueLen()
	}
	writeJSON(w, http.StatusOK, payload)
}

// handleSignOut revokes the provider session, purges the profile cache
// namespace, and expires the provider cookies so stale "null" values
// cannot linger on the client. Local cleanup runs even when the
// provider call fails.
func (s *Server) handleSignOut(w http.ResponseWriter, r *http.Request) {
	creds := credentialsFromRequest(r)
	signOutErr := s.provider.SignOut(r.Context(), creds)

	if s.cache != nil {
		_ = s.cache.Invalidate(r.Context())
	}
	for _, cookie := range r.Cookies() {
		if !strings.HasPrefix(cookie.Name, s.cfg.CookiePrefix) {
			continue
		}
		http.SetCookie(w, &http.Cookie{
			Name:   cookie.Name,
			Value:  "",
			Path:   "/",
			MaxAge: -1,
		})
	}

	if signOutErr != nil {
		writeError(w, http.StatusBadGateway, "signout_failed")
		return
	}
	if wantsJSON(r) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "signed_out"})
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func credentialsFromRequest(r *http.Request) identity.Credentials {
	creds := identity.Credentials{Cookies: r.Cookies()}
	if parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2); len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		creds.AccessToken = strings.TrimSpace(parts[1])
	}
	return creds
}

func wantsJSON(r *http.Request) bool {
	accept := r.Header.Get("Accept")
	return strings.Contains(accept, "application/json") && !strings.Contains(accept, "text/html")
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]string{"error": code})
}
