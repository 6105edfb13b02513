// Package gate is the per-request decision function intercepting
// navigation before it reaches the portal. Every branch resolves to
// Allow, Redirect, or Deny; the gate never surfaces raw errors and
// fails open on its own internal faults.
package gate

import (
	"context"
	"log"
	"net/http"
	"strings"

	"portal/authgate/internal/identity"
	"portal/authgate/internal/model"
	"portal/authgate/internal/profile"
	"portal/authgate/internal/routes"
	"portal/authgate/internal/session"
)

// Gate composes the route classifier, session validator, profile
// resolver, and redirect policy into one decision function.
type Gate struct {
	Validator    session.Validator
	Resolver     profile.Resolver
	Table        routes.Table
	Policy       Policy
	CookiePrefix string
	Metrics      *Metrics
}

// Decide runs the request-time state machine. The top-level recover
// is the single deliberate fail-open branch for gate bugs: an auth
// subsystem fault must never take the whole portal down.
func (g *Gate) Decide(ctx context.Context, r *http.Request) (decision model.Decision) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Printf("gate: panic recovered, failing open: %v", rec)
			g.Metrics.FailOpen()
			decision = model.Allow()
		}
		g.Metrics.Decision(decision.Kind.String(), decision.Reason)
	}()

	path := r.URL.Path
	if routes.Skip(path) {
		return model.Allow()
	}

	category := g.Table.Classify(path)
	returnURL := r.URL.RequestURI()

	result := g.Validator.Validate(ctx, credentialsFromRequest(r))
	g.Metrics.Validation(string(result.Status))

	if !result.IsValid() {
		if result.Status == session.StatusError && category.RequiresAuth() {
			if model.IsTransient(result.Err) {
				// Network failure on a route that needs auth: send
				// the user to login rather than guessing.
				return model.Redirect(g.Policy.ToLogin(returnURL, ReasonSessionError), ReasonSessionError)
			}
			// Terminal backend fault: fail open, the client store
			// enforces on its side.
			log.Printf("gate: session validation failed terminally: %v", result.Err)
			g.Metrics.FailOpen()
			return model.Allow()
		}
		// Expired/invalid sessions fall through to the client-side
		// re-check; redirecting here causes loops during token
		// refresh races.
		return model.Allow()
	}

	sess := result.Session

	if category == model.CategoryAuthOnly {
		if sess != nil {
			return model.Redirect(g.Policy.ToHome(""), ReasonAlreadyAuthed)
		}
		return model.Allow()
	}
	if category == model.CategoryPublic {
		return model.Allow()
	}

	if sess == nil {
		if hasPlausibleProviderCookies(r, g.CookiePrefix) {
			// Provider cookies without a validated session usually
			// mean a token refresh is in flight; defer to the client.
			g.Metrics.CookiePassthrough()
			return model.Allow()
		}
		return model.Redirect(g.Policy.ToLogin(returnURL, ReasonAuthRequired), ReasonAuthRequired)
	}

	if requiredRole, ok := category.RequiredRole(); ok {
		res := g.Resolver.Resolve(ctx, sess.UserID)
		if res.NeedsCreation || res.NeedsCompletion {
			return model.Redirect(g.Policy.ToCompleteProfile(returnURL), "profile_incomplete")
		}
		if res.Err != nil {
			// Resolver backend failure with no profile: fail open,
			// the client store enforces on its side.
			log.Printf("gate: profile resolution failed for %s: %v", sess.UserID, res.Err)
			g.Metrics.FailOpen()
			return model.Allow()
		}
		if !profile.HasRequiredRole(res.Profile, category) {
			if wantsJSON(r) {
				return model.Deny(http.StatusForbidden, "unauthorized")
			}
			return model.Redirect(g.Policy.ToUnauthorized(string(requiredRole)), "unauthorized")
		}
	}

	return model.Allow()
}

func credentialsFromRequest(r *http.Request) identity.Credentials {
	creds := identity.Credentials{Cookies: r.Cookies()}
	header := r.Header.Get("Authorization")
	if parts := strings.SplitN(header, " ", 2); len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		creds.AccessToken = strings.TrimSpace(parts[1])
	}
	return creds
}

// hasPlausibleProviderCookies reports whether the request carries
// provider cookies that look real: named with the provider prefix,
// longer than 10 characters, and not the literal "null" some clients
// persist after a failed refresh.
func hasPlausibleProviderCookies(r *http.Request, prefix string) bool {
	if prefix == "" {
		return false
	}
	for _, cookie := range r.Cookies() {
		if !strings.HasPrefix(cookie.Name, prefix) {
			continue
		}
		if len(cookie.Value) > 10 && cookie.Value != "null" {
			return true
		}
	}
	return false
}

func wantsJSON(r *http.Request) bool {
	accept := r.Header.Get("Accept")
	return strings.Contains(accept, "application/json") && !strings.Contains(accept, "text/html")
}
