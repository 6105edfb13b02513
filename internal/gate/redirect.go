package gate

import "net/url"

// Redirect reasons surfaced to the UI via query parameters.
const (
	ReasonAuthRequired  = "authentication_required"
	ReasonSessionError  = "session_invalid"
	ReasonAlreadyAuthed = "already_authenticated"
)

// Policy builds outbound redirect targets. Pure URL construction, no
// side effects. returnUrl always carries the original path plus query
// string so a later login can resume navigation.
type Policy struct {
	LoginPath           string
	HomePath            string
	CompleteProfilePath string
}

func DefaultPolicy() Policy {
	return Policy{
		LoginPath:           "/auth/login",
		HomePath:            "/",
		CompleteProfilePath: "/auth/complete-profile",
	}
}

func (p Policy) ToLogin(returnURL, reason string) string {
	q := url.Values{}
	q.Set("returnUrl", returnURL)
	if reason != "" {
		q.Set("reason", reason)
	}
	return p.LoginPath + "?" + q.Encode()
}

func (p Policy) ToHome(message string) string {
	if message == "" {
		return p.HomePath
	}
	q := url.Values{}
	q.Set("message", message)
	return p.HomePath + "?" + q.Encode()
}

func (p Policy) ToUnauthorized(requiredRole string) string {
	q := url.Values{}
	q.Set("error", "unauthorized")
	if requiredRole != "" {
		q.Set("requiredRole", requiredRole)
	}
	return p.HomePath + "?" + q.Encode()
}

func (p Policy) ToCompleteProfile(returnURL string) string {
	q := url.Values{}
	q.Set("returnUrl", returnURL)
	return p.CompleteProfilePath + "?" + q.Encode()
}
