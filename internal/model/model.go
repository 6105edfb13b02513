package model

import "time"

// Session is a read-only copy of the identity provider's proof of
// authentication. The provider owns the canonical record.
type Session struct {
	UserID      string
	AccessToken string
	IssuedAt    time.Time
	ExpiresAt   time.Time
}

// Role is the closed set of portal roles.
type Role string

const (
	RoleStudent Role = "student"
	RoleCollege Role = "college"
	RoleAdmin   Role = "admin"
)

func ValidRole(r Role) bool {
	switch r {
	case RoleStudent, RoleCollege, RoleAdmin:
		return true
	default:
		return false
	}
}

// Profile is the application-level record keyed 1:1 by user id.
type Profile struct {
	UserID     string    `json:"userId"`
	Role       Role      `json:"role"`
	IsVerified bool      `json:"isVerified"`
	FirstName  string    `json:"firstName"`
	LastName   string    `json:"lastName"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Complete reports whether both name fields are filled in.
func (p Profile) Complete() bool {
	return p.FirstName != "" && p.LastName != ""
}

// RouteCategory is derived per request, never stored.
type RouteCategory string

const (
	CategoryPublic    RouteCategory = "public"
	CategoryAuthOnly  RouteCategory = "auth-only"
	CategoryProtected RouteCategory = "protected"
	CategoryStudent   RouteCategory = "role:student"
	CategoryCollege   RouteCategory = "role:college"
	CategoryAdmin     RouteCategory = "role:admin"
)

// RequiredRole returns the role a category demands, if any.
func (c RouteCategory) RequiredRole() (Role, bool) {
	switch c {
	case CategoryStudent:
		return RoleStudent, true
	case CategoryCollege:
		return RoleCollege, true
	case CategoryAdmin:
		return RoleAdmin, true
	default:
		return "", false
	}
}

// RequiresAuth reports whether a session is needed to pass the gate.
func (c RouteCategory) RequiresAuth() bool {
	switch c {
	case CategoryPublic, CategoryAuthOnly:
		return false
	default:
		return true
	}
}

// DecisionKind enumerates gate outcomes.
type DecisionKind int

const (
	DecisionAllow DecisionKind = iota
	DecisionRedirect
	DecisionDeny
)

func (k DecisionKind) String() string {
	switch k {
	case DecisionAllow:
		return "allow"
	case DecisionRedirect:
		return "redirect"
	case DecisionDeny:
		return "deny"
	default:
		return "unknown"
	}
}

// Decision is the single result type of the edge gate. Allow passes
// the request through untouched, Redirect carries the target URL, and
// Deny answers the request directly with a status code.
type Decision struct {
	Kind   DecisionKind
	Target string
	Reason string
	Status int
}

func Allow() Decision {
	return Decision{Kind: DecisionAllow}
}

func Redirect(target, reason string) Decision {
	return Decision{Kind: DecisionRedirect, Target: target, Reason: reason}
}

func Deny(status int, reason string) Decision {
	return Decision{Kind: DecisionDeny, Status: status, Reason: reason}
}
