// Package routes classifies request paths against the static route
// table. Classification is a pure function of the path and the table.
package routes

import (
	"strings"

	"portal/authgate/internal/model"
)

// Table holds the configured path prefixes per category. Role-gated
// prefixes take precedence over protected, protected over auth-only,
// auth-only over public. ExactOnly paths match themselves (with or
// without a trailing slash) but never their sub-paths.
type Table struct {
	Public    []string
	Protected []string
	AuthOnly  []string
	Admin     []string
	College   []string
	Student   []string
	ExactOnly []string
}

// Default is the portal's route table. "/colleges" is exact-only so
// the public listing page stays public while "/colleges/dashboard"
// and "/colleges/manage" remain college-gated.
func Default() Table {
	return Table{
		Public: []string{
			"/", "/about", "/contact", "/colleges",
			"/auth/login", "/auth/signup", "/auth/callback",
		},
		Protected: []string{"/dashboard", "/profile", "/settings", "/auth/complete-profile"},
		AuthOnly:  []string{"/auth/login", "/auth/signup"},
		Admin:     []string{"/admin", "/dashboard/admin"},
		College:   []string{"/dashboard/college", "/colleges/dashboard", "/colleges/manage"},
		Student:   []string{"/dashboard/student"},
		ExactOnly: []string{"/colleges"},
	}
}

// Classify maps a path to exactly one category. Precedence:
// role-gated > protected > auth-only > public; anything unlisted is
// protected.
func (t Table) Classify(path string) model.RouteCategory {
	switch {
	case t.matchAny(path, t.Admin):
		return model.CategoryAdmin
	case t.matchAny(path, t.College):
		return model.CategoryCollege
	case t.matchAny(path, t.Student):
		return model.CategoryStudent
	case t.matchAny(path, t.Protected):
		return model.CategoryProtected
	case t.matchAny(path, t.AuthOnly):
		return model.CategoryAuthOnly
	case t.matchAny(path, t.Public):
		return model.CategoryPublic
	default:
		return model.CategoryProtected
	}
}

func (t Table) matchAny(path string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if t.match(path, prefix) {
			return true
		}
	}
	return false
}

func (t Table) match(path, prefix string) bool {
	if path == prefix {
		return true
	}
	if t.exactOnly(prefix) {
		return path == prefix+"/"
	}
	if prefix == "/" {
		// Root matches only itself; every path has the "/" prefix.
		return false
	}
	return strings.HasPrefix(path, prefix+"/")
}

func (t Table) exactOnly(prefix string) bool {
	for _, exact := range t.ExactOnly {
		if exact == prefix {
			return true
		}
	}
	return false
}
