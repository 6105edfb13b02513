package model

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

// FaultKind is the closed error taxonomy for provider and store
// failures. Callers switch on the kind instead of matching message
// text, which is not a stable contract.
type FaultKind int

const (
	// FaultTransient covers network-level failures worth retrying.
	FaultTransient FaultKind = iota
	// FaultExpired marks a session past its grace window.
	FaultExpired
	// FaultInvalid marks a structurally broken session or token.
	FaultInvalid
	// FaultNotFound marks an absent record. Not an error state for the
	// resolver; it triggers profile creation.
	FaultNotFound
	// FaultBackend covers every other provider or store failure.
	FaultBackend
)

func (k FaultKind) String() string {
	switch k {
	case FaultTransient:
		return "transient"
	case FaultExpired:
		return "expired"
	case FaultInvalid:
		return "invalid"
	case FaultNotFound:
		return "not_found"
	default:
		return "backend"
	}
}

// Fault tags an underlying error with its kind.
type Fault struct {
	Kind FaultKind
	Err  error
}

func (f *Fault) Error() string {
	if f.Err == nil {
		return f.Kind.String()
	}
	return fmt.Sprintf("%s: %v", f.Kind, f.Err)
}

func (f *Fault) Unwrap() error { return f.Err }

// NewFault wraps err with the given kind. A nil err yields a fault
// carrying only the kind.
func NewFault(kind FaultKind, err error) *Fault {
	return &Fault{Kind: kind, Err: err}
}

// KindOf returns the fault kind of err, defaulting to FaultBackend
// for untagged errors.
func KindOf(err error) FaultKind {
	var fault *Fault
	if errors.As(err, &fault) {
		return fault.Kind
	}
	return FaultBackend
}

// IsTransient reports whether err is a retryable network-class fault.
// Untagged errors fall back to transport-type inspection so raw
// errors from the HTTP client are still classified correctly.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var fault *Fault
	if errors.As(err, &fault) {
		return fault.Kind == FaultTransient
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{"network", "fetch", "timeout", "connection refused", "no such host"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// IsNotFound reports whether err is the not-found fault.
func IsNotFound(err error) bool {
	var fault *Fault
	if errors.As(err, &fault) {
		return fault.Kind == FaultNotFound
	}
	return false
}
