// Package service holds the portal's business rules: the sign-in state
// machine, client registration and the appointment ledger.  Storage and
// email are injected through the interfaces in stores.go.
package service

import (
	"errors"
	"sort"
	"strings"
)

var (
	// ErrInvalidCredentials covers both an unknown email and a wrong
	// password so callers cannot tell which one failed.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrInvalidCode is returned for a wrong, replaced or expired code.
	ErrInvalidCode = errors.New("invalid or expired code")
	// ErrUserNotFound is returned by VerifyMFA for an unknown email.
	ErrUserNotFound = errors.New("user not found")
	// ErrTooManyAttempts is returned once the failure budget of the
	// pending code is spent.  The code is deleted; a new sign-in is needed.
	ErrTooManyAttempts = errors.New("too many attempts")
	// ErrNoPendingCode is returned by ResendCode when no sign-in is pending.
	ErrNoPendingCode = errors.New("no pending sign-in")
	// ErrSlotUnavailable is returned when a claim matched no bookable slot.
	ErrSlotUnavailable = errors.New("slot unavailable")
)

// ValidationError lists the offending fields of a request.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

// fieldErrors accumulates ValidationError fields.
type fieldErrors map[string]string

func (f fieldErrors) required(name, value string) {
	if strings.TrimSpace(value) == "" {
		f[name] = "required"
	}
}

func (f fieldErrors) err() error {
	if len(f) == 0 {
		return nil
	}
	return &ValidationError{Fields: f}
}
