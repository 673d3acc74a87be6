package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Each sentinel maps to one HTTP status in the transport layer.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrOTPRequired        = errors.New("one-time code required")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrSessionExpired     = errors.New("session expired")
	ErrForbidden          = errors.New("forbidden")
	ErrConflict           = errors.New("email already registered")
	ErrNotFound           = errors.New("not found")
	ErrValidation         = errors.New("validation failed")
	ErrTooManyAttempts    = errors.New("too many failed attempts")
	ErrDelivery           = errors.New("email delivery failed")
)

// ErrSuperseded is returned for a credential another request rotated within
// the reuse grace. It matches ErrSessionExpired.
var ErrSuperseded = fmt.Errorf("%w: superseded by a concurrent refresh", ErrSessionExpired)

// ValidationError lists the offending fields. It matches ErrValidation.
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
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// fieldErrors accumulates validation failures.
type fieldErrors map[string]string

func (f fieldErrors) add(field, msg string) {
	if _, ok := f[field]; !ok {
		f[field] = msg
	}
}

func (f fieldErrors) err() error {
	if len(f) == 0 {
		return nil
	}
	return &ValidationError{Fields: f}
}

// LockedError is returned while an email is locked out of login. It matches
// ErrTooManyAttempts.
type LockedError struct {
	RetryAfter time.Duration
}

func (e *LockedError) Error() string {
	return fmt.Sprintf("too many failed attempts, retry in %s", e.RetryAfter.Round(time.Second))
}

func (e *LockedError) Is(target error) bool { return target == ErrTooManyAttempts }
