// Package common defines shared constants and sentinel errors used across
// client and server layers of canvasser. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound = errors.New("not found")

	// Address search errors.
	ErrCityNotFound = errors.New("city not found")
	ErrStaleSearch  = errors.New("search superseded by a newer one")

	// Remote persistence errors. ErrNetwork covers every transient failure
	// (unreachable store, timeout); ErrConflict is a rejected write.
	ErrNetwork  = errors.New("network error")
	ErrConflict = errors.New("conflicting write")

	// Local cache could not be decoded.
	ErrMalformedCache = errors.New("malformed local cache")

	// Auth errors.
	ErrUnauthorized = errors.New("unauthorized")
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
	ErrNoUser       = errors.New("no active user")
)
