// Package auth is the session gate in front of every route: it verifies a
// signed session cookie and issues one on successful login.
package auth

import "errors"

var (
	// ErrUnauthenticated is returned for requests without a valid session.
	ErrUnauthenticated = errors.New("authentication required")
	// ErrInvalidCredentials is returned when a login does not match.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrRateLimited is returned when a client exceeds the login rate.
	ErrRateLimited = errors.New("too many login attempts")
)
