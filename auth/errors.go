package auth

import "errors"

var (
	ErrMissingCredentials = errors.New("auth: missing credentials")
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	ErrTokenExpired       = errors.New("auth: token expired")
	ErrTokenMalformed     = errors.New("auth: token malformed")

	// ErrNoAuthenticator is returned by Session.Identity when the session
	// was built without an authenticator but holds a token.
	ErrNoAuthenticator = errors.New("auth: no authenticator")
)
