package auth

import "time"

// Roles known to the catalog.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// Identity is the signed-in user.
type Identity struct {
	// Principal is the subject claim, usually the user ID.
	Principal string
	Name      string
	Email     string

	// Role is "admin" or "user". Anything else is treated as a plain user.
	Role string

	Claims    map[string]any
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// IsAdmin reports whether the identity carries the admin role.
func (id *Identity) IsAdmin() bool {
	return id != nil && id.Role == RoleAdmin
}

// IsExpired reports whether the identity has expired at now. An identity
// without an expiry never expires.
func (id *Identity) IsExpired(now time.Time) bool {
	return !id.ExpiresAt.IsZero() && !now.Before(id.ExpiresAt)
}
