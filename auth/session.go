package auth

import (
	"context"
	"sync"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

// DefaultIdentityTTL bounds how long a parsed identity is reused when its
// token carries no expiry.
const DefaultIdentityTTL = 5 * time.Minute

// Session holds the current bearer token and resolves it to an Identity.
// It also serves the token to the transport.
type Session struct {
	auth *JWTAuthenticator
	now  func() time.Time
	ttl  time.Duration

	mu    sync.RWMutex
	token string

	identities *ttlcache.Cache[string, *Identity]
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithIdentityTTL caps how long a parsed identity is cached.
func WithIdentityTTL(d time.Duration) SessionOption {
	return func(s *Session) {
		if d > 0 {
			s.ttl = d
		}
	}
}

// WithSessionClock replaces time.Now.
func WithSessionClock(now func() time.Time) SessionOption {
	return func(s *Session) { s.now = now }
}

// NewSession returns a signed-out Session. Call Close to stop the cache's
// expiry loop. auth may be nil for a session that only carries a token;
// its Identity then fails with ErrNoAuthenticator once signed in.
func NewSession(auth *JWTAuthenticator, opts ...SessionOption) *Session {
	s := &Session{auth: auth, now: time.Now, ttl: DefaultIdentityTTL}
	for _, opt := range opts {
		opt(s)
	}
	s.identities = ttlcache.New[string, *Identity](
		ttlcache.WithDisableTouchOnHit[string, *Identity](),
	)
	go s.identities.Start()
	return s
}

// SignIn replaces the current token.
func (s *Session) SignIn(token string) {
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
}

// SignOut forgets the token and every cached identity.
func (s *Session) SignOut() {
	s.mu.Lock()
	s.token = ""
	s.mu.Unlock()
	s.identities.DeleteAll()
}

// Token returns the current bearer token, empty when signed out.
func (s *Session) Token(context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token, nil
}

// Identity returns nil when signed out, and otherwise the identity of the
// current token. An expired token yields ErrTokenExpired.
func (s *Session) Identity(ctx context.Context) (*Identity, error) {
	token, _ := s.Token(ctx)
	if token == "" {
		return nil, nil
	}

	if item := s.identities.Get(token); item != nil {
		id := item.Value()
		if !id.IsExpired(s.now()) {
			return id, nil
		}
		s.identities.Delete(token)
	}

	if s.auth == nil {
		return nil, ErrNoAuthenticator
	}
	id, err := s.auth.Authenticate(ctx, token)
	if err != nil {
		return nil, err
	}
	ttl := s.ttl
	if !id.ExpiresAt.IsZero() {
		ttl = min(ttl, id.ExpiresAt.Sub(s.now()))
	}
	if ttl > 0 {
		s.identities.Set(token, id, ttl)
	}
	return id, nil
}

// Cached returns the number of parsed identities held.
func (s *Session) Cached() int { return s.identities.Len() }

// Close stops the expiry loop.
func (s *Session) Close() { s.identities.Stop() }
