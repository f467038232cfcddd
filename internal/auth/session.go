package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/abhisek/cognigen/internal/api"
	"github.com/abhisek/cognigen/internal/content"
	"github.com/abhisek/cognigen/internal/logger"
)

// DefaultCookieName is the session cookie set by the learning API.
const DefaultCookieName = "token"

// ErrSignedOut is returned when no session is active.
var ErrSignedOut = errors.New("signed out")

// TokenSource exposes the raw session cookie. The API client implements it.
type TokenSource interface {
	SessionCookie(name string) string
}

// Session is the current-user context. It is created at start, checked
// against /auth/me and torn down on logout. Pass it to whatever needs the user.
// The remote calls may run off the UI loop; the user fields are guarded.
type Session struct {
	remote api.AuthRemote
	tokens TokenSource
	cookie string
	log    *logger.Logger

	mu      sync.Mutex
	user    *api.User
	expires time.Time
}

// NewSession creates a signed-out session. tokens may be nil.
func NewSession(remote api.AuthRemote, tokens TokenSource, log *logger.Logger) *Session {
	return &Session{
		remote: remote,
		tokens: tokens,
		cookie: DefaultCookieName,
		log:    logger.OrNop(log).With("component", "auth"),
	}
}

// Check asks the server who is signed in. A 401 leaves the session signed out
// and is not an error.
func (s *Session) Check(ctx context.Context) error {
	u, err := s.remote.Me(ctx)
	if errors.Is(err, api.ErrUnauthorized) {
		s.clear()
		return nil
	}
	if err != nil {
		return fmt.Errorf("session check: %w", err)
	}
	s.set(u)
	return nil
}

// Login signs in with email and password.
func (s *Session) Login(ctx context.Context, email, password string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return &content.ValidationError{Field: "email", Reason: "Email is required"}
	}
	if password == "" {
		return &content.ValidationError{Field: "password", Reason: "Password is required"}
	}
	u, err := s.remote.Login(ctx, email, password)
	if err != nil {
		return err
	}
	s.set(u)
	return nil
}

// Signup creates an account and signs in.
func (s *Session) Signup(ctx context.Context, name, email, password string) error {
	if strings.TrimSpace(name) == "" {
		return &content.ValidationError{Field: "name", Reason: "Name is required"}
	}
	if strings.TrimSpace(email) == "" {
		return &content.ValidationError{Field: "email", Reason: "Email is required"}
	}
	if len(password) < 6 {
		return &content.ValidationError{Field: "password", Reason: "Password must be at least 6 characters"}
	}
	u, err := s.remote.Signup(ctx, strings.TrimSpace(name), strings.TrimSpace(email), password)
	if err != nil {
		return err
	}
	s.set(u)
	return nil
}

// Logout ends the session locally even when the server call fails.
func (s *Session) Logout(ctx context.Context) error {
	err := s.remote.Logout(ctx)
	if err != nil {
		s.log.Warn("logout failed", "error", err)
	}
	s.clear()
	return err
}

// User returns the signed-in user, or nil.
func (s *Session) User() *api.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// SignedIn reports whether a user is present and the token has not expired.
func (s *Session) SignedIn(now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return false
	}
	return s.expires.IsZero() || now.Before(s.expires)
}

// ExpiresAt returns the token expiry when the cookie carries one.
func (s *Session) ExpiresAt() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.expires, !s.expires.IsZero()
}

// UserID returns the signed-in user's id, or "".
func (s *Session) UserID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return ""
	}
	return s.user.ID
}

func (s *Session) set(u *api.User) {
	var expires time.Time
	if s.tokens != nil {
		if exp, ok := TokenExpiry(s.tokens.SessionCookie(s.cookie)); ok {
			expires = exp
		}
	}
	s.mu.Lock()
	s.user = u
	s.expires = expires
	s.mu.Unlock()
	s.log.Info("signed in", "user_id", u.ID, "expires", expires)
}

func (s *Session) clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = nil
	s.expires = time.Time{}
}

// TokenExpiry reads the exp claim of a JWT without verifying it. The client
// never holds the signing key; the server stays the authority and this is
// only used to warn before a session lapses.
func TokenExpiry(token string) (time.Time, bool) {
	if token == "" {
		return time.Time{}, false
	}
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}
