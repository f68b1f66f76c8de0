package client

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// LoginRoute is where unauthenticated flows are sent; LandingRoute is the
// default screen for an authenticated session.
const (
	LoginRoute   = "/"
	LandingRoute = "/quests"
)

// Navigator forces a client-side route change. Injected so tests (and
// embedders with their own routing) can observe redirects.
type Navigator func(route string)

// LoginResult is the outcome of a login attempt. A rejected credential is an
// expected result, not an error: OK is false and Message carries the
// server-provided reason (or a generic fallback).
type LoginResult struct {
	OK      bool
	Message string
}

// Session answers "is the current user authenticated", exposes login and
// logout, and gates callers while the answer is being determined. All state
// is derived from the injected TokenStore; authentication is recomputed from
// the access token's exp claim on every read, never cached.
type Session struct {
	mu       sync.Mutex
	store    TokenStore
	auth     AuthAPI
	navigate Navigator
	logger   *slog.Logger
	now      func() time.Time

	initializing bool
	loading      bool
	lastError    string
}

// SessionOption customizes a Session
type SessionOption func(*Session)

// WithClock overrides the wall clock, for tests
func WithClock(now func() time.Time) SessionOption {
	return func(s *Session) { s.now = now }
}

// WithLogger sets the session logger
func WithLogger(logger *slog.Logger) SessionOption {
	return func(s *Session) { s.logger = logger }
}

// NewSession creates a Session over the given token store, auth endpoints,
// and navigator. The session starts in the initializing state until
// Initialize is called.
func NewSession(store TokenStore, auth AuthAPI, navigate Navigator, opts ...SessionOption) *Session {
	s := &Session{
		store:        store,
		auth:         auth,
		navigate:     navigate,
		logger:       slog.Default(),
		now:          time.Now,
		initializing: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.navigate == nil {
		s.navigate = func(string) {}
	}
	return s
}

// Initialize reads the stored access token and settles the session's initial
// state. A missing, malformed, or expired token means logged out, and both
// tokens are proactively cleared so stale state cannot linger.
func (s *Session) Initialize() {
	s.mu.Lock()
	defer s.mu.Unlock()

	// A missing access token clears too: a refresh token must not outlive it
	if !tokenValid(s.store.AccessToken(), s.now()) {
		s.logger.Debug("clearing stale session tokens")
		s.store.RemoveAccessToken()
		s.store.RemoveRefreshToken()
	}

	s.initializing = false
}

// Login authenticates with the backend. A server-side credential rejection
// returns LoginResult{OK: false} with the server message; the error return is
// reserved for transport failures. The loading flag is set for the duration
// of the call regardless of outcome.
func (s *Session) Login(ctx context.Context, username, password string) (LoginResult, error) {
	s.mu.Lock()
	s.loading = true
	s.lastError = ""
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.loading = false
		s.mu.Unlock()
	}()

	tokens, err := s.auth.Login(ctx, username, password)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			message := apiErr.Message
			if message == "" {
				message = "Login failed"
			}
			s.mu.Lock()
			s.lastError = message
			s.mu.Unlock()
			s.logger.Debug("login rejected", "status", apiErr.StatusCode)
			return LoginResult{OK: false, Message: message}, nil
		}
		s.mu.Lock()
		s.lastError = "Login failed"
		s.mu.Unlock()
		return LoginResult{}, err
	}

	s.mu.Lock()
	s.store.SetAccessToken(tokens.AccessToken)
	s.store.SetRefreshToken(tokens.RefreshToken)
	s.mu.Unlock()

	s.logger.Debug("login succeeded")
	return LoginResult{OK: true}, nil
}

// Logout clears both tokens and navigates to the login route. No network
// call is made; the tokens simply stop existing.
func (s *Session) Logout() {
	s.mu.Lock()
	s.store.RemoveAccessToken()
	s.store.RemoveRefreshToken()
	s.mu.Unlock()

	s.logger.Debug("logged out")
	s.navigate(LoginRoute)
}

// IsAuthenticated reports whether a currently-valid access token is stored.
// The expiry check runs on every call: a token that expired since the last
// read flips the answer to false without an explicit logout.
func (s *Session) IsAuthenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return tokenValid(s.store.AccessToken(), s.now())
}

// Initializing reports whether the initial storage read has not completed yet
func (s *Session) Initializing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.initializing
}

// Loading reports whether a login call is in flight
func (s *Session) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Err returns the message from the most recent failed login, if any
func (s *Session) Err() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastError
}
