package alist

import (
	"context"
	"sync"
)

// Session holds the authentication state for one process. A pre-supplied
// token is used as-is with no validation call. Otherwise a single login
// is attempted with the configured credentials; its outcome, success or
// failure, is cached for the remainder of the process. The token is
// never refreshed mid-process: a token that expires mid-run surfaces as
// an authorization failure from the store, not from here.
type Session struct {
	client   *Client
	username string
	password string

	mu        sync.Mutex
	token     string
	attempted bool
	loginErr  error
	onLogin   func(token string)
}

// NewSession creates a session. token may be empty, in which case the
// first EnsureToken call logs in with the given credentials.
func NewSession(client *Client, username, password, token string) *Session {
	return &Session{
		client:   client,
		username: username,
		password: password,
		token:    token,
	}
}

// OnLogin registers a callback invoked once with a freshly issued token.
// Pre-supplied tokens do not trigger it. Used by the CLI to persist the
// token outside the sync core.
func (s *Session) OnLogin(fn func(token string)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.onLogin = fn
}

// EnsureToken returns the session token, logging in on first need.
// Credential errors are not transient: a failed login is returned again
// on every subsequent call without another attempt.
func (s *Session) EnsureToken(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token != "" {
		return s.token, nil
	}

	if s.attempted {
		return "", s.loginErr
	}

	s.attempted = true

	token, err := s.client.Login(ctx, s.username, s.password)
	if err != nil {
		s.loginErr = err
		return "", err
	}

	s.token = token

	if s.onLogin != nil {
		s.onLogin(token)
	}

	return token, nil
}
