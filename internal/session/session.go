// Package session tracks the authenticated principal and its bearer token.
// The token and principal are persisted together so a restarted process
// picks the session back up.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"redops/internal/domain"
	redopssdk "redops/sdk/go"
)

const (
	tokenKey = "auth_token"
	userKey  = "user_data"
)

// Storage is durable key/value storage.
type Storage interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Put(ctx context.Context, pairs map[string]string) error
	Delete(ctx context.Context, keys ...string) error
}

// Authenticator exchanges credentials for a principal and a bearer token.
type Authenticator interface {
	Login(ctx context.Context, creds domain.Credentials) (domain.User, string, error)
}

// State is a snapshot of the session. User is nil when anonymous.
type State struct {
	User    *domain.User
	Loading bool
	Err     string
}

type Option func(*Session)

func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Session) { s.logger = l }
}

type Session struct {
	auth    Authenticator
	storage Storage
	logger  *slog.Logger
	now     func() time.Time

	mu      sync.Mutex
	token   string
	user    *domain.User
	loading bool
	err     string
	subs    map[int]func(State)
	nextSub int
}

func New(auth Authenticator, storage Storage, opts ...Option) *Session {
	s := &Session{
		auth:    auth,
		storage: storage,
		logger:  slog.Default(),
		now:     time.Now,
		subs:    map[int]func(State){},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Attach makes the session the client's token source and logs out on any
// 401 the client sees.
func (s *Session) Attach(c *redopssdk.Client) {
	c.Tokens = s
	c.OnUnauthorized = func() {
		if err := s.Logout(context.Background()); err != nil {
			s.logger.Error("logout after 401 failed", "error", err)
		}
	}
}

func (s *Session) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// SetToken stores a token refreshed by the server.
func (s *Session) SetToken(token string) {
	s.mu.Lock()
	if token == "" || token == s.token || s.user == nil {
		s.mu.Unlock()
		return
	}
	s.token = token
	s.mu.Unlock()
	if err := s.storage.Put(context.Background(), map[string]string{tokenKey: token}); err != nil {
		s.logger.Warn("persist refreshed token", "error", err)
	}
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

func (s *Session) snapshot() State {
	st := State{Loading: s.loading, Err: s.err}
	if s.user != nil {
		u := *s.user
		st.User = &u
	}
	return st
}

// User returns the current principal.
func (s *Session) User() (domain.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return domain.User{}, false
	}
	return *s.user, true
}

// Subscribe registers fn for every session change and returns an unsubscribe func.
func (s *Session) Subscribe(fn func(State)) func() {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

func (s *Session) commit(fn func()) {
	s.mu.Lock()
	fn()
	st := s.snapshot()
	subs := make([]func(State), 0, len(s.subs))
	for _, sub := range s.subs {
		subs = append(subs, sub)
	}
	s.mu.Unlock()
	for _, sub := range subs {
		sub(st)
	}
}

// Login validates creds locally, then authenticates and persists the
// resulting token and principal.
func (s *Session) Login(ctx context.Context, creds domain.Credentials) (domain.User, error) {
	if err := creds.Validate(); err != nil {
		s.commit(func() { s.err = err.Error() })
		return domain.User{}, err
	}
	s.commit(func() {
		s.loading = true
		s.err = ""
	})
	user, token, err := s.auth.Login(ctx, creds)
	if err == nil {
		err = s.persist(ctx, token, user)
	}
	if err != nil {
		s.commit(func() {
			s.loading = false
			s.err = loginMessage(err)
		})
		return domain.User{}, fmt.Errorf("login: %w", err)
	}
	s.commit(func() {
		s.loading = false
		s.token = token
		s.user = &user
	})
	s.logger.Info("logged in", "user", user.Username, "role", user.Role)
	return user, nil
}

func (s *Session) persist(ctx context.Context, token string, user domain.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return err
	}
	return s.storage.Put(ctx, map[string]string{tokenKey: token, userKey: string(data)})
}

// loginMessage prefers the server's error text, like a rejected password.
func loginMessage(err error) string {
	var apiErr *redopssdk.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return err.Error()
}

// Logout clears the token and principal together.
func (s *Session) Logout(ctx context.Context) error {
	err := s.storage.Delete(ctx, tokenKey, userKey)
	s.commit(func() {
		s.token = ""
		s.user = nil
		s.loading = false
	})
	if err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

// IsAuthenticated reports whether a token is held and its exp claim lies in
// the future. The signature is not verified; the server remains the only
// authority.
func (s *Session) IsAuthenticated() bool {
	token := s.Token()
	if token == "" {
		return false
	}
	return notExpired(token, s.now())
}

// CheckExpiry is IsAuthenticated for long-lived callers: a held session whose
// token has expired is logged out so subscribers see it go anonymous.
func (s *Session) CheckExpiry(ctx context.Context) bool {
	if s.IsAuthenticated() {
		return true
	}
	s.mu.Lock()
	held := s.token != "" || s.user != nil
	s.mu.Unlock()
	if held {
		s.logger.Info("session expired")
		if err := s.Logout(ctx); err != nil {
			s.logger.Error("logout after expiry failed", "error", err)
		}
	}
	return false
}

func notExpired(token string, now time.Time) bool {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	if claims.ExpiresAt == nil {
		return false
	}
	return claims.ExpiresAt.Time.After(now)
}

// Initialize restores a persisted session. A stored token that is already
// expired is discarded.
func (s *Session) Initialize(ctx context.Context) error {
	token, hasToken, err := s.storage.Get(ctx, tokenKey)
	if err != nil {
		return fmt.Errorf("initialize session: %w", err)
	}
	raw, hasUser, err := s.storage.Get(ctx, userKey)
	if err != nil {
		return fmt.Errorf("initialize session: %w", err)
	}
	if !hasToken || !hasUser {
		return s.Logout(ctx)
	}
	var user domain.User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		s.logger.Warn("discarding unreadable stored principal", "error", err)
		return s.Logout(ctx)
	}
	if !notExpired(token, s.now()) {
		s.logger.Info("stored session expired", "user", user.Username)
		return s.Logout(ctx)
	}
	s.commit(func() {
		s.token = token
		s.user = &user
	})
	return nil
}
