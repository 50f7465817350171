// Package session holds the bearer token shared by every outgoing request of
// one client, and tells subscribers when it goes away.
package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// Roles carried in the token.
const (
	RoleUser      = "USER"
	RoleShopOwner = "SHOP_OWNER"
	RoleAdmin     = "ADMIN"
)

// Reason explains why a session ended.
type Reason string

const (
	ReasonLogout       Reason = "logout"
	ReasonUnauthorized Reason = "unauthorized"
	ReasonExpired      Reason = "expired"
)

// LoginPath is where the browser is sent once the session is gone.
const LoginPath = "/login"

var ErrEmptyToken = errors.New("session: empty token")

// Claims are read from the token without verifying its signature; the API
// verifies, the client only needs to know who it is.
type Claims struct {
	jwt.RegisteredClaims
	Username string `json:"username,omitempty"`
	Role     string `json:"role,omitempty"`
	ShopID   *int64 `json:"shopId,omitempty"`
}

func (c Claims) IsAdmin() bool     { return c.Role == RoleAdmin }
func (c Claims) IsShopOwner() bool { return c.Role == RoleShopOwner }

// Event is delivered to subscribers when the session ends.
type Event struct {
	Reason Reason
	At     time.Time
}

type Store struct {
	mu     sync.RWMutex
	token  string
	claims Claims
	subs   map[int]func(Event)
	nextID int
	now    func() time.Time
	logger *zap.Logger
}

func NewStore(logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		subs:   make(map[int]func(Event)),
		now:    time.Now,
		logger: logger,
	}
}

// Set stores a new token and its claims.
func (s *Store) Set(token string) error {
	if token == "" {
		return ErrEmptyToken
	}

	var claims Claims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return fmt.Errorf("parse token claims: %w", err)
	}

	s.mu.Lock()
	s.token = token
	s.claims = claims
	s.mu.Unlock()

	s.logger.Info("session started",
		zap.String("subject", claims.Subject),
		zap.String("role", claims.Role))
	return nil
}

// Get returns the current token, or "" when there is none. An expired token
// is cleared before it can be sent.
func (s *Store) Get() string {
	s.mu.RLock()
	token, claims := s.token, s.claims
	s.mu.RUnlock()

	if token == "" {
		return ""
	}
	if claims.ExpiresAt != nil && !s.now().Before(claims.ExpiresAt.Time) {
		s.Clear(ReasonExpired)
		return ""
	}
	return token
}

// Claims returns the claims of the current token.
func (s *Store) Claims() (Claims, bool) {
	if s.Get() == "" {
		return Claims{}, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.claims, true
}

// Authenticated reports whether a usable token is held.
func (s *Store) Authenticated() bool { return s.Get() != "" }

// Clear drops the token. Subscribers are notified only when a token was
// actually held, so a burst of 401s yields a single teardown.
func (s *Store) Clear(reason Reason) {
	s.mu.Lock()
	if s.token == "" {
		s.mu.Unlock()
		return
	}
	s.token = ""
	s.claims = Claims{}
	subs := make([]func(Event), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	s.logger.Info("session cleared", zap.String("reason", string(reason)))

	ev := Event{Reason: reason, At: s.now()}
	for _, fn := range subs {
		fn(ev)
	}
}

// Invalidate is called by the transport on a 401.
func (s *Store) Invalidate() { s.Clear(ReasonUnauthorized) }

// Subscribe registers fn for session-end events and returns its cancel func.
func (s *Store) Subscribe(fn func(Event)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}
