// Package auth implements the static user table and bearer-token
// sessions for the dashboard API.
package auth

import (
	"crypto/subtle"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// RoleAdmin sees every cluster; RoleCluster is scoped to one.
const (
	RoleAdmin   = "admin"
	RoleCluster = "cluster"

	// AllClusters marks an account without a cluster restriction.
	AllClusters = "all"
)

const defaultSessionTTL = 12 * time.Hour

var ErrInvalidCredentials = errors.New("invalid email or password")

// User is a static account entry.
type User struct {
	Email    string
	Password string
	Role     string
	Cluster  string
	Name     string
}

// Session is an authenticated login, addressed by its bearer token.
type Session struct {
	Token     string
	Email     string
	Role      string
	Cluster   string
	Name      string
	ExpiresAt time.Time
}

// CanAccessCluster reports whether the session may read the given
// cluster's data.
func (s Session) CanAccessCluster(key string) bool {
	if s.Role == RoleAdmin || s.Cluster == AllClusters {
		return true
	}
	return s.Cluster == key
}

// DefaultUsers returns the static account table.
func DefaultUsers() []User {
	return []User{
		{Email: "jeanvie@julies.com", Password: "jeanvie0211", Role: RoleAdmin, Cluster: AllClusters, Name: "Jeanvie"},
		{Email: "blum@julies.com", Password: "blum9843", Role: RoleCluster, Cluster: "blumentrit", Name: "Blumentrit Manager"},
		{Email: "bali@julies.com", Password: "bali7501", Role: RoleCluster, Cluster: "balicbalic", Name: "Balicbalic Manager"},
		{Email: "kalen@julies.com", Password: "kale2849", Role: RoleCluster, Cluster: "kalentong", Name: "Kalentong Manager"},
		{Email: "paco@julies.com", Password: "paco5316", Role: RoleCluster, Cluster: "paco", Name: "Paco Manager"},
	}
}

// Service validates logins and tracks active sessions in memory.
type Service struct {
	users map[string]User
	ttl   time.Duration
	now   func() time.Time

	mu       sync.Mutex
	sessions map[string]Session
}

// Option configures a Service.
type Option func(*Service)

// WithSessionTTL overrides the session lifetime.
func WithSessionTTL(ttl time.Duration) Option {
	return func(s *Service) { s.ttl = ttl }
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates an auth service over the given accounts.
func NewService(users []User, opts ...Option) *Service {
	s := &Service{
		users:    make(map[string]User, len(users)),
		ttl:      defaultSessionTTL,
		now:      time.Now,
		sessions: make(map[string]Session),
	}
	for _, u := range users {
		s.users[strings.ToLower(u.Email)] = u
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Login checks the credentials and opens a session. Email matching is
// case-insensitive and ignores surrounding whitespace.
func (s *Service) Login(email, password string) (Session, error) {
	u, ok := s.users[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		// Compare against a dummy to keep timing uniform.
		subtle.ConstantTimeCompare([]byte(password), []byte("-"))
		return Session{}, ErrInvalidCredentials
	}
	if subtle.ConstantTimeCompare([]byte(password), []byte(u.Password)) != 1 {
		return Session{}, ErrInvalidCredentials
	}

	sess := Session{
		Token:     uuid.NewString(),
		Email:     u.Email,
		Role:      u.Role,
		Cluster:   u.Cluster,
		Name:      u.Name,
		ExpiresAt: s.now().Add(s.ttl),
	}

	s.mu.Lock()
	s.sessions[sess.Token] = sess
	s.mu.Unlock()

	return sess, nil
}

// Validate resolves a bearer token to its session. Expired sessions are
// dropped on sight.
func (s *Service) Validate(token string) (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[token]
	if !ok {
		return Session{}, false
	}
	if s.now().After(sess.ExpiresAt) {
		delete(s.sessions, token)
		return Session{}, false
	}
	return sess, true
}

// Logout closes a session. Unknown tokens are ignored.
func (s *Service) Logout(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
}
