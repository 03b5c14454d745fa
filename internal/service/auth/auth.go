// Package auth keeps the single shared password and the sessions issued for it.
package auth

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// CookieName is the session cookie set after a successful login.
const CookieName = "session"

// SessionTTL is how long a session stays valid.
const SessionTTL = 30 * 24 * time.Hour

// ErrInvalidPassword is returned by Login for a wrong password.
var ErrInvalidPassword = errors.New("invalid password")

// Service checks the password and tracks session tokens. With an empty
// password it is disabled and every request is allowed.
type Service struct {
	hash []byte
	now  func() time.Time

	mu       sync.Mutex
	sessions map[string]time.Time
}

// NewService hashes password with bcrypt. The plain password is not kept.
func NewService(password string) (*Service, error) {
	s := &Service{
		now:      time.Now,
		sessions: make(map[string]time.Time),
	}
	if password == "" {
		return s, nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	s.hash = hash
	return s, nil
}

// Enabled reports whether a password is required.
func (s *Service) Enabled() bool {
	return s.hash != nil
}

// Login checks password and issues a new session token.
func (s *Service) Login(password string) (string, error) {
	if !s.Enabled() {
		return "", nil
	}
	if err := bcrypt.CompareHashAndPassword(s.hash, []byte(password)); err != nil {
		return "", ErrInvalidPassword
	}

	token := uuid.NewString()
	s.mu.Lock()
	s.sessions[token] = s.now().Add(SessionTTL)
	s.mu.Unlock()
	return token, nil
}

// Valid reports whether token belongs to a live session. Expired sessions are dropped.
func (s *Service) Valid(token string) bool {
	if !s.Enabled() {
		return true
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	expires, ok := s.sessions[token]
	if !ok {
		return false
	}
	if s.now().After(expires) {
		delete(s.sessions, token)
		return false
	}
	return true
}

// Logout ends the session for token.
func (s *Service) Logout(token string) {
	s.mu.Lock()
	delete(s.sessions, token)
	s.mu.Unlock()
}
