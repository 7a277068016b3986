package client

import "sync"

// Store holds the current bearer credential for the whole process.
// Single writer (login, logout, session expiry), many readers: every
// component reads the token fresh per call rather than caching a copy,
// so a revoked credential is never reused.
type Store struct {
	mu    sync.RWMutex
	token string
}

func NewStore() *Store {
	return &Store{}
}

// Set installs a new credential, replacing any previous one.
func (s *Store) Set(token string) {
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
}

// Token returns the current credential, or "" when unauthenticated.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Clear discards the credential, transitioning to unauthenticated.
func (s *Store) Clear() {
	s.mu.Lock()
	s.token = ""
	s.mu.Unlock()
}

// Session derives the session context for the stored credential. An
// absent credential yields ok=false; an undecodable one is cleared
// first (a token that cannot be decoded must not be silently retained)
// and also yields ok=false.
func (s *Store) Session() (Session, bool) {
	token := s.Token()
	if token == "" {
		return Session{}, false
	}
	session, err := Derive(token)
	if err != nil {
		s.Clear()
		return Session{}, false
	}
	return session, true
}
