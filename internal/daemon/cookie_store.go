package daemon

import (
	"fmt"
	"sync"

	"github.com/gin-contrib/sessions"
)

// CookieStore is the console's credential store for one request. Values
// live in the signed session cookie and every mutation is saved at once so
// a redirect issued later in the request carries it.
type CookieStore struct {
	mu      sync.Mutex
	session sessions.Session
}

func NewCookieStore(session sessions.Session) *CookieStore {
	return &CookieStore{session: session}
}

func (s *CookieStore) Get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	value, ok := s.session.Get(key).(string)
	return value, ok
}

func (s *CookieStore) Set(key string, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.session.Set(key, value)
	if err := s.session.Save(); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Delete of an absent key does not touch the cookie.
func (s *CookieStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session.Get(key) == nil {
		return nil
	}

	s.session.Delete(key)
	if err := s.session.Save(); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}
