package memory

import (
	"context"
	"sync"
	"time"

	"github.com/bashoori/digitalmarketingacademy-bot/internal/usecase"
)

// SessionStore keeps registration sessions in process memory. With a
// non-zero idle timeout an abandoned session expires on next access,
// which silently cancels the flow.
type SessionStore struct {
	mu          sync.RWMutex
	idleTimeout time.Duration
	sessions    map[int64]usecase.Session
	now         func() time.Time
}

func NewSessionStore(idleTimeout time.Duration) *SessionStore {
	return &SessionStore{
		idleTimeout: idleTimeout,
		sessions:    make(map[int64]usecase.Session),
		now:         time.Now,
	}
}

// SetClock overrides the time source; tests use it to trigger expiry.
func (s *SessionStore) SetClock(now func() time.Time) { s.now = now }

func (s *SessionStore) Get(_ context.Context, chatID int64) (usecase.Session, bool, error) {
	s.mu.RLock()
	sess, ok := s.sessions[chatID]
	s.mu.RUnlock()
	if !ok {
		return usecase.Session{}, false, nil
	}
	if s.idleTimeout > 0 && s.now().Sub(sess.UpdatedAt) > s.idleTimeout {
		s.mu.Lock()
		delete(s.sessions, chatID)
		s.mu.Unlock()
		return usecase.Session{}, false, nil
	}
	return sess, true, nil
}

func (s *SessionStore) Put(_ context.Context, chatID int64, sess usecase.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[chatID] = sess
	return nil
}

func (s *SessionStore) Delete(_ context.Context, chatID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, chatID)
	return nil
}
