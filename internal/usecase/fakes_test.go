package usecase

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/bashoori/digitalmarketingacademy-bot/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type stubSessions struct {
	mu       sync.Mutex
	sessions map[int64]Session
	getErr   error
	putErr   error
}

func newStubSessions() *stubSessions {
	return &stubSessions{sessions: make(map[int64]Session)}
}

func (s *stubSessions) Get(_ context.Context, chatID int64) (Session, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return Session{}, false, s.getErr
	}
	sess, ok := s.sessions[chatID]
	return sess, ok, nil
}

func (s *stubSessions) Put(_ context.Context, chatID int64, sess Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.putErr != nil {
		return s.putErr
	}
	s.sessions[chatID] = sess
	return nil
}

func (s *stubSessions) Delete(_ context.Context, chatID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, chatID)
	return nil
}

type stubLeads struct {
	mu      sync.Mutex
	leads   []domain.Lead
	saveErr error
}

func (s *stubLeads) SaveLead(lead domain.Lead) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.leads = append(s.leads, lead)
	return nil
}

func (s *stubLeads) ListLeads() ([]domain.Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Lead, len(s.leads))
	copy(out, s.leads)
	return out, nil
}

func (s *stubLeads) HasLeadFor(userID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, l := range s.leads {
		if l.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

type stubDelivery struct {
	mu        sync.Mutex
	err       error
	delivered []domain.Lead
}

func (s *stubDelivery) DeliverLead(_ context.Context, lead domain.Lead) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.delivered = append(s.delivered, lead)
	return nil
}

type stubMetrics struct {
	mu       sync.Mutex
	saved    int
	notified int
}

func (s *stubMetrics) LeadSaved() {
	s.mu.Lock()
	s.saved++
	s.mu.Unlock()
}

func (s *stubMetrics) NotifyFailed() {
	s.mu.Lock()
	s.notified++
	s.mu.Unlock()
}

type stubFunnelRepo struct {
	mu   sync.Mutex
	hits map[Step]map[int64]struct{}
}

func newStubFunnelRepo() *stubFunnelRepo {
	return &stubFunnelRepo{hits: make(map[Step]map[int64]struct{})}
}

func (s *stubFunnelRepo) Hit(step Step, chatID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.hits[step] == nil {
		s.hits[step] = make(map[int64]struct{})
	}
	s.hits[step][chatID] = struct{}{}
	return nil
}

func (s *stubFunnelRepo) Counts() map[Step]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[Step]int, len(s.hits))
	for step, chats := range s.hits {
		out[step] = len(chats)
	}
	return out
}
