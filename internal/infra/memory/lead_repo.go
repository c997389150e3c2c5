package memory

import (
	"sync"

	"github.com/bashoori/digitalmarketingacademy-bot/internal/domain"
)

type LeadRepo struct {
	mu    sync.RWMutex
	leads []domain.Lead
}

func NewLeadRepo() *LeadRepo {
	return &LeadRepo{leads: make([]domain.Lead, 0, 32)}
}

func (r *LeadRepo) SaveLead(lead domain.Lead) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.leads = append(r.leads, lead)
	return nil
}

func (r *LeadRepo) ListLeads() ([]domain.Lead, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Lead, len(r.leads))
	copy(out, r.leads)
	return out, nil
}

func (r *LeadRepo) HasLeadFor(userID int64) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, l := range r.leads {
		if l.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}
