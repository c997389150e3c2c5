// Package jsonfile persists leads as a single human-readable JSON array,
// the format the academy's reporting scripts already consume.
package jsonfile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/bashoori/digitalmarketingacademy-bot/internal/domain"
)

type LeadRepo struct {
	mu   sync.Mutex
	path string
}

func NewLeadRepo(path string) *LeadRepo {
	return &LeadRepo{path: path}
}

// SaveLead appends one lead and rewrites the file before returning. The
// mutex gives single-writer discipline across concurrent completions.
func (r *LeadRepo) SaveLead(lead domain.Lead) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	leads := r.loadLocked()
	leads = append(leads, lead)
	return r.writeLocked(leads)
}

func (r *LeadRepo) ListLeads() ([]domain.Lead, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loadLocked(), nil
}

func (r *LeadRepo) HasLeadFor(userID int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, l := range r.loadLocked() {
		if l.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

// loadLocked reads the whole collection. A missing or unparsable file is
// an empty collection, never an error.
func (r *LeadRepo) loadLocked() []domain.Lead {
	data, err := os.ReadFile(r.path)
	if err != nil {
		return nil
	}
	var leads []domain.Lead
	if err := json.Unmarshal(data, &leads); err != nil {
		return nil
	}
	return leads
}

// writeLocked replaces the file atomically: temp file in the same
// directory, fsync, then rename.
func (r *LeadRepo) writeLocked(leads []domain.Lead) error {
	data, err := json.MarshalIndent(leads, "", "  ")
	if err != nil {
		return fmt.Errorf("encode leads: %w", err)
	}
	dir := filepath.Dir(r.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(r.path)+".tmp.*")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", r.path, err)
	}
	tmpPath := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("write temp for %s: %w", r.path, err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("sync temp for %s: %w", r.path, err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		return fmt.Errorf("chmod temp for %s: %w", r.path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp for %s: %w", r.path, err)
	}
	if err := os.Rename(tmpPath, r.path); err != nil {
		return fmt.Errorf("rename temp for %s: %w", r.path, err)
	}
	return nil
}
