package domain

import (
	"time"

	"github.com/google/uuid"
)

// StatusValidated is the only status a lead can have: leads are created at
// the moment the email passes validation and are never updated afterwards.
const StatusValidated = "Validated"

type Lead struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	UserID    int64     `json:"user_id"`
	Username  string    `json:"username,omitempty"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// NewLead builds an immutable lead record. The email must already be
// normalized and validated by the caller.
func NewLead(name, email string, contact Contact, now time.Time) Lead {
	return Lead{
		ID:        uuid.NewString(),
		Name:      name,
		Email:     email,
		UserID:    contact.UserID,
		Username:  contact.Username,
		Status:    StatusValidated,
		CreatedAt: now.UTC(),
	}
}

// LeadRepository is an append-only collection of leads. ListLeads returns
// records in insertion order.
type LeadRepository interface {
	SaveLead(lead Lead) error
	ListLeads() ([]Lead, error)
	HasLeadFor(userID int64) (bool, error)
}
