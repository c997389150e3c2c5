package usecase

import (
	"context"

	"github.com/bashoori/digitalmarketingacademy-bot/internal/domain"
)

// LeadDelivery pushes a completed lead to an external system (Google Sheet
// web app and the like). Best-effort: a failure only softens the
// acknowledgment wording, it never blocks or retries the conversation.
type LeadDelivery interface {
	DeliverLead(ctx context.Context, lead domain.Lead) error
}
