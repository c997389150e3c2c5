package usecase

// Registration flow logic, independent of Telegram.

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/bashoori/digitalmarketingacademy-bot/internal/domain"
)

// Reply is a transport-neutral outbound message. Options become quick-reply
// buttons; RemoveKeyboard collapses any previously shown keyboard.
type Reply struct {
	Text           string
	Options        []string
	RemoveKeyboard bool
}

// CancelKeyword aborts the flow at the email step. The cancel button label
// is accepted too, after normalization.
const CancelKeyword = "cancel"

const (
	askNameText      = "📝 Please enter your full name:"
	askEmailText     = "Great 🌟 Now please enter your email:"
	invalidEmailText = "❌ That email doesn't look valid. Please enter it again:"
	cancelledText    = "Registration cancelled. You can restart it from the menu anytime."
	saveFailedText   = "⚠️ We couldn't save your registration just now. Please send your email again in a minute."
	tryLaterText     = "⚠️ Something went wrong. Please try again in a minute."
	savedLocalText   = "✅ Registration saved (local copy only)."
	lessonInviteText = "\n\n🎓 Ready to start the free digital marketing lesson?"
)

// DialogMetrics receives counters from the completion path.
type DialogMetrics interface {
	LeadSaved()
	NotifyFailed()
}

// Dialog runs the two-step registration conversation: collect a name, then
// a validated email, persist the lead and hand it to the delivery channel.
type Dialog struct {
	sessions SessionStore
	leads    domain.LeadRepository
	delivery LeadDelivery
	funnel   *FunnelUsecase
	metrics  DialogMetrics
	logger   *slog.Logger
	now      func() time.Time
}

func NewDialog(sessions SessionStore, leads domain.LeadRepository, logger *slog.Logger) *Dialog {
	return &Dialog{
		sessions: sessions,
		leads:    leads,
		logger:   logger,
		now:      time.Now,
	}
}

func (d *Dialog) SetLeadDelivery(delivery LeadDelivery) { d.delivery = delivery }

func (d *Dialog) SetFunnel(funnel *FunnelUsecase) { d.funnel = funnel }

func (d *Dialog) SetMetrics(m DialogMetrics) { d.metrics = m }

// SetClock overrides the time source; tests use it for stable timestamps.
func (d *Dialog) SetClock(now func() time.Time) { d.now = now }

// Start begins the flow for chatID, clearing any earlier partial state. The
// entry command therefore always restarts cleanly from the name prompt.
func (d *Dialog) Start(ctx context.Context, chatID int64) Reply {
	s := Session{State: StateAwaitName, UpdatedAt: d.now()}
	if err := d.sessions.Put(ctx, chatID, s); err != nil {
		d.logger.Error("session store failed", "chat_id", chatID, "error", err)
		return Reply{Text: tryLaterText}
	}
	d.reach(chatID, StepRegistrationStarted)
	return Reply{Text: askNameText, RemoveKeyboard: true}
}

// Handle advances the flow with one inbound message. It returns false when
// chatID has no active session, leaving the text to the menu router. A
// session lookup failure degrades to idle routing as well.
func (d *Dialog) Handle(ctx context.Context, chatID int64, contact domain.Contact, text string) (Reply, bool) {
	s, active, err := d.sessions.Get(ctx, chatID)
	if err != nil {
		d.logger.Error("session lookup failed", "chat_id", chatID, "error", err)
		return Reply{}, false
	}
	if !active {
		return Reply{}, false
	}

	switch s.State {
	case StateAwaitName:
		return d.acceptName(ctx, chatID, s, text), true
	case StateAwaitEmail:
		return d.completeOrRetry(ctx, chatID, contact, s, text), true
	}

	// Unknown state from an older deployment: drop it and start over.
	d.discard(ctx, chatID)
	return Reply{}, false
}

func (d *Dialog) acceptName(ctx context.Context, chatID int64, s Session, text string) Reply {
	name := strings.TrimSpace(text)
	if name == "" {
		d.touch(ctx, chatID, s)
		return Reply{Text: askNameText}
	}
	s.Name = name
	s.State = StateAwaitEmail
	s.UpdatedAt = d.now()
	if err := d.sessions.Put(ctx, chatID, s); err != nil {
		d.logger.Error("session store failed", "chat_id", chatID, "error", err)
		return Reply{Text: tryLaterText}
	}
	d.reach(chatID, StepNameEntered)
	return Reply{Text: askEmailText, Options: []string{BtnCancel}}
}

func (d *Dialog) completeOrRetry(ctx context.Context, chatID int64, contact domain.Contact, s Session, text string) Reply {
	normalized := NormalizeEmail(text)
	if normalized == CancelKeyword || normalized == strings.ToLower(BtnCancel) {
		d.discard(ctx, chatID)
		d.logger.Info("registration cancelled", "chat_id", chatID)
		return Reply{Text: cancelledText, Options: []string{BtnMainMenu}}
	}
	if !IsValidEmail(normalized) {
		d.touch(ctx, chatID, s)
		return Reply{Text: invalidEmailText}
	}

	lead := domain.NewLead(s.Name, normalized, contact, d.now())
	if err := d.leads.SaveLead(lead); err != nil {
		// The session stays in the email step so the user can resubmit;
		// claiming success here would lose the lead silently.
		d.logger.Error("lead save failed", "chat_id", chatID, "error", err)
		return Reply{Text: saveFailedText}
	}
	d.logger.Info("lead saved", "chat_id", chatID, "lead_id", lead.ID)
	if d.metrics != nil {
		d.metrics.LeadSaved()
	}
	d.reach(chatID, StepLeadSaved)

	delivered := d.deliver(ctx, lead)
	d.discard(ctx, chatID)

	ack := savedLocalText
	if delivered {
		ack = fmt.Sprintf("✅ %s, your registration is complete!", lead.Name)
	}
	return Reply{Text: ack + lessonInviteText, Options: []string{BtnLessonGo, BtnMainMenu}}
}

func (d *Dialog) deliver(ctx context.Context, lead domain.Lead) bool {
	if d.delivery == nil {
		return false
	}
	if err := d.delivery.DeliverLead(ctx, lead); err != nil {
		d.logger.Warn("lead delivery failed", "lead_id", lead.ID, "error", err)
		if d.metrics != nil {
			d.metrics.NotifyFailed()
		}
		return false
	}
	return true
}

// touch re-stores the session with a fresh timestamp so a retry counts as
// activity for the idle timeout (and renews the TTL on stores that use one).
func (d *Dialog) touch(ctx context.Context, chatID int64, s Session) {
	s.UpdatedAt = d.now()
	if err := d.sessions.Put(ctx, chatID, s); err != nil {
		d.logger.Error("session refresh failed", "chat_id", chatID, "error", err)
	}
}

func (d *Dialog) discard(ctx context.Context, chatID int64) {
	if err := d.sessions.Delete(ctx, chatID); err != nil {
		d.logger.Error("session delete failed", "chat_id", chatID, "error", err)
	}
}

func (d *Dialog) reach(chatID int64, step Step) {
	if d.funnel != nil {
		d.funnel.Reach(chatID, step)
	}
}
