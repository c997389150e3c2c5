package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bashoori/digitalmarketingacademy-bot/internal/domain"
)

func newTestDialog(t *testing.T) (*Dialog, *stubSessions, *stubLeads, *stubDelivery) {
	t.Helper()
	sessions := newStubSessions()
	leads := &stubLeads{}
	delivery := &stubDelivery{}
	d := NewDialog(sessions, leads, testLogger())
	d.SetLeadDelivery(delivery)
	d.SetClock(func() time.Time { return time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC) })
	return d, sessions, leads, delivery
}

func TestDialogHappyFlow(t *testing.T) {
	ctx := context.Background()
	d, _, leads, delivery := newTestDialog(t)
	contact := domain.Contact{UserID: 42, Username: "bob"}

	reply := d.Start(ctx, 42)
	assert.Equal(t, askNameText, reply.Text)
	assert.True(t, reply.RemoveKeyboard)

	reply, handled := d.Handle(ctx, 42, contact, "Bob Smith")
	require.True(t, handled)
	assert.Equal(t, askEmailText, reply.Text)
	assert.Equal(t, []string{BtnCancel}, reply.Options)

	reply, handled = d.Handle(ctx, 42, contact, "  BOB@Example.COM  ")
	require.True(t, handled)
	assert.Contains(t, reply.Text, "Bob Smith, your registration is complete")
	assert.Contains(t, reply.Text, lessonInviteText)
	assert.Equal(t, []string{BtnLessonGo, BtnMainMenu}, reply.Options)

	saved, err := leads.ListLeads()
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.Equal(t, "Bob Smith", saved[0].Name)
	assert.Equal(t, "bob@example.com", saved[0].Email)
	assert.Equal(t, int64(42), saved[0].UserID)
	assert.Equal(t, "bob", saved[0].Username)
	assert.Equal(t, domain.StatusValidated, saved[0].Status)
	assert.NotEmpty(t, saved[0].ID)

	require.Len(t, delivery.delivered, 1)
	assert.Equal(t, saved[0].ID, delivery.delivered[0].ID)

	// session is gone, further text falls through to the menu
	_, handled = d.Handle(ctx, 42, contact, "anything")
	assert.False(t, handled)
}

func TestDialogEmptyNameReprompts(t *testing.T) {
	ctx := context.Background()
	d, _, _, _ := newTestDialog(t)

	d.Start(ctx, 1)
	reply, handled := d.Handle(ctx, 1, domain.Contact{UserID: 1}, "   ")
	require.True(t, handled)
	assert.Equal(t, askNameText, reply.Text)
}

func TestDialogCancelDiscardsSession(t *testing.T) {
	ctx := context.Background()
	d, _, leads, _ := newTestDialog(t)
	contact := domain.Contact{UserID: 7}

	d.Start(ctx, 7)
	d.Handle(ctx, 7, contact, "Alice")

	reply, handled := d.Handle(ctx, 7, contact, "cancel")
	require.True(t, handled)
	assert.Equal(t, cancelledText, reply.Text)
	assert.Equal(t, []string{BtnMainMenu}, reply.Options)

	saved, _ := leads.ListLeads()
	assert.Empty(t, saved)

	_, handled = d.Handle(ctx, 7, contact, "alice@example.com")
	assert.False(t, handled)

	// a fresh start works after cancelling
	reply = d.Start(ctx, 7)
	assert.Equal(t, askNameText, reply.Text)
}

func TestDialogCancelButtonLabel(t *testing.T) {
	ctx := context.Background()
	d, _, _, _ := newTestDialog(t)
	contact := domain.Contact{UserID: 8}

	d.Start(ctx, 8)
	d.Handle(ctx, 8, contact, "Alice")

	reply, handled := d.Handle(ctx, 8, contact, BtnCancel)
	require.True(t, handled)
	assert.Equal(t, cancelledText, reply.Text)
}

func TestDialogInvalidEmailRetries(t *testing.T) {
	ctx := context.Background()
	d, _, leads, _ := newTestDialog(t)
	contact := domain.Contact{UserID: 9}

	d.Start(ctx, 9)
	d.Handle(ctx, 9, contact, "Carol")

	for _, bad := range []string{"not-an-email", "carol@", "carol@example"} {
		reply, handled := d.Handle(ctx, 9, contact, bad)
		require.True(t, handled)
		assert.Equal(t, invalidEmailText, reply.Text)
	}

	reply, handled := d.Handle(ctx, 9, contact, "carol@example.com")
	require.True(t, handled)
	assert.Contains(t, reply.Text, "Carol")
	saved, _ := leads.ListLeads()
	assert.Len(t, saved, 1)
}

func TestDialogRetriesRefreshIdleClock(t *testing.T) {
	ctx := context.Background()
	sessions := newStubSessions()
	d := NewDialog(sessions, &stubLeads{}, testLogger())
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	current := base
	d.SetClock(func() time.Time { return current })
	contact := domain.Contact{UserID: 21}

	d.Start(ctx, 21)
	d.Handle(ctx, 21, contact, "Hank")

	// an invalid-email retry is activity, not abandonment
	current = base.Add(10 * time.Minute)
	d.Handle(ctx, 21, contact, "not-an-email")
	s, active, err := sessions.Get(ctx, 21)
	require.NoError(t, err)
	require.True(t, active)
	assert.Equal(t, current, s.UpdatedAt)
	assert.Equal(t, "Hank", s.Name)

	// so is an empty name re-prompt
	d.Start(ctx, 21)
	current = base.Add(20 * time.Minute)
	d.Handle(ctx, 21, contact, "   ")
	s, active, err = sessions.Get(ctx, 21)
	require.NoError(t, err)
	require.True(t, active)
	assert.Equal(t, current, s.UpdatedAt)
}

func TestDialogSaveFailureKeepsSession(t *testing.T) {
	ctx := context.Background()
	d, _, leads, _ := newTestDialog(t)
	contact := domain.Contact{UserID: 10}
	leads.saveErr = errors.New("disk full")

	d.Start(ctx, 10)
	d.Handle(ctx, 10, contact, "Dave")

	reply, handled := d.Handle(ctx, 10, contact, "dave@example.com")
	require.True(t, handled)
	assert.Equal(t, saveFailedText, reply.Text)

	// the flow is still at the email step: resubmitting succeeds
	leads.saveErr = nil
	reply, handled = d.Handle(ctx, 10, contact, "dave@example.com")
	require.True(t, handled)
	assert.Contains(t, reply.Text, "Dave, your registration is complete")
	saved, _ := leads.ListLeads()
	assert.Len(t, saved, 1)
}

func TestDialogDeliveryFailureSoftAck(t *testing.T) {
	ctx := context.Background()
	d, _, leads, delivery := newTestDialog(t)
	contact := domain.Contact{UserID: 11}
	metrics := &stubMetrics{}
	d.SetMetrics(metrics)
	delivery.err = errors.New("sheet down")

	d.Start(ctx, 11)
	d.Handle(ctx, 11, contact, "Eve")
	reply, handled := d.Handle(ctx, 11, contact, "eve@example.com")
	require.True(t, handled)

	// the lead is safe locally, the ack must not claim full success
	assert.Contains(t, reply.Text, savedLocalText)
	saved, _ := leads.ListLeads()
	assert.Len(t, saved, 1)
	assert.Equal(t, 1, metrics.saved)
	assert.Equal(t, 1, metrics.notified)
}

func TestDialogNoDeliveryConfigured(t *testing.T) {
	ctx := context.Background()
	sessions := newStubSessions()
	leads := &stubLeads{}
	d := NewDialog(sessions, leads, testLogger())
	contact := domain.Contact{UserID: 12}

	d.Start(ctx, 12)
	d.Handle(ctx, 12, contact, "Frank")
	reply, handled := d.Handle(ctx, 12, contact, "frank@example.com")
	require.True(t, handled)
	assert.Contains(t, reply.Text, savedLocalText)
}

func TestDialogStartRestartsMidFlow(t *testing.T) {
	ctx := context.Background()
	d, sessions, _, _ := newTestDialog(t)
	contact := domain.Contact{UserID: 13}

	d.Start(ctx, 13)
	d.Handle(ctx, 13, contact, "Grace")

	reply := d.Start(ctx, 13)
	assert.Equal(t, askNameText, reply.Text)

	s, active, err := sessions.Get(ctx, 13)
	require.NoError(t, err)
	require.True(t, active)
	assert.Equal(t, StateAwaitName, s.State)
	assert.Empty(t, s.Name)
}

func TestDialogSessionLookupErrorFallsThrough(t *testing.T) {
	ctx := context.Background()
	d, sessions, _, _ := newTestDialog(t)
	sessions.getErr = errors.New("redis gone")

	_, handled := d.Handle(ctx, 14, domain.Contact{UserID: 14}, "hello")
	assert.False(t, handled)
}

func TestDialogConcurrentChatsDoNotLeak(t *testing.T) {
	ctx := context.Background()
	d, _, leads, _ := newTestDialog(t)

	var wg sync.WaitGroup
	for i := int64(1); i <= 20; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			contact := domain.Contact{UserID: id}
			d.Start(ctx, id)
			d.Handle(ctx, id, contact, nameFor(id))
			d.Handle(ctx, id, contact, emailFor(id))
		}(i)
	}
	wg.Wait()

	saved, err := leads.ListLeads()
	require.NoError(t, err)
	require.Len(t, saved, 20)
	for _, l := range saved {
		assert.Equal(t, nameFor(l.UserID), l.Name)
		assert.Equal(t, emailFor(l.UserID), l.Email)
	}
}

func nameFor(id int64) string {
	return "User " + string(rune('A'+id%26))
}

func emailFor(id int64) string {
	return NormalizeEmail("user" + string(rune('a'+id%26)) + "@example.com")
}
