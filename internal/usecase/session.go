package usecase

import (
	"context"
	"time"
)

type State string

const (
	StateAwaitName  State = "await_name"
	StateAwaitEmail State = "await_email"
)

// Session is one user's transient registration progress. No session means
// the user is idle and free text falls through to the menu.
type Session struct {
	State     State     `json:"state"`
	Name      string    `json:"name,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SessionStore keeps at most one session per chat. Implementations must be
// safe for concurrent use across chats; the transport adapter serializes
// calls for any single chat.
type SessionStore interface {
	Get(ctx context.Context, chatID int64) (Session, bool, error)
	Put(ctx context.Context, chatID int64, s Session) error
	Delete(ctx context.Context, chatID int64) error
}
