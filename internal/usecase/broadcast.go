package usecase

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bashoori/digitalmarketingacademy-bot/internal/domain"
)

type BroadcastState string

const (
	BStateIdle    BroadcastState = "idle"
	BStateEnter   BroadcastState = "enter_text"
	BStateConfirm BroadcastState = "confirm"
)

const (
	BtnBroadcastSend   = "Send"
	BtnBroadcastCancel = "Cancel"
)

type BroadcastStat struct {
	Total     int
	Sent      int
	Failed    int
	CreatedAt time.Time
}

type BroadcastStatRepository interface {
	Save(stat BroadcastStat) error
	ListRecent(n int) ([]BroadcastStat, error)
}

// BroadcastSession is the admin's compose/confirm progress, kept separate
// from user registration sessions.
type BroadcastSession struct {
	State       BroadcastState
	Text        string
	PhotoFileID string
	Caption     string
}

func (s *BroadcastSession) reset() {
	s.State = BStateIdle
	s.Text = ""
	s.PhotoFileID = ""
	s.Caption = ""
}

// BroadcastUsecase sends an announcement to every chat the bot has seen.
type BroadcastUsecase struct {
	repo   domain.UserRepository
	sender domain.MessageSender
	stat   BroadcastStatRepository
}

func NewBroadcastUsecase(repo domain.UserRepository, sender domain.MessageSender, stat BroadcastStatRepository) *BroadcastUsecase {
	return &BroadcastUsecase{repo: repo, sender: sender, stat: stat}
}

func (u *BroadcastUsecase) Start(s *BroadcastSession) string {
	s.reset()
	s.State = BStateEnter
	return "Send the broadcast text as a message, or a photo with a caption."
}

func (u *BroadcastUsecase) ReceiveText(s *BroadcastSession, text string) (string, []string, error) {
	if strings.TrimSpace(text) == "" {
		return "The text must not be empty. Enter the broadcast text:", nil, errors.New("empty")
	}
	s.Text = text
	s.PhotoFileID = ""
	s.Caption = ""
	s.State = BStateConfirm
	return "Confirm sending the broadcast:", []string{BtnBroadcastSend, BtnBroadcastCancel}, nil
}

func (u *BroadcastUsecase) ReceivePhoto(s *BroadcastSession, fileID, caption string) (string, []string) {
	if strings.TrimSpace(fileID) == "" {
		return "Couldn't read the image. Send the photo again.", nil
	}
	s.PhotoFileID = fileID
	s.Caption = caption
	s.Text = ""
	s.State = BStateConfirm
	return "Confirm sending the photo broadcast:", []string{BtnBroadcastSend, BtnBroadcastCancel}
}

func (u *BroadcastUsecase) ConfirmSend(s *BroadcastSession, cmd string) (string, error) {
	if cmd == BtnBroadcastCancel {
		s.reset()
		return "Broadcast cancelled.", nil
	}
	if cmd != BtnBroadcastSend {
		return "Choose: Send or Cancel", nil
	}
	ids, err := u.repo.ListChatIDs()
	if err != nil {
		return "Couldn't load the recipient list", err
	}
	var sent, failed int
	for _, id := range ids {
		var sendErr error
		if s.PhotoFileID != "" {
			sendErr = u.sender.SendPhoto(id, s.PhotoFileID, s.Caption)
		} else {
			sendErr = u.sender.SendText(id, s.Text)
		}
		if sendErr != nil {
			failed++
			continue
		}
		sent++
	}
	s.reset()
	_ = u.stat.Save(BroadcastStat{Total: len(ids), Sent: sent, Failed: failed})
	return fmt.Sprintf("Broadcast done: %d delivered, %d failed.", sent, failed), nil
}

func (u *BroadcastUsecase) StatsSummary(n int) string {
	stats, err := u.stat.ListRecent(n)
	if err != nil || len(stats) == 0 {
		return "No broadcast stats yet"
	}
	var b strings.Builder
	b.WriteString("Recent broadcasts:\n")
	for i, s := range stats {
		fmt.Fprintf(&b, "%d) %s — total: %d, delivered: %d, failed: %d\n", i+1, s.CreatedAt.Format("2006-01-02 15:04"), s.Total, s.Sent, s.Failed)
	}
	return b.String()
}
