package telegram

import (
	"bytes"
	"context"
	"log/slog"
	"strconv"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	chart "github.com/wcharczuk/go-chart/v2"

	"github.com/bashoori/digitalmarketingacademy-bot/internal/domain"
	"github.com/bashoori/digitalmarketingacademy-bot/internal/usecase"
)

// AdapterMetrics is what the handler reports about inbound traffic.
type AdapterMetrics interface {
	UpdateProcessed()
}

// Handler glues Telegram updates to the dialog engine and menu router.
// Concurrent turns for a single chat are serialized by a per-chat mutex;
// different chats proceed in parallel in both polling and webhook mode.
type Handler struct {
	bot         *tgbotapi.BotAPI
	dialog      *usecase.Dialog
	menu        *usecase.Menu
	userRepo    domain.UserRepository
	broadcastUC *usecase.BroadcastUsecase
	adminIDs    map[int64]struct{}
	funnel      *usecase.FunnelUsecase
	metrics     AdapterMetrics
	logger      *slog.Logger

	locksMu   sync.Mutex
	chatLocks map[int64]*sync.Mutex

	bcastMu       sync.Mutex
	bcastSessions map[int64]*usecase.BroadcastSession
}

func NewHandler(bot *tgbotapi.BotAPI, dialog *usecase.Dialog, menu *usecase.Menu, userRepo domain.UserRepository, broadcastUC *usecase.BroadcastUsecase, adminIDs map[int64]struct{}, logger *slog.Logger) *Handler {
	return &Handler{
		bot:           bot,
		dialog:        dialog,
		menu:          menu,
		userRepo:      userRepo,
		broadcastUC:   broadcastUC,
		adminIDs:      adminIDs,
		logger:        logger,
		chatLocks:     make(map[int64]*sync.Mutex),
		bcastSessions: make(map[int64]*usecase.BroadcastSession),
	}
}

func (h *Handler) SetFunnel(funnel *usecase.FunnelUsecase) { h.funnel = funnel }

func (h *Handler) SetMetrics(m AdapterMetrics) { h.metrics = m }

// Run consumes updates over long polling until ctx is cancelled.
func (h *Handler) Run(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := h.bot.GetUpdatesChan(u)
	for {
		select {
		case <-ctx.Done():
			h.bot.StopReceivingUpdates()
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			// Each update gets its own goroutine so one chat waiting on
			// the sheet delivery cannot stall every other chat.
			go h.HandleUpdate(ctx, update)
		}
	}
}

// inbound is the slice of an update the core cares about.
type inbound struct {
	chatID  int64
	contact domain.Contact
	text    string
	photoID string
	caption string
}

// extract pulls the chat, sender and text out of an update. Inline button
// taps arrive as their callback data, so they route like typed text.
func extract(update tgbotapi.Update) (inbound, bool) {
	switch {
	case update.Message != nil:
		msg := update.Message
		in := inbound{chatID: msg.Chat.ID, text: msg.Text, caption: msg.Caption}
		if len(msg.Photo) > 0 {
			in.photoID = msg.Photo[len(msg.Photo)-1].FileID
		}
		if msg.From != nil {
			in.contact = domain.Contact{UserID: msg.From.ID, Username: msg.From.UserName}
		} else {
			in.contact = domain.Contact{UserID: msg.Chat.ID}
		}
		return in, true
	case update.CallbackQuery != nil && update.CallbackQuery.Message != nil:
		cb := update.CallbackQuery
		return inbound{
			chatID:  cb.Message.Chat.ID,
			contact: domain.Contact{UserID: cb.From.ID, Username: cb.From.UserName},
			text:    cb.Data,
		}, true
	}
	return inbound{}, false
}

// HandleUpdate processes one update. Malformed updates are dropped without
// a reply and without touching any session.
func (h *Handler) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	in, ok := extract(update)
	if !ok {
		return
	}

	lock := h.chatLock(in.chatID)
	lock.Lock()
	defer lock.Unlock()

	if h.metrics != nil {
		h.metrics.UpdateProcessed()
	}

	// remember only non-admins as broadcast recipients
	if !h.isAdmin(in.chatID) {
		if err := h.userRepo.SaveUser(in.chatID); err != nil {
			h.logger.Error("user save failed", "chat_id", in.chatID, "error", err)
		}
	}

	if h.isAdmin(in.chatID) {
		h.handleAdmin(in)
		return
	}

	if usecase.IsEntryCommand(in.text) {
		h.applyReply(in.chatID, h.dialog.Start(ctx, in.chatID))
		return
	}

	if reply, handled := h.dialog.Handle(ctx, in.chatID, in.contact, in.text); handled {
		h.applyReply(in.chatID, reply)
		return
	}

	if reply, matched := h.menu.Dispatch(in.contact, in.text); matched {
		h.applyReply(in.chatID, reply)
		return
	}
	// Unmatched free text while idle: deliberately no reply.
}

func (h *Handler) handleAdmin(in inbound) {
	switch in.text {
	case "/admin":
		msg := tgbotapi.NewMessage(in.chatID, "Admin menu")
		msg.ReplyMarkup = inlineKeyboard([]string{"Create broadcast", "Stats", "Funnel"})
		_, _ = h.bot.Send(msg)
		h.logger.Info("admin opened menu", "chat_id", in.chatID)
		return
	case "Create broadcast":
		s := h.getBSession(in.chatID)
		h.sendTextWithKeyboard(in.chatID, h.broadcastUC.Start(s), nil)
		h.logger.Info("broadcast start", "chat_id", in.chatID)
		return
	case "Stats":
		h.sendText(in.chatID, h.broadcastUC.StatsSummary(5))
		return
	case "Funnel":
		if h.funnel == nil {
			h.sendText(in.chatID, "Funnel is not available")
			return
		}
		labels, values := h.funnel.GraphData()
		if err := h.sendFunnelChart(in.chatID, labels, values); err != nil {
			h.logger.Error("funnel chart failed", "error", err)
			h.sendText(in.chatID, h.funnel.Chart())
		}
		return
	}

	if s := h.peekBSession(in.chatID); s != nil {
		if in.photoID != "" {
			msg, opts := h.broadcastUC.ReceivePhoto(s, in.photoID, in.caption)
			h.sendTextWithKeyboard(in.chatID, msg, opts)
			return
		}
		switch s.State {
		case usecase.BStateEnter:
			msg, opts, _ := h.broadcastUC.ReceiveText(s, in.text)
			h.sendTextWithKeyboard(in.chatID, msg, opts)
			return
		case usecase.BStateConfirm:
			msg, _ := h.broadcastUC.ConfirmSend(s, in.text)
			h.sendTextRemoveKeyboard(in.chatID, msg)
			h.logger.Info("broadcast confirm", "chat_id", in.chatID)
			return
		}
	}
}

func (h *Handler) isAdmin(chatID int64) bool {
	if len(h.adminIDs) == 0 {
		return false
	}
	_, ok := h.adminIDs[chatID]
	return ok
}

// chatLock returns the mutex that serializes one chat's turns.
func (h *Handler) chatLock(chatID int64) *sync.Mutex {
	h.locksMu.Lock()
	defer h.locksMu.Unlock()
	if l, ok := h.chatLocks[chatID]; ok {
		return l
	}
	l := &sync.Mutex{}
	h.chatLocks[chatID] = l
	return l
}

func (h *Handler) getBSession(chatID int64) *usecase.BroadcastSession {
	h.bcastMu.Lock()
	defer h.bcastMu.Unlock()
	if s, ok := h.bcastSessions[chatID]; ok {
		return s
	}
	s := &usecase.BroadcastSession{State: usecase.BStateIdle}
	h.bcastSessions[chatID] = s
	return s
}

func (h *Handler) peekBSession(chatID int64) *usecase.BroadcastSession {
	h.bcastMu.Lock()
	defer h.bcastMu.Unlock()
	return h.bcastSessions[chatID]
}

func (h *Handler) applyReply(chatID int64, r usecase.Reply) {
	if r.Text == "" {
		return
	}
	if r.RemoveKeyboard {
		h.sendTextRemoveKeyboard(chatID, r.Text)
		return
	}
	h.sendTextWithKeyboard(chatID, r.Text, r.Options)
}

func (h *Handler) sendText(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := h.bot.Send(msg); err != nil {
		h.logger.Error("send failed", "chat_id", chatID, "error", err)
	}
}

func (h *Handler) sendTextWithKeyboard(chatID int64, text string, opts []string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if len(opts) > 0 {
		msg.ReplyMarkup = inlineKeyboard(opts)
	}
	if _, err := h.bot.Send(msg); err != nil {
		h.logger.Error("send failed", "chat_id", chatID, "error", err)
	}
}

func (h *Handler) sendTextRemoveKeyboard(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = tgbotapi.NewRemoveKeyboard(true)
	if _, err := h.bot.Send(msg); err != nil {
		h.logger.Error("send failed", "chat_id", chatID, "error", err)
	}
}

func inlineKeyboard(opts []string) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(opts))
	for _, o := range opts {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(o, o),
		))
	}
	return tgbotapi.InlineKeyboardMarkup{InlineKeyboard: rows}
}

// Sender implements domain.MessageSender for the broadcast usecase.
type Sender struct{ bot *tgbotapi.BotAPI }

func NewSender(bot *tgbotapi.BotAPI) *Sender { return &Sender{bot: bot} }

func (s *Sender) SendText(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	_, err := s.bot.Send(msg)
	return err
}

func (s *Sender) SendPhoto(chatID int64, fileID string, caption string) error {
	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileID(fileID))
	photo.Caption = caption
	_, err := s.bot.Send(photo)
	return err
}

func (h *Handler) sendFunnelChart(chatID int64, labels []string, values []int) error {
	bars := make([]chart.Value, 0, len(labels))
	maxVal := 0
	for i := range labels {
		v := values[i]
		if v > maxVal {
			maxVal = v
		}
		bars = append(bars, chart.Value{Value: float64(v), Label: labels[i]})
	}
	// avoid an invalid data range when every step is still zero
	yMax := float64(maxVal)
	if yMax <= 0 {
		yMax = 1
	}
	graph := chart.BarChart{
		Width:    1100,
		Height:   600,
		BarWidth: 56,
		Background: chart.Style{Padding: chart.Box{
			Top:    50,
			Left:   16,
			Right:  16,
			Bottom: 0,
		}},
		YAxis: chart.YAxis{Range: &chart.ContinuousRange{Min: 0, Max: yMax}},
		Bars:  bars,
	}
	buf := bytes.NewBuffer(nil)
	if err := graph.Render(chart.PNG, buf); err != nil {
		return err
	}
	fname := "funnel_" + strconv.FormatInt(time.Now().UnixNano(), 10) + ".png"
	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{Name: fname, Bytes: buf.Bytes()})
	_, err := h.bot.Send(photo)
	return err
}
