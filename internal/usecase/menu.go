package usecase

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/bashoori/digitalmarketingacademy-bot/internal/domain"
)

// Button labels shared between the menu and the registration flow.
const (
	BtnStart     = "🏁 Start"
	BtnMainMenu  = "🏁 Main menu"
	BtnAbout     = "📘 About us"
	BtnRegister  = "📝 Get the details"
	BtnLesson    = "🎓 Free lesson"
	BtnLessonGo  = "🎓 Let's learn"
	BtnStep2     = "➡️ Step 2"
	BtnStep3     = "➡️ Step 3"
	BtnFranchise = "💼 Franchise"
	BtnSupport   = "💬 Support"
	BtnBook      = "📅 Book a session"
	BtnBonus     = "🎁 Bonus materials"
	BtnCancel    = "❌ Cancel"
)

// MainMenuOptions is the keyboard shown with the greeting.
func MainMenuOptions() []string {
	return []string{BtnAbout, BtnRegister, BtnLesson, BtnFranchise, BtnSupport, BtnBonus}
}

const (
	menuText = "👋 Welcome to the Digital Marketing Academy bot!\n\nPick an option from the menu below:"

	aboutText = "📘 About us:\nWe make learning online business, automation and digital marketing " +
		"simple for everyone. Learn how to build your own brand and earn online with us."

	lesson1Text = "🎓 Step 1: why is now the best time to start?\n" +
		"Because the online market is exploding! The brands that start earlier win.\n\nReady for the next step?"

	lesson2Text = "📈 Step 2: what is the digital marketing franchise model?\n" +
		"We teach you how to sell the sponsor company's products through digital ads and earn commission."

	lesson3Text = "💰 Step 3: how do you build your income?\n" +
		"You'll learn to produce content, run campaigns and build a real online income.\n\n" +
		"Want to book a free consultation? 📅"

	franchiseText = "💼 What is a franchise?\nThis partnership model lets you use our brand and training " +
		"system, sell the products and earn commission on every sale.\n\n" +
		"📈 Learn how to build an online business without starting from zero!"

	bonusText = "🎁 Here are your bonus materials:\nhttps://digitalmarketingacademy.example/bonus"

	bonusLockedText = "🔒 Bonus materials unlock after registration. Tap \"" + BtnRegister + "\" first."

	pongText = "🏓 pong — bot is alive and connected."
)

// lenientPattern compiles a case-insensitive matcher for a button phrase
// that tolerates a missing emoji, flexible whitespace and trailing
// punctuation, so slightly mangled taps and retyped labels still dispatch.
func lenientPattern(emoji, phrase string) *regexp.Regexp {
	words := strings.Fields(phrase)
	for i, w := range words {
		words[i] = regexp.QuoteMeta(w)
	}
	expr := `(?i)^\s*(?:` + regexp.QuoteMeta(emoji) + `)?\s*` + strings.Join(words, `\s+`) + `[\s!.…]*$`
	return regexp.MustCompile(expr)
}

var entryRe = lenientPattern("📝", "get the details")

// IsEntryCommand reports whether text triggers the registration flow.
func IsEntryCommand(text string) bool { return entryRe.MatchString(text) }

type menuRoute struct {
	pattern *regexp.Regexp
	gated   bool
	handle  func(contact domain.Contact) Reply
}

// Menu is the stateless command router used whenever a user has no active
// registration session. Routes are evaluated in declaration order, so
// overlapping patterns resolve deterministically.
type Menu struct {
	routes []menuRoute
	leads  domain.LeadRepository
	funnel *FunnelUsecase
	logger *slog.Logger
}

func NewMenu(leads domain.LeadRepository, supportUsername, bookingURL string, logger *slog.Logger) *Menu {
	m := &Menu{leads: leads, logger: logger}

	mainMenu := func(c domain.Contact) Reply {
		m.reach(c, StepMenu)
		return Reply{Text: menuText, Options: MainMenuOptions()}
	}
	lesson1 := func(c domain.Contact) Reply {
		m.reach(c, StepLesson1)
		return Reply{Text: lesson1Text, Options: []string{BtnStep2, BtnMainMenu}}
	}

	m.routes = []menuRoute{
		{pattern: regexp.MustCompile(`^/start(?:@\w+)?$`), handle: mainMenu},
		{pattern: regexp.MustCompile(`^/ping(?:@\w+)?$`), handle: func(domain.Contact) Reply {
			return Reply{Text: pongText}
		}},
		{pattern: lenientPattern("🏁", "start"), handle: mainMenu},
		{pattern: lenientPattern("🏁", "main menu"), handle: mainMenu},
		{pattern: lenientPattern("📘", "about us"), handle: func(domain.Contact) Reply {
			return Reply{Text: aboutText, Options: MainMenuOptions()}
		}},
		{pattern: lenientPattern("🎓", "free lesson"), handle: lesson1},
		{pattern: lenientPattern("🎓", "let's learn"), handle: lesson1},
		{pattern: lenientPattern("➡️", "step 2"), handle: func(c domain.Contact) Reply {
			m.reach(c, StepLesson2)
			return Reply{Text: lesson2Text, Options: []string{BtnStep3, BtnMainMenu}}
		}},
		{pattern: lenientPattern("➡️", "step 3"), handle: func(c domain.Contact) Reply {
			m.reach(c, StepLesson3)
			return Reply{Text: lesson3Text, Options: []string{BtnBook, BtnMainMenu}}
		}},
		{pattern: lenientPattern("💼", "franchise"), handle: func(domain.Contact) Reply {
			return Reply{Text: franchiseText, Options: MainMenuOptions()}
		}},
		{pattern: lenientPattern("💬", "support"), handle: func(domain.Contact) Reply {
			return Reply{Text: fmt.Sprintf("💬 For support, message: %s", supportUsername), Options: []string{BtnMainMenu}}
		}},
		{pattern: lenientPattern("📅", "book a session"), handle: func(domain.Contact) Reply {
			return Reply{Text: "📅 Book your free session here:\n" + bookingURL, Options: MainMenuOptions()}
		}},
		{pattern: lenientPattern("🎁", "bonus materials"), gated: true, handle: func(domain.Contact) Reply {
			return Reply{Text: bonusText, Options: MainMenuOptions()}
		}},
	}
	return m
}

func (m *Menu) SetFunnel(funnel *FunnelUsecase) { m.funnel = funnel }

// Dispatch matches text against the route table and runs the first hit.
// Unmatched text produces no reply at all: the bot stays silent rather
// than guessing a fallback.
func (m *Menu) Dispatch(contact domain.Contact, text string) (Reply, bool) {
	for _, rt := range m.routes {
		if !rt.pattern.MatchString(strings.TrimSpace(text)) {
			continue
		}
		if rt.gated && !m.hasLead(contact) {
			return Reply{Text: bonusLockedText, Options: []string{BtnRegister, BtnMainMenu}}, true
		}
		return rt.handle(contact), true
	}
	return Reply{}, false
}

func (m *Menu) hasLead(contact domain.Contact) bool {
	ok, err := m.leads.HasLeadFor(contact.UserID)
	if err != nil {
		m.logger.Error("lead lookup failed", "user_id", contact.UserID, "error", err)
		return false
	}
	return ok
}

func (m *Menu) reach(c domain.Contact, step Step) {
	if m.funnel != nil {
		m.funnel.Reach(c.UserID, step)
	}
}
