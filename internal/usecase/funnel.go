package usecase

import (
	"fmt"
	"strings"
)

// Step is a milestone in the academy funnel, from the first menu tap to a
// saved lead and the free-lesson sequence.
type Step string

const (
	StepMenu                Step = "menu"
	StepRegistrationStarted Step = "registration_started"
	StepNameEntered         Step = "name_entered"
	StepLeadSaved           Step = "lead_saved"
	StepLesson1             Step = "lesson_1"
	StepLesson2             Step = "lesson_2"
	StepLesson3             Step = "lesson_3"
)

type FunnelRepository interface {
	Hit(step Step, chatID int64) error
	Counts() map[Step]int
}

type FunnelUsecase struct {
	repo  FunnelRepository
	order []Step
}

func NewFunnelUsecase(repo FunnelRepository) *FunnelUsecase {
	return &FunnelUsecase{
		repo: repo,
		order: []Step{
			StepMenu,
			StepRegistrationStarted,
			StepNameEntered,
			StepLeadSaved,
			StepLesson1,
			StepLesson2,
			StepLesson3,
		},
	}
}

func (u *FunnelUsecase) Reach(chatID int64, step Step) {
	if step == "" {
		return
	}
	_ = u.repo.Hit(step, chatID)
}

// Chart renders a text funnel for chats where the PNG chart cannot be sent.
func (u *FunnelUsecase) Chart() string {
	counts := u.repo.Counts()
	if len(counts) == 0 {
		return "No funnel data yet"
	}
	base := counts[u.order[0]]
	if base == 0 {
		// fall back to the largest step as the base
		for _, s := range u.order {
			if counts[s] > base {
				base = counts[s]
			}
		}
	}
	var prev int
	var b strings.Builder
	b.WriteString("Funnel by step:\n")
	for i, s := range u.order {
		c := counts[s]
		relBase := percent(c, base)
		relPrev := 0
		if i == 0 {
			relPrev = 100
		} else if prev > 0 {
			relPrev = percent(c, prev)
		}
		fmt.Fprintf(&b, "- %s: %d | %3d%% of base | %3d%% of previous %s\n", stepLabel(s), c, relBase, relPrev, bar20(c, base))
		prev = c
	}
	return b.String()
}

// GraphData returns labels and values in step order for chart rendering.
func (u *FunnelUsecase) GraphData() ([]string, []int) {
	counts := u.repo.Counts()
	labels := make([]string, 0, len(u.order))
	values := make([]int, 0, len(u.order))
	for _, s := range u.order {
		labels = append(labels, stepLabel(s))
		values = append(values, counts[s])
	}
	return labels, values
}

func percent(a, b int) int {
	if b <= 0 {
		return 0
	}
	return int((100 * a) / b)
}

func bar20(val, max int) string {
	if max <= 0 {
		return ""
	}
	filled := (20 * val) / max
	if filled < 0 {
		filled = 0
	}
	if filled > 20 {
		filled = 20
	}
	return "[" + strings.Repeat("#", filled) + strings.Repeat("-", 20-filled) + "]"
}

func stepLabel(s Step) string {
	switch s {
	case StepMenu:
		return "Menu"
	case StepRegistrationStarted:
		return "Registration"
	case StepNameEntered:
		return "Name"
	case StepLeadSaved:
		return "Lead"
	case StepLesson1:
		return "Lesson 1"
	case StepLesson2:
		return "Lesson 2"
	case StepLesson3:
		return "Lesson 3"
	default:
		return string(s)
	}
}
