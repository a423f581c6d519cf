package quiz

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/adaptiq/internal/attempt"
	"github.com/abhisek/adaptiq/internal/ui/components"
	"github.com/abhisek/adaptiq/internal/ui/theme"
)

func (s *QuizScreen) View(width, height int) string {
	switch {
	case s.errMsg != "":
		return renderError(width, height, s.errMsg)
	case s.outcome == nil:
		return renderLoading(width, height, "Preparing your first item...")
	case s.confirmEnd:
		return renderEndConfirm(width, height)
	}

	p := s.outcome.Payload
	if p == nil {
		return renderLoading(width, height, "Working...")
	}
	switch p.Type {
	case attempt.PayloadLocked:
		return renderLocked(width, height, p)
	case attempt.PayloadNoItem, attempt.PayloadSelectionPending:
		return renderNoItem(width, height, p, s.busy)
	}
	return s.renderItem(width)
}

func (s *QuizScreen) renderItem(width int) string {
	p := s.outcome.Payload
	cw := components.ContentWidth(width)

	var b strings.Builder

	policy := string(s.req.Policy)
	if policy == "" {
		policy = "fixed"
	}
	info := lipgloss.NewStyle().Foreground(theme.Secondary).Bold(true).
		Render(fmt.Sprintf("  %s › %s", s.req.Topic, s.req.Subtopic)) +
		lipgloss.NewStyle().Foreground(theme.TextDim).Render("  ("+policy+")")
	b.WriteString(info)
	b.WriteString("\n")

	if s.req.Target > 0 && p.Index != nil {
		b.WriteString("  ")
		b.WriteString(components.NewProgressBar("Item", *p.Index, s.req.Target, cw).View())
		b.WriteString("\n")
	}
	b.WriteString(lipgloss.NewStyle().Foreground(theme.Border).Render(strings.Repeat("─", max(width-4, 0))))
	b.WriteString("\n\n")

	body := lipgloss.NewStyle().Width(cw).Render(s.mc.View())
	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, body))

	if s.busy {
		b.WriteString("\n")
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center,
			theme.Hint.Render("Recording your answer...")))
	}
	return b.String()
}

func renderLocked(width, height int, p *attempt.Payload) string {
	var b strings.Builder
	b.WriteString(theme.Locked.Bold(true).Render("Locked"))
	b.WriteString("\n\n")
	b.WriteString(theme.Body.Render(p.Message))
	b.WriteString("\n")
	for _, r := range p.Unmet {
		b.WriteString("\n  • ")
		b.WriteString(theme.Body.Render(r.String()))
	}
	return components.Centered(components.Card(b.String(), components.ContentWidth(width)), width, height)
}

func renderNoItem(width, height int, p *attempt.Payload, busy bool) string {
	msg := theme.Body.Render(p.Message)
	if busy {
		msg += "\n\n" + theme.Hint.Render("Looking for another item...")
	} else {
		msg += "\n\n" + theme.Hint.Render("Retry later, or end the attempt now.")
	}
	return components.Centered(components.Card(msg, components.ContentWidth(width)), width, height)
}

func renderEndConfirm(width, height int) string {
	msg := theme.Body.Bold(true).Render("End this attempt now?") + "\n\n" +
		theme.Hint.Render("Items you have not answered count as incorrect.") + "\n\n" +
		theme.Body.Render("(y/n)")
	return components.Centered(components.Card(msg, components.ContentWidth(width)), width, height)
}

func renderLoading(width, height int, text string) string {
	return components.Centered(theme.Hint.Render(text), width, height)
}

func renderError(width, height int, msg string) string {
	text := theme.Incorrect.Render("Error") + "\n\n" + theme.Body.Render(msg)
	return components.Centered(components.Card(text, components.ContentWidth(width)), width, height)
}
