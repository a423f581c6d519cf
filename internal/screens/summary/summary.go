package summary

import (
	"context"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/adaptiq/internal/attempt"
	"github.com/abhisek/adaptiq/internal/router"
	"github.com/abhisek/adaptiq/internal/screen"
	"github.com/abhisek/adaptiq/internal/store"
	"github.com/abhisek/adaptiq/internal/ui/components"
	"github.com/abhisek/adaptiq/internal/ui/layout"
	"github.com/abhisek/adaptiq/internal/ui/theme"
)

type transcriptLoadedMsg struct {
	Transcript *store.TranscriptRecord
	Err        error
}

// SummaryScreen shows the result of a finished attempt and reviews each
// served item from its transcript.
type SummaryScreen struct {
	svc        *screen.Services
	outcome    *attempt.Outcome
	transcript *store.TranscriptRecord
	loadErr    string
}

var _ screen.Screen = (*SummaryScreen)(nil)
var _ screen.KeyHintProvider = (*SummaryScreen)(nil)

// New creates a SummaryScreen for a finished outcome.
func New(svc *screen.Services, outcome *attempt.Outcome) *SummaryScreen {
	return &SummaryScreen{svc: svc, outcome: outcome}
}

func (s *SummaryScreen) Init() tea.Cmd {
	if s.svc == nil || s.svc.Transcripts == nil || s.outcome == nil {
		return nil
	}
	repo, id := s.svc.Transcripts, s.outcome.AttemptID
	return func() tea.Msg {
		t, err := repo.Get(context.Background(), id)
		return transcriptLoadedMsg{Transcript: t, Err: err}
	}
}

func (s *SummaryScreen) Title() string {
	return "Attempt Summary"
}

func (s *SummaryScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "Enter", Description: "Continue"},
		{Key: "Esc", Description: "Home"},
	}
}

func (s *SummaryScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case transcriptLoadedMsg:
		if msg.Err != nil {
			s.loadErr = msg.Err.Error()
		} else {
			s.transcript = msg.Transcript
		}
		return s, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "enter", "esc":
			return s, func() tea.Msg { return router.PopToRootMsg{} }
		}
	}
	return s, nil
}

func (s *SummaryScreen) View(width, height int) string {
	if s.outcome == nil || s.outcome.Result == nil {
		return ""
	}
	res := s.outcome.Result
	cw := components.ContentWidth(width)

	var b strings.Builder

	verdict := theme.Correct.Render("PASSED")
	if !res.Passed {
		verdict = theme.Incorrect.Render("NOT YET")
	}
	b.WriteString(lipgloss.NewStyle().Foreground(theme.Primary).Bold(true).Render("Attempt complete"))
	b.WriteString("   ")
	b.WriteString(verdict)
	b.WriteString("\n\n")

	b.WriteString(theme.Body.Render(fmt.Sprintf("Score      %.0f%%  (pass mark %.0f%%)", res.Score, res.PassMark*100)))
	b.WriteString("\n")
	b.WriteString(theme.Body.Render(fmt.Sprintf("Correct    %d of %d", res.Correct, res.Served)))
	b.WriteString("\n")
	if res.Theta != nil {
		b.WriteString(theme.Body.Render(fmt.Sprintf("Ability    %+.2f", *res.Theta)))
		b.WriteString("\n")
	}

	switch {
	case s.loadErr != "":
		b.WriteString("\n")
		b.WriteString(theme.Hint.Render("Review unavailable: " + s.loadErr))
	case s.transcript != nil:
		b.WriteString("\n")
		b.WriteString(renderReview(s.transcript, cw-6))
	}

	return components.Centered(components.Card(b.String(), cw), width, height)
}

func renderReview(t *store.TranscriptRecord, width int) string {
	var b strings.Builder
	b.WriteString(theme.Hint.Render("Review"))
	for _, r := range t.Responses {
		b.WriteString("\n")
		mark := lipgloss.NewStyle().Foreground(theme.TextDim).Render("–")
		switch {
		case r.IsCorrect == nil:
		case *r.IsCorrect:
			mark = theme.Correct.Render("✓")
		default:
			mark = theme.Incorrect.Render("✗")
		}
		q := r.Question
		if width > 12 && lipgloss.Width(q) > width-8 {
			q = string([]rune(q)[:width-11]) + "..."
		}
		b.WriteString(fmt.Sprintf("%s %2d. %s", mark, r.Position+1, theme.Body.Render(q)))
		if r.IsCorrect == nil || !*r.IsCorrect {
			b.WriteString("\n       ")
			b.WriteString(theme.Hint.Render(fmt.Sprintf("answer: %c) %s", 'A'+r.CorrectIndex, choice(r.Choices, r.CorrectIndex))))
		}
	}
	return b.String()
}

func choice(choices []string, i int) string {
	if i < 0 || i >= len(choices) {
		return ""
	}
	return choices[i]
}
