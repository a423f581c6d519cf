package history

import (
	"context"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/adaptiq/internal/router"
	"github.com/abhisek/adaptiq/internal/screen"
	"github.com/abhisek/adaptiq/internal/store"
	"github.com/abhisek/adaptiq/internal/ui/layout"
	"github.com/abhisek/adaptiq/internal/ui/theme"
)

const listLimit = 50

type historyLoadedMsg struct {
	Transcripts []store.TranscriptRecord
	Err         error
}

type detailLoadedMsg struct {
	AttemptID string
	Record    *store.TranscriptRecord
	Err       error
}

// HistoryScreen lists the learner's finished attempts, newest first.
// Enter expands an attempt into its responses, fetched lazily.
type HistoryScreen struct {
	svc         *screen.Services
	transcripts []store.TranscriptRecord
	details     map[string]*store.TranscriptRecord
	expanded    map[string]bool
	selected    int
	loaded      bool
	errMsg      string
}

var _ screen.Screen = (*HistoryScreen)(nil)
var _ screen.KeyHintProvider = (*HistoryScreen)(nil)

func New(svc *screen.Services) *HistoryScreen {
	return &HistoryScreen{
		svc:      svc,
		details:  make(map[string]*store.TranscriptRecord),
		expanded: make(map[string]bool),
	}
}

func (s *HistoryScreen) Init() tea.Cmd {
	repo, learner := s.svc.Transcripts, s.svc.Learner
	return func() tea.Msg {
		list, err := repo.ListByLearner(context.Background(), learner, listLimit)
		return historyLoadedMsg{Transcripts: list, Err: err}
	}
}

func (s *HistoryScreen) Title() string { return "History" }

func (s *HistoryScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "Enter", Description: "Details"},
		{Key: "↑↓", Description: "Navigate"},
		{Key: "Esc", Description: "Back"},
	}
}

func (s *HistoryScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case historyLoadedMsg:
		s.loaded = true
		s.transcripts, s.errMsg = msg.Transcripts, ""
		if msg.Err != nil {
			s.errMsg = msg.Err.Error()
		}
	case detailLoadedMsg:
		// A failed fetch leaves the placeholder; collapsing and
		// expanding again retries.
		if msg.Err == nil {
			s.details[msg.AttemptID] = msg.Record
		}
	case tea.KeyMsg:
		return s, s.handleKey(msg.String())
	}
	return s, nil
}

func (s *HistoryScreen) handleKey(k string) tea.Cmd {
	switch k {
	case "esc":
		return func() tea.Msg { return router.PopScreenMsg{} }
	case "up", "k":
		s.selected = max(s.selected-1, 0)
	case "down", "j":
		s.selected = max(min(s.selected+1, len(s.transcripts)-1), 0)
	case "enter":
		if s.selected >= len(s.transcripts) {
			return nil
		}
		id := s.transcripts[s.selected].AttemptID
		s.expanded[id] = !s.expanded[id]
		if s.expanded[id] {
			return s.loadDetail(id)
		}
	}
	return nil
}

// loadDetail fetches the responses of one attempt unless already cached.
func (s *HistoryScreen) loadDetail(attemptID string) tea.Cmd {
	if _, ok := s.details[attemptID]; ok {
		return nil
	}
	repo := s.svc.Transcripts
	return func() tea.Msg {
		rec, err := repo.Get(context.Background(), attemptID)
		return detailLoadedMsg{AttemptID: attemptID, Record: rec, Err: err}
	}
}

func (s *HistoryScreen) View(width, height int) string {
	notice := lipgloss.NewStyle().Width(width).Align(lipgloss.Center).Foreground(theme.TextDim)
	switch {
	case s.errMsg != "":
		return notice.Foreground(theme.Error).Render("\n\nError: " + s.errMsg)
	case !s.loaded:
		return notice.Render("\n\nLoading history...")
	case len(s.transcripts) == 0:
		return notice.Italic(true).Render("\n\nNo attempts yet. Take a quiz!")
	}

	var lines []string
	first, last := 0, 0
	for i, t := range s.transcripts {
		if i == s.selected {
			first = len(lines)
		}
		lines = append(lines, summaryLine(t, i == s.selected))
		if s.expanded[t.AttemptID] {
			lines = append(lines, detailLines(t, s.details[t.AttemptID])...)
		}
		if i == s.selected {
			last = len(lines)
		}
	}

	lines = scrollTo(lines, first, last, height-1)
	for i, l := range lines {
		lines[i] = lipgloss.PlaceHorizontal(width, lipgloss.Center, l)
	}
	return "\n" + strings.Join(lines, "\n")
}

// scrollTo returns the window of at most height lines that shows as much
// of [first, last) as fits, starting at first when the block is taller
// than the window.
func scrollTo(lines []string, first, last, height int) []string {
	if height <= 0 || len(lines) <= height {
		return lines
	}
	start := max(last-height, 0)
	start = min(start, first)
	return lines[start:min(start+height, len(lines))]
}

func summaryLine(t store.TranscriptRecord, selected bool) string {
	cursor, style := "  ", lipgloss.NewStyle().Foreground(theme.Text)
	if selected {
		cursor, style = "> ", style.Foreground(theme.Primary).Bold(true)
	}
	verdict := "not yet"
	if t.Passed {
		verdict = "passed"
	}
	return style.Render(fmt.Sprintf("%s%s  %s / %s  %d/%d correct  %.0f%%  %s",
		cursor, t.FinishedAt.Format("Jan 02, 2006"), t.Topic, t.Subtopic,
		t.CorrectCount, t.ServedCount, t.Score, verdict))
}

func detailLines(t store.TranscriptRecord, full *store.TranscriptRecord) []string {
	dim := lipgloss.NewStyle().Foreground(theme.TextDim)

	meta := fmt.Sprintf("    %s · %s policy · pass mark %.0f%%", t.Difficulty, t.Policy, t.PassMark*100)
	if t.Theta != nil {
		meta += fmt.Sprintf(" · ability %+.2f", *t.Theta)
	}
	out := []string{dim.Render(meta)}
	if full == nil {
		return append(out, dim.Italic(true).Render("    Loading responses..."))
	}
	for _, r := range full.Responses {
		mark, style := "–", dim
		switch {
		case r.IsCorrect == nil:
		case *r.IsCorrect:
			mark, style = "✓", theme.Correct
		default:
			mark, style = "✗", theme.Incorrect
		}
		out = append(out, style.Render(fmt.Sprintf("    %s %d. %s", mark, r.Position+1, r.Question)))
	}
	return out
}
