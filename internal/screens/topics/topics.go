package topics

import (
	"context"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/adaptiq/internal/bank"
	"github.com/abhisek/adaptiq/internal/curriculum"
	"github.com/abhisek/adaptiq/internal/router"
	"github.com/abhisek/adaptiq/internal/screen"
	"github.com/abhisek/adaptiq/internal/screens/quiz"
	"github.com/abhisek/adaptiq/internal/store"
	"github.com/abhisek/adaptiq/internal/ui/layout"
	"github.com/abhisek/adaptiq/internal/ui/theme"
)

// Status is a subtopic's standing for the current learner.
type Status int

const (
	StatusAvailable Status = iota
	StatusCompleted
	StatusLocked
)

// Label returns the right-hand column text for the status.
func (s Status) Label() string {
	switch s {
	case StatusCompleted:
		return "completed"
	case StatusLocked:
		return "locked"
	}
	return "open"
}

// Icon returns the single-glyph marker for the status.
func (s Status) Icon() string {
	switch s {
	case StatusCompleted:
		return "✓"
	case StatusLocked:
		return "🔒"
	}
	return "○"
}

type rowKind int

const (
	rowTopicHeader rowKind = iota
	rowSubtopic
)

type row struct {
	kind     rowKind
	topic    string
	subtopic string
	status   Status
	score    *float64
	unmet    []curriculum.Ref
}

type loadedMsg struct {
	Rows []row
	Err  error
}

// TopicsScreen lists every subtopic of the curriculum with the learner's
// standing and starts an attempt on the selected one.
type TopicsScreen struct {
	svc          *screen.Services
	rows         []row
	cursor       int
	scrollOffset int
	loaded       bool
	errMsg       string
}

var _ screen.Screen = (*TopicsScreen)(nil)
var _ screen.KeyHintProvider = (*TopicsScreen)(nil)

// New creates a TopicsScreen.
func New(svc *screen.Services) *TopicsScreen {
	return &TopicsScreen{svc: svc}
}

func (s *TopicsScreen) Init() tea.Cmd {
	svc := *s.svc
	return func() tea.Msg {
		rows, err := loadRows(context.Background(), svc)
		return loadedMsg{Rows: rows, Err: err}
	}
}

// loadRows builds one header row per topic followed by its subtopics in
// curriculum order, annotated with progress and gate status.
func loadRows(ctx context.Context, svc screen.Services) ([]row, error) {
	topics, err := svc.Curriculum.Topics(ctx)
	if err != nil {
		return nil, fmt.Errorf("load topics: %w", err)
	}
	progress, err := svc.Progress.List(ctx, svc.Learner)
	if err != nil {
		return nil, fmt.Errorf("load progress: %w", err)
	}
	byRef := make(map[curriculum.Ref]store.ProgressRecord, len(progress))
	for _, p := range progress {
		byRef[curriculum.Ref{Topic: p.Topic, Subtopic: p.Subtopic}] = p
	}

	var rows []row
	for _, t := range topics {
		rows = append(rows, row{kind: rowTopicHeader, topic: t.Name})
		for _, sub := range t.Subtopics {
			r := row{kind: rowSubtopic, topic: t.Name, subtopic: sub}
			if p, ok := byRef[curriculum.Ref{Topic: t.Name, Subtopic: sub}]; ok {
				score := p.LastScore
				r.score = &score
				if p.Completed {
					r.status = StatusCompleted
				}
			}
			if r.status != StatusCompleted {
				ok, unmet, err := svc.Gate.Check(ctx, svc.Learner, t.Name, sub)
				if err != nil {
					return nil, fmt.Errorf("check %s/%s: %w", t.Name, sub, err)
				}
				if !ok {
					r.status = StatusLocked
					r.unmet = unmet
				}
			}
			rows = append(rows, r)
		}
	}
	return rows, nil
}

func (s *TopicsScreen) Title() string {
	return "Topics"
}

func (s *TopicsScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Navigate"},
		{Key: "Tab", Description: "Topic"},
		{Key: "P", Description: "Policy"},
		{Key: "Enter", Description: "Start"},
		{Key: "Esc", Description: "Back"},
	}
}

func (s *TopicsScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case loadedMsg:
		s.loaded = true
		if msg.Err != nil {
			s.errMsg = msg.Err.Error()
			return s, nil
		}
		s.errMsg = ""
		s.rows = msg.Rows
		s.cursor = 0
		s.moveCursor(1)
		return s, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "up", "k":
			s.moveCursor(-1)
		case "down", "j":
			s.moveCursor(1)
		case "tab":
			s.nextTopic()
		case "p", "P":
			s.togglePolicy()
		case "enter":
			return s, s.selectSubtopic()
		case "esc":
			return s, func() tea.Msg { return router.PopScreenMsg{} }
		}
	}
	return s, nil
}

// moveCursor moves the cursor by delta, skipping topic headers. From a
// header it lands on the nearest subtopic in that direction.
func (s *TopicsScreen) moveCursor(delta int) {
	next := s.cursor
	if len(s.rows) > 0 && s.rows[s.cursor].kind == rowSubtopic {
		next += delta
	}
	for next >= 0 && next < len(s.rows) {
		if s.rows[next].kind == rowSubtopic {
			s.cursor = next
			return
		}
		next += delta
	}
}

// nextTopic jumps the cursor to the first subtopic of the next topic.
func (s *TopicsScreen) nextTopic() {
	if len(s.rows) == 0 {
		return
	}
	current := s.rows[s.cursor].topic
	for i := s.cursor + 1; i < len(s.rows); i++ {
		if s.rows[i].kind == rowSubtopic && s.rows[i].topic != current {
			s.cursor = i
			return
		}
	}
}

func (s *TopicsScreen) togglePolicy() {
	if s.svc.Policy == bank.PolicyAdaptive {
		s.svc.Policy = bank.PolicyFixed
	} else {
		s.svc.Policy = bank.PolicyAdaptive
	}
}

// selectSubtopic starts an attempt on the current row. Locked rows are
// started too: the engine reports the unmet prerequisites.
func (s *TopicsScreen) selectSubtopic() tea.Cmd {
	if len(s.rows) == 0 {
		return nil
	}
	r := s.rows[s.cursor]
	if r.kind != rowSubtopic {
		return nil
	}
	next := quiz.New(s.svc, r.topic, r.subtopic)
	return func() tea.Msg {
		return router.PushScreenMsg{Screen: next}
	}
}

func (s *TopicsScreen) View(width, height int) string {
	if s.errMsg != "" {
		return lipgloss.NewStyle().Width(width).Align(lipgloss.Center).Foreground(theme.Error).
			Render("\n\nError: " + s.errMsg)
	}
	if !s.loaded {
		return lipgloss.NewStyle().Width(width).Align(lipgloss.Center).Foreground(theme.TextDim).
			Render("\n\n  Loading curriculum...")
	}
	if len(s.rows) == 0 {
		return lipgloss.NewStyle().Width(width).Align(lipgloss.Center).Foreground(theme.TextDim).Italic(true).
			Render("\n\n  No curriculum yet. Run `adaptiq curriculum seed`.")
	}

	policy := s.svc.Policy
	if policy == "" {
		policy = bank.PolicyFixed
	}
	header := lipgloss.NewStyle().Foreground(theme.TextDim).
		Render(fmt.Sprintf("  Selection policy: %s", policy))

	body := height - 1
	s.adjustScroll(body)

	lines := []string{header}
	for i := s.scrollOffset; i < len(s.rows) && len(lines) <= body; i++ {
		r := s.rows[i]
		switch r.kind {
		case rowTopicHeader:
			lines = append(lines, renderTopicHeader(r.topic, width))
		case rowSubtopic:
			lines = append(lines, renderSubtopicRow(r, i == s.cursor, width))
		}
	}
	return strings.Join(lines, "\n")
}

// adjustScroll ensures the cursor is visible within the viewport.
func (s *TopicsScreen) adjustScroll(height int) {
	if height <= 0 {
		return
	}
	headerRow := s.cursor
	for headerRow > 0 && s.rows[headerRow-1].kind == rowTopicHeader {
		headerRow--
	}
	if headerRow < s.scrollOffset {
		s.scrollOffset = headerRow
	}
	if s.cursor >= s.scrollOffset+height {
		s.scrollOffset = s.cursor - height + 1
	}
}

func renderTopicHeader(topic string, width int) string {
	return lipgloss.NewStyle().
		Foreground(theme.Secondary).
		Bold(true).
		Width(width).
		Padding(0, 0, 0, 2).
		Render(strings.ToUpper(topic))
}

func renderSubtopicRow(r row, selected bool, width int) string {
	nameWidth := width - 4 - 3 - 12 - 8 - 4
	if nameWidth < 10 {
		nameWidth = 10
	}
	name := r.subtopic
	if len([]rune(name)) > nameWidth {
		name = string([]rune(name)[:nameWidth-1]) + "…"
	}

	var nameStyle, labelStyle lipgloss.Style
	switch {
	case selected:
		nameStyle = theme.Selected
		labelStyle = lipgloss.NewStyle().Foreground(theme.Primary)
	case r.status == StatusCompleted:
		nameStyle = lipgloss.NewStyle().Foreground(theme.Success)
		labelStyle = nameStyle
	case r.status == StatusLocked:
		nameStyle = lipgloss.NewStyle().Foreground(theme.TextDim)
		labelStyle = theme.Locked
	default:
		nameStyle = lipgloss.NewStyle().Foreground(theme.Text)
		labelStyle = lipgloss.NewStyle().Foreground(theme.Secondary)
	}

	cursor := "  "
	if selected {
		cursor = "▸ "
	}
	score := ""
	if r.score != nil {
		score = fmt.Sprintf("%3.0f%%", *r.score)
	}

	return fmt.Sprintf("  %s%s %s  %s  %s",
		cursor,
		r.status.Icon(),
		nameStyle.Render(fmt.Sprintf("%-*s", nameWidth, name)),
		lipgloss.NewStyle().Foreground(theme.TextDim).Render(fmt.Sprintf("%6s", score)),
		labelStyle.Render(fmt.Sprintf("%10s", r.status.Label())),
	)
}
