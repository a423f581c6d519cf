package home

import (
	"context"
	"strings"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/adaptiq/internal/router"
	"github.com/abhisek/adaptiq/internal/screen"
	"github.com/abhisek/adaptiq/internal/screens/history"
	"github.com/abhisek/adaptiq/internal/screens/topics"
	"github.com/abhisek/adaptiq/internal/ui/components"
	"github.com/abhisek/adaptiq/internal/ui/layout"
)

// Stats summarizes a learner's standing for the dashboard.
type Stats struct {
	Completed int
	Attempts  int
	Subtopics int
}

type statsMsg struct {
	Stats Stats
	Err   error
}

// HomeScreen is the main menu of the terminal client.
type HomeScreen struct {
	svc    *screen.Services
	menu   components.Menu
	stats  Stats
	loaded bool
	errMsg string
}

var _ screen.Screen = (*HomeScreen)(nil)
var _ screen.KeyHintProvider = (*HomeScreen)(nil)

// New creates a new HomeScreen.
func New(svc *screen.Services) *HomeScreen {
	items := []components.MenuItem{
		{Label: "TAKE A QUIZ", Action: func() tea.Cmd {
			return func() tea.Msg {
				return router.PushScreenMsg{Screen: topics.New(svc)}
			}
		}},
		{Label: "HISTORY", Action: func() tea.Cmd {
			return func() tea.Msg {
				return router.PushScreenMsg{Screen: history.New(svc)}
			}
		}},
		{Label: "EXIT", Action: func() tea.Cmd {
			return tea.Quit
		}},
	}
	if svc.Transcripts == nil {
		items[1].Disabled = true
		items[1].Note = "unavailable"
	}

	return &HomeScreen{
		svc:  svc,
		menu: components.NewMenu(items),
	}
}

// Init reloads the dashboard stats. The router re-runs it when the stack
// unwinds to home, so counts reflect the attempt just finished.
func (h *HomeScreen) Init() tea.Cmd {
	svc := *h.svc
	return func() tea.Msg {
		st, err := loadStats(context.Background(), svc)
		return statsMsg{Stats: st, Err: err}
	}
}

func loadStats(ctx context.Context, svc screen.Services) (Stats, error) {
	var st Stats
	if svc.Curriculum != nil {
		topics, err := svc.Curriculum.Topics(ctx)
		if err != nil {
			return st, err
		}
		for _, t := range topics {
			st.Subtopics += len(t.Subtopics)
		}
	}
	if svc.Progress != nil {
		records, err := svc.Progress.List(ctx, svc.Learner)
		if err != nil {
			return st, err
		}
		for _, p := range records {
			st.Attempts += p.Attempts
			if p.Completed {
				st.Completed++
			}
		}
	}
	return st, nil
}

func (h *HomeScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	if sm, ok := msg.(statsMsg); ok {
		h.loaded = true
		if sm.Err != nil {
			h.errMsg = sm.Err.Error()
			return h, nil
		}
		h.errMsg = ""
		h.stats = sm.Stats
		return h, nil
	}

	var cmd tea.Cmd
	h.menu, cmd = h.menu.Update(msg)
	return h, cmd
}

func (h *HomeScreen) View(width, height int) string {
	compact := height < 22 || width < 90
	cw := components.ContentWidth(width)

	sections := []string{renderTitle(cw, compact)}
	switch {
	case h.errMsg != "":
		sections = append(sections, renderError(h.errMsg, cw))
	case h.loaded:
		sections = append(sections, renderStatsBar(h.stats, cw, compact))
	}
	sections = append(sections, renderMenu(h.menu, cw))

	return components.Centered(strings.Join(sections, "\n\n"), width, height)
}

func (h *HomeScreen) Title() string {
	return "Home"
}

func (h *HomeScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Navigate"},
		{Key: "Enter", Description: "Select"},
		{Key: "Ctrl+C", Description: "Quit"},
	}
}
