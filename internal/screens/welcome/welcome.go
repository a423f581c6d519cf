package welcome

import (
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/adaptiq/internal/router"
	"github.com/abhisek/adaptiq/internal/screen"
	"github.com/abhisek/adaptiq/internal/ui/components"
	"github.com/abhisek/adaptiq/internal/ui/layout"
	"github.com/abhisek/adaptiq/internal/ui/theme"
)

const learnerIDMax = 64

// WelcomeScreen asks the learner to identify themselves before handing
// over to the home screen.
type WelcomeScreen struct {
	svc          *screen.Services
	homeFactory  func() screen.Screen
	input        components.TextInput
	errMsg       string
	transitioned bool
}

var _ screen.Screen = (*WelcomeScreen)(nil)
var _ screen.KeyHintProvider = (*WelcomeScreen)(nil)

// New creates a WelcomeScreen that records the learner on svc and then
// transitions to the screen produced by homeFactory.
func New(svc *screen.Services, homeFactory func() screen.Screen) *WelcomeScreen {
	return &WelcomeScreen{
		svc:         svc,
		homeFactory: homeFactory,
		input:       components.NewTextInput("learner id", learnerIDMax),
	}
}

func (w *WelcomeScreen) Title() string {
	return ""
}

func (w *WelcomeScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "Enter", Description: "Continue"},
		{Key: "Ctrl+C", Description: "Quit"},
	}
}

func (w *WelcomeScreen) Init() tea.Cmd {
	return w.input.Init()
}

func (w *WelcomeScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	if kmsg, ok := msg.(tea.KeyPressMsg); ok && kmsg.String() == "enter" {
		return w, w.submit()
	}

	var cmd tea.Cmd
	w.input, cmd = w.input.Update(msg)
	if _, ok := msg.(tea.KeyPressMsg); ok {
		w.errMsg = ""
	}
	return w, cmd
}

func (w *WelcomeScreen) submit() tea.Cmd {
	if w.transitioned {
		return nil
	}
	id := w.input.Value()
	if id == "" {
		w.errMsg = "Enter a learner ID to continue."
		return nil
	}
	w.transitioned = true
	w.svc.Learner = id
	home := w.homeFactory()
	return func() tea.Msg {
		return router.ReplaceScreenMsg{Screen: home}
	}
}

func (w *WelcomeScreen) View(width, height int) string {
	sections := []string{
		RenderBanner(width),
		"",
		lipgloss.NewStyle().Foreground(theme.Text).Bold(true).
			Render("Adaptive assessments, one item at a time."),
		"",
		lipgloss.NewStyle().Foreground(theme.TextDim).Render("Learner ID: ") + w.input.View(),
	}
	if w.errMsg != "" {
		sections = append(sections, "", lipgloss.NewStyle().Foreground(theme.Error).Render(w.errMsg))
	}

	return components.Centered(strings.Join(sections, "\n"), width, height)
}
