package welcome

import (
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/adaptiq/internal/router"
	"github.com/abhisek/adaptiq/internal/screen"
)

// stubScreen is a minimal screen implementation for testing.
type stubScreen struct{}

func (s *stubScreen) Init() tea.Cmd                           { return nil }
func (s *stubScreen) Update(tea.Msg) (screen.Screen, tea.Cmd) { return s, nil }
func (s *stubScreen) View(int, int) string                    { return "home" }
func (s *stubScreen) Title() string                           { return "Home" }

func newTestWelcome() (*WelcomeScreen, *screen.Services, *int) {
	svc := &screen.Services{}
	callCount := 0
	factory := func() screen.Screen {
		callCount++
		return &stubScreen{}
	}
	return New(svc, factory), svc, &callCount
}

func enter() tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: tea.KeyEnter}
}

func TestEmptyLearnerIsRejected(t *testing.T) {
	w, svc, callCount := newTestWelcome()

	_, cmd := w.Update(enter())
	if cmd != nil {
		t.Error("expected no command for an empty learner id")
	}
	if w.errMsg == "" {
		t.Error("expected an error message")
	}
	if svc.Learner != "" || *callCount != 0 {
		t.Error("learner must not be recorded")
	}
	if !strings.Contains(w.View(100, 30), "Enter a learner ID") {
		t.Error("error should be rendered")
	}
}

func TestEnterRecordsLearnerAndReplaces(t *testing.T) {
	w, svc, callCount := newTestWelcome()
	w.input.Model.SetValue("  learner-7 ")

	_, cmd := w.Update(enter())
	if cmd == nil {
		t.Fatal("expected a transition command")
	}
	msg := cmd()
	replace, ok := msg.(router.ReplaceScreenMsg)
	if !ok {
		t.Fatalf("expected ReplaceScreenMsg, got %T", msg)
	}
	if replace.Screen == nil {
		t.Error("replace screen should not be nil")
	}
	if svc.Learner != "learner-7" {
		t.Errorf("expected learner-7, got %q", svc.Learner)
	}
	if *callCount != 1 {
		t.Errorf("factory should be called once, got %d", *callCount)
	}
}

func TestFactoryCalledOnce(t *testing.T) {
	w, _, callCount := newTestWelcome()
	w.input.Model.SetValue("learner-7")

	w.Update(enter())
	_, cmd := w.Update(enter())
	if cmd != nil {
		t.Error("second enter should not produce a command")
	}
	if *callCount != 1 {
		t.Errorf("factory should be called exactly once, got %d", *callCount)
	}
}

func TestBannerFallsBackWhenNarrow(t *testing.T) {
	if !strings.Contains(RenderBanner(40), "A D A P T I Q") {
		t.Error("expected compact banner on a narrow terminal")
	}
	if strings.Contains(RenderBanner(100), "A D A P T I Q") {
		t.Error("expected block art on a wide terminal")
	}
}

func TestTitleEmpty(t *testing.T) {
	w, _, _ := newTestWelcome()
	if w.Title() != "" {
		t.Errorf("expected empty title, got %q", w.Title())
	}
}
