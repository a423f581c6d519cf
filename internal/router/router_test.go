package router

import (
	"reflect"
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/adaptiq/internal/screen"
)

type fakeScreen struct {
	name  string
	inits int
	seen  []tea.Msg
}

func (s *fakeScreen) Init() tea.Cmd {
	s.inits++
	return nil
}

func (s *fakeScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	s.seen = append(s.seen, msg)
	return s, nil
}

func (s *fakeScreen) View(w, h int) string { return s.name }
func (s *fakeScreen) Title() string        { return s.name }

type keyMsg string

func stackOf(names ...string) (*Router, []*fakeScreen) {
	screens := make([]*fakeScreen, len(names))
	for i, n := range names {
		screens[i] = &fakeScreen{name: n}
	}
	r := New(screens[0])
	for _, s := range screens[1:] {
		r.Push(s)
	}
	return r, screens
}

func TestRouter_Navigation(t *testing.T) {
	tests := []struct {
		name      string
		start     []string
		msg       tea.Msg
		wantTrail []string
	}{
		{"push", []string{"home"}, PushScreenMsg{Screen: &fakeScreen{name: "topics"}}, []string{"home", "topics"}},
		{"pop", []string{"home", "topics"}, PopScreenMsg{}, []string{"home"}},
		{"pop at root is a no-op", []string{"home"}, PopScreenMsg{}, []string{"home"}},
		{"replace keeps depth", []string{"home", "quiz"}, ReplaceScreenMsg{Screen: &fakeScreen{name: "summary"}}, []string{"home", "summary"}},
		{"pop to root", []string{"home", "topics", "quiz"}, PopToRootMsg{}, []string{"home"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, screens := stackOf(tt.start...)
			r.Update(tt.msg)

			if got := r.Trail(); !reflect.DeepEqual(got, tt.wantTrail) {
				t.Errorf("trail = %v, want %v", got, tt.wantTrail)
			}
			if r.Depth() != len(tt.wantTrail) {
				t.Errorf("depth = %d, want %d", r.Depth(), len(tt.wantTrail))
			}
			for _, s := range screens {
				if len(s.seen) > 0 {
					t.Errorf("navigation message leaked to %q", s.name)
				}
			}
		})
	}
}

func TestRouter_InitOnOpen(t *testing.T) {
	r, screens := stackOf("home")
	home := screens[0]

	topics := &fakeScreen{name: "topics"}
	r.Push(topics)
	summary := &fakeScreen{name: "summary"}
	r.Replace(summary)
	if topics.inits != 1 || summary.inits != 1 {
		t.Fatalf("inits: topics=%d summary=%d, want 1 each", topics.inits, summary.inits)
	}

	r.Pop()
	if home.inits != 0 {
		t.Error("pop should not re-initialise the revealed screen")
	}

	r.Push(&fakeScreen{name: "history"})
	r.PopToRoot()
	if home.inits != 1 {
		t.Errorf("pop to root should re-initialise the root, inits = %d", home.inits)
	}
}

func TestRouter_ForwardsToActive(t *testing.T) {
	r, screens := stackOf("home", "quiz")

	r.Update(keyMsg("a"))

	if len(screens[0].seen) != 0 {
		t.Error("inactive screen received input")
	}
	if len(screens[1].seen) != 1 || screens[1].seen[0] != keyMsg("a") {
		t.Errorf("active screen saw %v", screens[1].seen)
	}
	if got := r.View(80, 24); got != "quiz" {
		t.Errorf("View = %q, want the active screen", got)
	}
}
