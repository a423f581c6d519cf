package topics

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/adaptiq/internal/bank"
	"github.com/abhisek/adaptiq/internal/curriculum"
	"github.com/abhisek/adaptiq/internal/router"
	"github.com/abhisek/adaptiq/internal/screen"
	"github.com/abhisek/adaptiq/internal/screens/quiz"
	"github.com/abhisek/adaptiq/internal/store"
)

type stubCurriculum struct {
	topics []store.TopicRecord
	err    error
}

func (s stubCurriculum) Seed(context.Context, []store.TopicRecord, []store.EdgeRecord) error {
	return nil
}
func (s stubCurriculum) Topics(context.Context) ([]store.TopicRecord, error) { return s.topics, s.err }
func (s stubCurriculum) Subtopics(context.Context, string) ([]string, error) { return nil, nil }
func (s stubCurriculum) Edges(context.Context) ([]store.EdgeRecord, error)   { return nil, nil }

type stubProgress struct {
	records []store.ProgressRecord
}

func (s stubProgress) Get(context.Context, string, string, string) (*store.ProgressRecord, error) {
	return nil, nil
}
func (s stubProgress) List(context.Context, string) ([]store.ProgressRecord, error) {
	return s.records, nil
}
func (s stubProgress) Record(context.Context, store.ProgressUpdate) error { return nil }

// stubGate locks every subtopic listed in locked behind TVM.
type stubGate struct {
	locked map[string]bool
	calls  int
}

func (g *stubGate) Check(_ context.Context, _, topic, subtopic string) (bool, []curriculum.Ref, error) {
	g.calls++
	if g.locked[subtopic] {
		return false, []curriculum.Ref{{Topic: topic, Subtopic: "TVM"}}, nil
	}
	return true, nil, nil
}

func testServices(gate *stubGate) *screen.Services {
	return &screen.Services{
		Curriculum: stubCurriculum{topics: []store.TopicRecord{
			{Name: "Corporate Finance", Subtopics: []string{"TVM", "NPV", "IRR"}},
			{Name: "Valuation", Subtopics: []string{"DCF"}},
		}},
		Progress: stubProgress{records: []store.ProgressRecord{
			{LearnerID: "ada", Topic: "Corporate Finance", Subtopic: "TVM", Attempts: 2, Completed: true, LastScore: 80},
			{LearnerID: "ada", Topic: "Corporate Finance", Subtopic: "NPV", Attempts: 1, LastScore: 40},
		}},
		Gate:    gate,
		Learner: "ada",
	}
}

func loaded(t *testing.T, svc *screen.Services) *TopicsScreen {
	t.Helper()
	s := New(svc)
	s.Update(s.Init()())
	if s.errMsg != "" {
		t.Fatalf("load failed: %s", s.errMsg)
	}
	return s
}

func TestLoad_BuildsRowsWithStatus(t *testing.T) {
	gate := &stubGate{locked: map[string]bool{"IRR": true}}
	s := loaded(t, testServices(gate))

	if len(s.rows) != 6 {
		t.Fatalf("expected 6 rows (2 headers, 4 subtopics), got %d", len(s.rows))
	}
	want := map[string]Status{
		"TVM": StatusCompleted,
		"NPV": StatusAvailable,
		"IRR": StatusLocked,
		"DCF": StatusAvailable,
	}
	for _, r := range s.rows {
		if r.kind != rowSubtopic {
			continue
		}
		if r.status != want[r.subtopic] {
			t.Errorf("%s: status = %v, want %v", r.subtopic, r.status, want[r.subtopic])
		}
	}
	if gate.calls != 3 {
		t.Errorf("gate should be skipped for completed subtopics, got %d calls", gate.calls)
	}
	if s.rows[s.cursor].subtopic != "TVM" {
		t.Errorf("cursor should start on first subtopic, got %q", s.rows[s.cursor].subtopic)
	}
}

func TestLoad_ErrorIsShown(t *testing.T) {
	svc := testServices(&stubGate{})
	svc.Curriculum = stubCurriculum{err: errors.New("no such table")}
	s := New(svc)
	s.Update(s.Init()())

	if !strings.Contains(s.View(100, 30), "no such table") {
		t.Error("expected load error in view")
	}
}

func TestCursor_SkipsHeaders(t *testing.T) {
	s := loaded(t, testServices(&stubGate{}))

	for i := 0; i < 3; i++ {
		s.Update(tea.KeyPressMsg{Code: tea.KeyDown})
	}
	if got := s.rows[s.cursor].subtopic; got != "DCF" {
		t.Errorf("expected DCF after crossing a header, got %q", got)
	}
	s.Update(tea.KeyPressMsg{Code: tea.KeyDown})
	if got := s.rows[s.cursor].subtopic; got != "DCF" {
		t.Errorf("cursor should stop at the last row, got %q", got)
	}

	s.Update(tea.KeyPressMsg{Code: tea.KeyUp})
	if got := s.rows[s.cursor].subtopic; got != "IRR" {
		t.Errorf("expected IRR moving up, got %q", got)
	}
}

func TestTab_JumpsToNextTopic(t *testing.T) {
	s := loaded(t, testServices(&stubGate{}))
	s.Update(tea.KeyPressMsg{Code: tea.KeyTab})
	if got := s.rows[s.cursor].topic; got != "Valuation" {
		t.Errorf("expected Valuation, got %q", got)
	}
}

func TestPolicyToggle(t *testing.T) {
	svc := testServices(&stubGate{})
	s := loaded(t, svc)

	s.Update(tea.KeyPressMsg{Code: 'p', Text: "p"})
	if svc.Policy != bank.PolicyAdaptive {
		t.Errorf("expected adaptive, got %q", svc.Policy)
	}
	if !strings.Contains(s.View(100, 30), "adaptive") {
		t.Error("view should show the active policy")
	}
	s.Update(tea.KeyPressMsg{Code: 'p', Text: "p"})
	if svc.Policy != bank.PolicyFixed {
		t.Errorf("expected fixed, got %q", svc.Policy)
	}
}

func TestEnter_PushesQuiz(t *testing.T) {
	s := loaded(t, testServices(&stubGate{}))
	s.Update(tea.KeyPressMsg{Code: tea.KeyDown})

	_, cmd := s.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("expected a command")
	}
	push, ok := cmd().(router.PushScreenMsg)
	if !ok {
		t.Fatalf("expected PushScreenMsg, got %T", cmd())
	}
	q, ok := push.Screen.(*quiz.QuizScreen)
	if !ok {
		t.Fatalf("expected quiz screen, got %T", push.Screen)
	}
	if !strings.Contains(q.Title(), "NPV") {
		t.Errorf("quiz title = %q", q.Title())
	}
}

func TestEsc_Pops(t *testing.T) {
	s := loaded(t, testServices(&stubGate{}))
	_, cmd := s.Update(tea.KeyPressMsg{Code: tea.KeyEscape})
	if _, ok := cmd().(router.PopScreenMsg); !ok {
		t.Errorf("expected PopScreenMsg, got %T", cmd())
	}
}

func TestView_RendersStatuses(t *testing.T) {
	gate := &stubGate{locked: map[string]bool{"IRR": true}}
	s := loaded(t, testServices(gate))
	view := s.View(100, 30)

	for _, want := range []string{"CORPORATE FINANCE", "VALUATION", "completed", "locked", "open", "80%"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}
